/*

The shares package issues and redeems the fungible units representing a
proportional claim on the fund's deposit asset. Share math is anchored to the
available balance as it stood BEFORE the operation's own ledger update; getting
that ordering wrong under-mints every deposit after the first.

*/

package shares

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/openfund/pfm/internal/bank"
	"github.com/openfund/pfm/internal/ledger"
	"github.com/openfund/pfm/internal/logger"
	"github.com/openfund/pfm/internal/types"
)

// Error definitions for share accounting
var (
	ErrInsufficientShares = errors.New("share balance is insufficient")
	ErrDivisionByZero     = errors.New("no shares outstanding to price against")
)

// Ledger tracks total share supply and per-account share balances, and owns
// the deposit/withdraw flows against the fund's accepted asset.
type Ledger struct {
	registry     *ledger.AssetRegistry
	bank         bank.Bank
	depositAsset types.Asset
	fundAccount  types.Account

	totalSupply sdkmath.Int
	balances    map[types.Account]sdkmath.Int

	logger zerolog.Logger
}

// Config holds the dependencies for creating a share ledger.
type Config struct {
	Registry     *ledger.AssetRegistry
	Bank         bank.Bank
	DepositAsset types.Asset
	FundAccount  types.Account
}

// NewLedger creates a share ledger with zero supply.
func NewLedger(cfg Config) (*Ledger, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("asset registry cannot be nil")
	}
	if cfg.Bank == nil {
		return nil, fmt.Errorf("bank collaborator cannot be nil")
	}
	if cfg.DepositAsset == "" {
		return nil, fmt.Errorf("deposit asset cannot be empty")
	}
	if cfg.FundAccount == "" {
		return nil, fmt.Errorf("fund account cannot be empty")
	}
	return &Ledger{
		registry:     cfg.Registry,
		bank:         cfg.Bank,
		depositAsset: cfg.DepositAsset,
		fundAccount:  cfg.FundAccount,
		totalSupply:  sdkmath.ZeroInt(),
		balances:     make(map[types.Account]sdkmath.Int),
		logger:       logger.GetForComponent("share_ledger"),
	}, nil
}

// TotalSupply returns the outstanding share supply.
func (l *Ledger) TotalSupply() sdkmath.Int {
	return l.totalSupply
}

// BalanceOf returns the account's share balance, zero if unknown.
func (l *Ledger) BalanceOf(account types.Account) sdkmath.Int {
	if balance, ok := l.balances[account]; ok {
		return balance
	}
	return sdkmath.ZeroInt()
}

// DepositAsset returns the single asset the fund accepts from depositors.
func (l *Ledger) DepositAsset() types.Asset {
	return l.depositAsset
}

// Deposit pulls amount of the deposit asset from the caller into fund custody
// and mints the proportional share amount. The mint ratio uses the available
// balance before this deposit's own increment.
func (l *Ledger) Deposit(caller types.Account, amount sdkmath.Int) (types.DepositEvent, error) {
	if err := types.ValidateAmount(amount); err != nil {
		return types.DepositEvent{}, err
	}

	preBalance := l.registry.Get(l.depositAsset)
	var minted sdkmath.Int
	switch {
	case l.totalSupply.IsZero():
		minted = amount
	case preBalance.IsZero():
		// Shares exist but the fund tracks no deposit-asset funds; any mint
		// ratio here would be value-from-nothing.
		return types.DepositEvent{}, errors.Join(ErrDivisionByZero,
			fmt.Errorf("supply %s outstanding with zero available %s", l.totalSupply, l.depositAsset))
	default:
		minted = amount.Mul(l.totalSupply).Quo(preBalance)
	}

	if err := l.bank.Transfer(l.depositAsset, caller, l.fundAccount, amount); err != nil {
		return types.DepositEvent{}, errors.Join(types.ErrCollaborator, err)
	}
	if err := l.registry.Increase(l.depositAsset, amount); err != nil {
		return types.DepositEvent{}, err
	}
	l.mint(caller, minted)

	event := types.DepositEvent{Depositor: caller, Amount: amount, Shares: minted}
	l.logger.Info().
		Str("depositor", string(caller)).
		Str("amount", amount.String()).
		Str("shares", minted.String()).
		Str("totalSupply", l.totalSupply.String()).
		Msg("Deposit completed")
	return event, nil
}

// Withdraw burns the caller's shares and pays out the proportional amount of
// the deposit asset, priced against the pre-burn pool.
func (l *Ledger) Withdraw(caller types.Account, shareAmount sdkmath.Int) (types.WithdrawEvent, error) {
	if err := types.ValidateAmount(shareAmount); err != nil {
		return types.WithdrawEvent{}, err
	}
	held := l.BalanceOf(caller)
	if shareAmount.GT(held) {
		return types.WithdrawEvent{}, errors.Join(ErrInsufficientShares,
			fmt.Errorf("account %s: holds %s, redeeming %s", caller, held, shareAmount))
	}

	amount, err := l.SharesToTokens(shareAmount)
	if err != nil {
		return types.WithdrawEvent{}, err
	}

	// The transfer happens before the burn/decrease commit; a bank failure
	// leaves supply and ledger untouched.
	if amount.IsPositive() {
		if err := l.bank.Transfer(l.depositAsset, l.fundAccount, caller, amount); err != nil {
			return types.WithdrawEvent{}, errors.Join(types.ErrCollaborator, err)
		}
		if err := l.registry.Decrease(l.depositAsset, amount); err != nil {
			return types.WithdrawEvent{}, err
		}
	}
	l.burn(caller, shareAmount)

	event := types.WithdrawEvent{Recipient: caller, Shares: shareAmount, Amount: amount}
	l.logger.Info().
		Str("recipient", string(caller)).
		Str("shares", shareAmount.String()).
		Str("amount", amount.String()).
		Str("totalSupply", l.totalSupply.String()).
		Msg("Withdraw completed")
	return event, nil
}

// SharesToTokens prices a share amount against the current pool:
// floor(shares * availableBalance / totalSupply). Callable only once shares exist.
func (l *Ledger) SharesToTokens(shareAmount sdkmath.Int) (sdkmath.Int, error) {
	if err := types.ValidateAmount(shareAmount); err != nil {
		return sdkmath.Int{}, err
	}
	if l.totalSupply.IsZero() {
		return sdkmath.Int{}, ErrDivisionByZero
	}
	return shareAmount.Mul(l.registry.Get(l.depositAsset)).Quo(l.totalSupply), nil
}

func (l *Ledger) mint(account types.Account, shareAmount sdkmath.Int) {
	if shareAmount.IsZero() {
		return
	}
	l.balances[account] = l.BalanceOf(account).Add(shareAmount)
	l.totalSupply = l.totalSupply.Add(shareAmount)
}

func (l *Ledger) burn(account types.Account, shareAmount sdkmath.Int) {
	remaining := l.BalanceOf(account).Sub(shareAmount)
	if remaining.IsZero() {
		delete(l.balances, account)
	} else {
		l.balances[account] = remaining
	}
	l.totalSupply = l.totalSupply.Sub(shareAmount)
}
