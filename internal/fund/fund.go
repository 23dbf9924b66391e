/*

The fund package composes the accounting components into one owned aggregate.
Every mutating entry point runs as an atomic unit behind an in-progress flag:
collaborator calls happen synchronously inside an operation, so a nested call
that re-enters the fund before the ledger commit must be rejected, not served.

*/

package fund

import (
	"errors"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openfund/pfm/internal/access"
	"github.com/openfund/pfm/internal/ledger"
	"github.com/openfund/pfm/internal/lending"
	"github.com/openfund/pfm/internal/logger"
	"github.com/openfund/pfm/internal/shares"
	"github.com/openfund/pfm/internal/swap"
	"github.com/openfund/pfm/internal/types"
)

// Error definitions for the fund aggregate
var (
	ErrReentrantCall = errors.New("operation already in progress")
)

// EventSink receives every committed operation event. Sinks are observational:
// a sink failure is logged, never propagated into the operation result.
type EventSink interface {
	Record(opID string, event types.Event) error
}

// NopSink discards events. Used when no journal is configured and in tests.
type NopSink struct{}

func (NopSink) Record(string, types.Event) error { return nil }

// Fund is the pooled-fund aggregate: share ledger for depositors, guarded swap
// and lending execution for operators, one internal asset ledger underneath.
type Fund struct {
	mu      sync.Mutex
	entered bool

	registry *ledger.AssetRegistry
	access   *access.Store
	shares   *shares.Ledger
	swaps    *swap.Executor
	lending  *lending.Manager
	sink     EventSink

	logger zerolog.Logger
}

// Config holds the dependencies for creating a fund.
type Config struct {
	Registry *ledger.AssetRegistry
	Access   *access.Store
	Shares   *shares.Ledger
	Swaps    *swap.Executor
	Lending  *lending.Manager
	// Sink may be nil; events are then discarded.
	Sink EventSink
}

// New creates a fund aggregate.
func New(cfg Config) (*Fund, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("asset registry cannot be nil")
	}
	if cfg.Access == nil {
		return nil, fmt.Errorf("access store cannot be nil")
	}
	if cfg.Shares == nil {
		return nil, fmt.Errorf("share ledger cannot be nil")
	}
	if cfg.Swaps == nil {
		return nil, fmt.Errorf("swap executor cannot be nil")
	}
	if cfg.Lending == nil {
		return nil, fmt.Errorf("lending manager cannot be nil")
	}
	sink := cfg.Sink
	if sink == nil {
		sink = NopSink{}
	}
	return &Fund{
		registry: cfg.Registry,
		access:   cfg.Access,
		shares:   cfg.Shares,
		swaps:    cfg.Swaps,
		lending:  cfg.Lending,
		sink:     sink,
		logger:   logger.GetForComponent("fund"),
	}, nil
}

// enter sets the in-progress flag before an operation touches any state.
func (f *Fund) enter() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entered {
		return ErrReentrantCall
	}
	f.entered = true
	return nil
}

func (f *Fund) exit() {
	f.mu.Lock()
	f.entered = false
	f.mu.Unlock()
}

func (f *Fund) record(opID string, event types.Event) {
	if err := f.sink.Record(opID, event); err != nil {
		f.logger.Warn().Err(err).Str("op_id", opID).Str("kind", event.Kind()).
			Msg("Failed to journal operation event")
	}
}

// Deposit exchanges amount of the accepted asset for newly minted shares.
func (f *Fund) Deposit(caller types.Account, amount sdkmath.Int) (types.DepositEvent, error) {
	if err := f.enter(); err != nil {
		return types.DepositEvent{}, err
	}
	defer f.exit()

	opID := uuid.New().String()
	event, err := f.shares.Deposit(caller, amount)
	if err != nil {
		return types.DepositEvent{}, err
	}
	f.record(opID, event)
	return event, nil
}

// Withdraw redeems shares for the proportional amount of the accepted asset.
func (f *Fund) Withdraw(caller types.Account, shareAmount sdkmath.Int) (types.WithdrawEvent, error) {
	if err := f.enter(); err != nil {
		return types.WithdrawEvent{}, err
	}
	defer f.exit()

	opID := uuid.New().String()
	event, err := f.shares.Withdraw(caller, shareAmount)
	if err != nil {
		return types.WithdrawEvent{}, err
	}
	f.record(opID, event)
	return event, nil
}

// Swap trades fund-held assets through the exchange venue under the price guard.
func (f *Fund) Swap(caller types.Account, p swap.Params) (types.SwapEvent, error) {
	if err := f.enter(); err != nil {
		return types.SwapEvent{}, err
	}
	defer f.exit()

	opID := uuid.New().String()
	event, err := f.swaps.Swap(caller, p)
	if err != nil {
		return types.SwapEvent{}, err
	}
	f.record(opID, event)
	return event, nil
}

// Supply moves fund-held assets into the credit facility.
func (f *Fund) Supply(caller types.Account, asset types.Asset, amount sdkmath.Int) (types.SupplyEvent, error) {
	if err := f.enter(); err != nil {
		return types.SupplyEvent{}, err
	}
	defer f.exit()

	opID := uuid.New().String()
	event, err := f.lending.Supply(caller, asset, amount)
	if err != nil {
		return types.SupplyEvent{}, err
	}
	f.record(opID, event)
	return event, nil
}

// EnableCollateral flags a supplied asset as borrowing collateral.
func (f *Fund) EnableCollateral(caller types.Account, asset types.Asset) (types.CollateralEvent, error) {
	if err := f.enter(); err != nil {
		return types.CollateralEvent{}, err
	}
	defer f.exit()

	opID := uuid.New().String()
	event, err := f.lending.EnableCollateral(caller, asset)
	if err != nil {
		return types.CollateralEvent{}, err
	}
	f.record(opID, event)
	return event, nil
}

// Borrow draws against the fund's collateral.
func (f *Fund) Borrow(caller types.Account, asset types.Asset, amount sdkmath.Int, rateMode uint64) (types.BorrowEvent, error) {
	if err := f.enter(); err != nil {
		return types.BorrowEvent{}, err
	}
	defer f.exit()

	opID := uuid.New().String()
	event, err := f.lending.Borrow(caller, asset, amount, rateMode)
	if err != nil {
		return types.BorrowEvent{}, err
	}
	f.record(opID, event)
	return event, nil
}

// Repay pays down facility debt.
func (f *Fund) Repay(caller types.Account, asset types.Asset, amount sdkmath.Int, rateMode uint64) (types.RepayEvent, error) {
	if err := f.enter(); err != nil {
		return types.RepayEvent{}, err
	}
	defer f.exit()

	opID := uuid.New().String()
	event, err := f.lending.Repay(caller, asset, amount, rateMode)
	if err != nil {
		return types.RepayEvent{}, err
	}
	f.record(opID, event)
	return event, nil
}

// WithdrawSupply reclaims supplied funds from the facility.
func (f *Fund) WithdrawSupply(caller types.Account, asset types.Asset, amount sdkmath.Int) (types.WithdrawSupplyEvent, error) {
	if err := f.enter(); err != nil {
		return types.WithdrawSupplyEvent{}, err
	}
	defer f.exit()

	opID := uuid.New().String()
	event, err := f.lending.WithdrawSupply(caller, asset, amount)
	if err != nil {
		return types.WithdrawSupplyEvent{}, err
	}
	f.record(opID, event)
	return event, nil
}

// GrantRole adds a role grant. Admin only.
func (f *Fund) GrantRole(caller, account types.Account, role types.Role) error {
	if err := f.enter(); err != nil {
		return err
	}
	defer f.exit()

	if err := f.access.Require(caller, types.RoleAdmin); err != nil {
		return err
	}
	f.access.Grant(account, role)
	f.logger.Info().Str("account", string(account)).Str("role", string(role)).Msg("Role granted")
	return nil
}

// RevokeRole removes a role grant. Admin only.
func (f *Fund) RevokeRole(caller, account types.Account, role types.Role) error {
	if err := f.enter(); err != nil {
		return err
	}
	defer f.exit()

	if err := f.access.Require(caller, types.RoleAdmin); err != nil {
		return err
	}
	f.access.Revoke(account, role)
	f.logger.Info().Str("account", string(account)).Str("role", string(role)).Msg("Role revoked")
	return nil
}

// Read-only views. These take no locks: the execution model serializes
// mutations, and views are advisory (web dashboard, logging).

// AvailableBalance returns the ledger's counter for one asset.
func (f *Fund) AvailableBalance(asset types.Asset) sdkmath.Int {
	return f.registry.Get(asset)
}

// AvailableBalances returns all non-zero ledger counters.
func (f *Fund) AvailableBalances() map[types.Asset]sdkmath.Int {
	return f.registry.Balances()
}

// TotalShares returns the outstanding share supply.
func (f *Fund) TotalShares() sdkmath.Int {
	return f.shares.TotalSupply()
}

// SharesOf returns an account's share balance.
func (f *Fund) SharesOf(account types.Account) sdkmath.Int {
	return f.shares.BalanceOf(account)
}

// DepositAsset returns the single asset the fund accepts.
func (f *Fund) DepositAsset() types.Asset {
	return f.shares.DepositAsset()
}
