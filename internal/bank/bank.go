/*

The bank package is the asset-transfer collaborator boundary: moving token
units between accounts with prior authorization assumed. Transfer mechanics
beyond the standard move contract are outside the fund's scope.

*/

package bank

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/openfund/pfm/internal/types"
)

// Error definitions for transfer failures
var (
	ErrInsufficientFunds = errors.New("sender balance is insufficient")
)

// Bank moves asset units between accounts.
type Bank interface {
	// Transfer moves amount of asset from one account to another. It fails if
	// the sender's balance or authorization is insufficient.
	Transfer(asset types.Asset, from, to types.Account, amount sdkmath.Int) error
}

// SimBank is a deterministic in-memory token bank.
type SimBank struct {
	balances map[types.Account]map[types.Asset]sdkmath.Int
}

// NewSimBank creates an empty bank.
func NewSimBank() *SimBank {
	return &SimBank{balances: make(map[types.Account]map[types.Asset]sdkmath.Int)}
}

// Mint credits amount of asset to an account, creating it as needed.
func (b *SimBank) Mint(account types.Account, asset types.Asset, amount sdkmath.Int) {
	if _, ok := b.balances[account]; !ok {
		b.balances[account] = make(map[types.Asset]sdkmath.Int)
	}
	b.balances[account][asset] = b.BalanceOf(account, asset).Add(amount)
}

// BalanceOf returns the account's balance for an asset, zero if unknown.
func (b *SimBank) BalanceOf(account types.Account, asset types.Asset) sdkmath.Int {
	if holdings, ok := b.balances[account]; ok {
		if balance, ok := holdings[asset]; ok {
			return balance
		}
	}
	return sdkmath.ZeroInt()
}

func (b *SimBank) Transfer(asset types.Asset, from, to types.Account, amount sdkmath.Int) error {
	if err := types.ValidateAmount(amount); err != nil {
		return err
	}
	current := b.BalanceOf(from, asset)
	if amount.GT(current) {
		return errors.Join(ErrInsufficientFunds,
			fmt.Errorf("account %s asset %s: have %s, need %s", from, asset, current, amount))
	}
	b.balances[from][asset] = current.Sub(amount)
	b.Mint(to, asset, amount)
	return nil
}
