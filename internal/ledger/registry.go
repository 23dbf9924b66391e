/*

The ledger package tracks the fund's available balance per asset: the amount the
fund believes it currently controls and may commit to swaps or lending. It is an
internal counter, deliberately not reconciled against any external balance.

*/

package ledger

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/openfund/pfm/internal/types"
)

// Error definitions for ledger operations
var (
	ErrInsufficientLedgerBalance = errors.New("available balance is insufficient")
)

// AssetRegistry holds the per-asset available-balance counters. It is not safe
// for concurrent use; the fund aggregate serializes access.
type AssetRegistry struct {
	balances map[types.Asset]sdkmath.Int
}

// NewAssetRegistry creates an empty registry.
func NewAssetRegistry() *AssetRegistry {
	return &AssetRegistry{
		balances: make(map[types.Asset]sdkmath.Int),
	}
}

// Get returns the available balance for an asset, zero if never credited.
func (r *AssetRegistry) Get(asset types.Asset) sdkmath.Int {
	balance, ok := r.balances[asset]
	if !ok {
		return sdkmath.ZeroInt()
	}
	return balance
}

// Increase credits amount to the asset's available balance.
func (r *AssetRegistry) Increase(asset types.Asset, amount sdkmath.Int) error {
	if err := types.ValidateAmount(amount); err != nil {
		return err
	}
	r.balances[asset] = r.Get(asset).Add(amount)
	return nil
}

// Decrease debits amount from the asset's available balance. A debit exceeding
// the current balance fails ErrInsufficientLedgerBalance and leaves the counter
// unchanged; balances never go negative.
func (r *AssetRegistry) Decrease(asset types.Asset, amount sdkmath.Int) error {
	if err := types.ValidateAmount(amount); err != nil {
		return err
	}
	current := r.Get(asset)
	if amount.GT(current) {
		return errors.Join(ErrInsufficientLedgerBalance,
			fmt.Errorf("asset %s: have %s, need %s", asset, current, amount))
	}
	r.balances[asset] = current.Sub(amount)
	return nil
}

// Balances returns a copy of all non-zero counters for reporting.
func (r *AssetRegistry) Balances() map[types.Asset]sdkmath.Int {
	out := make(map[types.Asset]sdkmath.Int, len(r.balances))
	for asset, balance := range r.balances {
		if balance.IsZero() {
			continue
		}
		out[asset] = balance
	}
	return out
}
