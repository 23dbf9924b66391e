/*

The pricing package translates raw collaborator readings into prices the guard
logic can compare. OracleAdapter validates signed feed rounds; PoolAdapter
derives a spot price from the pool's sqrt-price encoding.

The pool price truncates the square-root representation to an integer before
squaring it. This is a deliberate low-precision approximation kept for parity
with the system this ledger mirrors; swaps near the band edge inherit its
rounding.

*/

package pricing

import (
	"errors"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"

	"github.com/openfund/pfm/internal/pricefeed"
	"github.com/openfund/pfm/internal/types"
)

// Error definitions for price reads
var (
	ErrInvalidPriceData = errors.New("price data is invalid")
	ErrUnknownRef       = errors.New("no collaborator bound for reference")
)

// sqrtPriceScale is the fixed-point denominator of the pool sqrt-price
// encoding (2^96).
var sqrtPriceScale = sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 96))

// OracleAdapter reads signed prices from a set of feeds keyed by reference.
type OracleAdapter struct {
	feeds map[string]pricefeed.PriceFeed
}

// NewOracleAdapter creates an adapter over the given feed bindings.
func NewOracleAdapter(feeds map[string]pricefeed.PriceFeed) *OracleAdapter {
	if feeds == nil {
		feeds = make(map[string]pricefeed.PriceFeed)
	}
	return &OracleAdapter{feeds: feeds}
}

// Bind attaches a feed under a reference, replacing any previous binding.
func (a *OracleAdapter) Bind(ref string, feed pricefeed.PriceFeed) {
	a.feeds[ref] = feed
}

// Read returns the latest oracle price for ref. Non-positive readings fail
// ErrInvalidPriceData; staleness beyond positivity is not checked here.
func (a *OracleAdapter) Read(ref string) (sdkmath.Int, error) {
	feed, ok := a.feeds[ref]
	if !ok {
		return sdkmath.Int{}, errors.Join(ErrUnknownRef, fmt.Errorf("price feed %q", ref))
	}
	round, err := feed.LatestPrice()
	if err != nil {
		return sdkmath.Int{}, errors.Join(types.ErrCollaborator, err)
	}
	if round.Price.IsNil() || !round.Price.IsPositive() {
		return sdkmath.Int{}, errors.Join(ErrInvalidPriceData,
			fmt.Errorf("feed %q round %d answered %s", ref, round.RoundID, round.Price))
	}
	return round.Price, nil
}

// PoolAdapter reads spot prices from a set of pool-state sources keyed by
// reference.
type PoolAdapter struct {
	pools map[string]pricefeed.PoolState
}

// NewPoolAdapter creates an adapter over the given pool bindings.
func NewPoolAdapter(pools map[string]pricefeed.PoolState) *PoolAdapter {
	if pools == nil {
		pools = make(map[string]pricefeed.PoolState)
	}
	return &PoolAdapter{pools: pools}
}

// Bind attaches a pool-state source under a reference.
func (a *PoolAdapter) Bind(ref string, pool pricefeed.PoolState) {
	a.pools[ref] = pool
}

// Read returns the pool's current spot price: the sqrt-price encoding divided
// down to an integer square root, then squared.
func (a *PoolAdapter) Read(ref string) (sdkmath.Int, error) {
	pool, ok := a.pools[ref]
	if !ok {
		return sdkmath.Int{}, errors.Join(ErrUnknownRef, fmt.Errorf("pool %q", ref))
	}
	state, err := pool.SpotState()
	if err != nil {
		return sdkmath.Int{}, errors.Join(types.ErrCollaborator, err)
	}
	if state.SqrtPriceEncoded.IsNil() || !state.SqrtPriceEncoded.IsPositive() {
		return sdkmath.Int{}, errors.Join(ErrInvalidPriceData,
			fmt.Errorf("pool %q sqrt price %s", ref, state.SqrtPriceEncoded))
	}
	sqrtPrice := state.SqrtPriceEncoded.Quo(sqrtPriceScale)
	return sqrtPrice.Mul(sqrtPrice), nil
}
