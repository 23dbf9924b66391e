/*

The pricefeed package defines the read-only market-data collaborators the fund
consults before trading: signed price feeds (oracle style) and pool spot state
(sqrt-price encoded). Both are interfaces so the guard logic stays
collaborator-agnostic and fully testable offline.

*/

package pricefeed

import "github.com/openfund/pfm/internal/types"

// PriceFeed serves the latest signed price datum for one market.
type PriceFeed interface {
	// LatestPrice returns the most recent round. The adapter layer, not the
	// feed, decides whether the reading is usable.
	LatestPrice() (types.PriceRound, error)
}

// PoolState serves the current spot state of one liquidity pool.
type PoolState interface {
	SpotState() (types.SpotState, error)
}
