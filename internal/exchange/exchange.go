/*

The exchange package is the trading-venue collaborator boundary. The venue, not
the fund, enforces the minimum-output bound of a trade; the fund only commits
its ledger once the venue reports the realized output.

*/

package exchange

import (
	sdkmath "cosmossdk.io/math"

	"github.com/openfund/pfm/internal/types"
)

// Order carries everything the venue needs to execute one trade.
type Order struct {
	TokenIn          types.Asset
	TokenOut         types.Asset
	Fee              uint32
	Recipient        types.Account
	Deadline         int64
	AmountIn         sdkmath.Int
	AmountOutMinimum sdkmath.Int
	// PriceLimit of zero means no limit.
	PriceLimit sdkmath.Int
}

// Venue executes trades synchronously.
type Venue interface {
	// Swap executes the order and returns the realized output amount. It fails
	// if the realized output would be below AmountOutMinimum.
	Swap(order Order) (sdkmath.Int, error)
}
