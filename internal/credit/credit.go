/*

The credit package is the lending-protocol collaborator boundary. The facility
owns the legality of lifecycle transitions (what may be borrowed against what);
the fund trusts only the amounts the facility reports back.

*/

package credit

import (
	sdkmath "cosmossdk.io/math"

	"github.com/openfund/pfm/internal/types"
)

// Facility is the external credit protocol the fund supplies to and borrows from.
type Facility interface {
	// Supply deposits amount of asset on behalf of an account.
	Supply(asset types.Asset, amount sdkmath.Int, onBehalfOf types.Account, referralCode uint16) error

	// SetCollateralFlag marks a supplied asset as usable (or not) to back borrowing.
	SetCollateralFlag(asset types.Asset, enabled bool) error

	// Borrow draws amount of asset against the account's collateral.
	Borrow(asset types.Asset, amount sdkmath.Int, rateMode uint64, referralCode uint16, onBehalfOf types.Account) error

	// Repay pays down debt and returns the amount actually applied, clamped to
	// the outstanding debt. types.MaxUint256 repays everything.
	Repay(asset types.Asset, amount sdkmath.Int, rateMode uint64, onBehalfOf types.Account) (sdkmath.Int, error)

	// Withdraw reclaims supplied funds and returns the amount actually released.
	Withdraw(asset types.Asset, amount sdkmath.Int, to types.Account) (sdkmath.Int, error)

	// AccountData returns the facility's aggregate view of the account.
	AccountData(account types.Account) (types.AccountData, error)
}
