/*

Shared domain types for the pooled fund manager. Amounts, shares and prices are
sdkmath.Int so the accounting layer never touches floating point.

*/

package types

import (
	"errors"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Error definitions shared across components
var (
	// ErrInvalidAmount flags a zero, negative or uninitialized amount.
	ErrInvalidAmount = errors.New("amount is invalid")

	// ErrCollaborator wraps any failure surfaced by an external venue
	// (exchange, credit facility or bank), carrying its own sub-reason.
	ErrCollaborator = errors.New("collaborator call failed")
)

// Asset identifies a fungible token the fund can hold, e.g. "uusdc".
type Asset string

// Account identifies a depositor or operator.
type Account string

// Role is a capability tag gating privileged operations.
type Role string

const (
	// RoleFundManager is required for swap and lending operations.
	RoleFundManager Role = "fund_manager"
	// RoleAdmin manages role grants.
	RoleAdmin Role = "admin"
)

// MaxUint256 is the sentinel the credit facility interprets as
// "repay the full outstanding debt".
var MaxUint256 = sdkmath.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))

// ValidateAmount rejects nil, negative and zero amounts with ErrInvalidAmount.
func ValidateAmount(amount sdkmath.Int) error {
	if amount.IsNil() {
		return errors.Join(ErrInvalidAmount, errors.New("amount is nil"))
	}
	if !amount.IsPositive() {
		return errors.Join(ErrInvalidAmount, errors.New("amount must be positive"))
	}
	return nil
}

// AccountData mirrors the credit facility's aggregate view of an account.
type AccountData struct {
	CollateralValue      sdkmath.Int
	DebtValue            sdkmath.Int
	BorrowCapacity       sdkmath.Int
	LiquidationThreshold sdkmath.Int
	LTV                  sdkmath.Int
	HealthFactor         sdkmath.Int
}

// PriceRound is one signed reading from a price feed.
type PriceRound struct {
	RoundID         uint64
	Price           sdkmath.Int
	StartedAt       int64
	UpdatedAt       int64
	AnsweredInRound uint64
}

// SpotState is the pool-state collaborator's current market snapshot.
// SqrtPriceEncoded is the pool's fixed-point square-root price (X96 encoding).
type SpotState struct {
	SqrtPriceEncoded sdkmath.Int
	Tick             int32
}
