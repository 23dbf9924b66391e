package types

import sdkmath "cosmossdk.io/math"

// Event is a committed state change emitted by a fund operation. Events are
// forwarded to the journal and logged; they are never consumed by core logic.
type Event interface {
	Kind() string
}

// DepositEvent records a completed share purchase.
type DepositEvent struct {
	Depositor Account
	Amount    sdkmath.Int
	Shares    sdkmath.Int
}

func (DepositEvent) Kind() string { return "deposit" }

// WithdrawEvent records a completed share redemption.
type WithdrawEvent struct {
	Recipient Account
	Shares    sdkmath.Int
	Amount    sdkmath.Int
}

func (WithdrawEvent) Kind() string { return "withdraw" }

// SwapEvent records a completed exchange trade.
type SwapEvent struct {
	TokenIn   Asset
	TokenOut  Asset
	AmountIn  sdkmath.Int
	AmountOut sdkmath.Int
}

func (SwapEvent) Kind() string { return "swap" }

// SupplyEvent records a deposit into the credit facility.
type SupplyEvent struct {
	Asset  Asset
	Amount sdkmath.Int
}

func (SupplyEvent) Kind() string { return "supply" }

// CollateralEvent records toggling an asset's collateral flag.
type CollateralEvent struct {
	Asset   Asset
	Enabled bool
}

func (CollateralEvent) Kind() string { return "collateral" }

// BorrowEvent records a draw against the fund's collateral.
type BorrowEvent struct {
	Asset    Asset
	Amount   sdkmath.Int
	RateMode uint64
}

func (BorrowEvent) Kind() string { return "borrow" }

// RepayEvent records a debt repayment. Applied may be less than Requested
// because the credit facility clamps to the outstanding debt.
type RepayEvent struct {
	Asset     Asset
	Requested sdkmath.Int
	Applied   sdkmath.Int
}

func (RepayEvent) Kind() string { return "repay" }

// WithdrawSupplyEvent records reclaiming supplied funds from the credit facility.
type WithdrawSupplyEvent struct {
	Asset     Asset
	Requested sdkmath.Int
	Received  sdkmath.Int
}

func (WithdrawSupplyEvent) Kind() string { return "withdraw_supply" }
