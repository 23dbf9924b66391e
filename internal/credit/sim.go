package credit

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/openfund/pfm/internal/types"
)

// Error definitions for the simulated facility
var (
	ErrInsufficientCollateral = errors.New("insufficient collateral for borrow")
	ErrInsufficientBalance    = errors.New("insufficient supplied balance")
	ErrNoOutstandingDebt      = errors.New("no outstanding debt to repay")
	ErrUnknownAssetPrice      = errors.New("facility has no price for asset")
)

// SimFacility is a deterministic credit protocol serving a single logical
// account (the fund). Prices are fixed per asset; the loan-to-value ratio is
// uniform across reserves.
//
// AccountData values all supplied reserves toward borrow capacity regardless
// of the collateral flag; Borrow itself enforces the flag strictly. The split
// mirrors the validation mock this simulator is modeled on and lets callers
// observe the facility's own collateral rejection.
type SimFacility struct {
	prices     map[types.Asset]sdkmath.Int
	ltv        sdkmath.LegacyDec
	supplied   map[types.Asset]sdkmath.Int
	debts      map[types.Asset]sdkmath.Int
	collateral map[types.Asset]bool
	// Err, when set, fails every call. Useful for scripting facility outages.
	Err error
}

// NewSimFacility creates a facility with the given asset prices and a uniform
// loan-to-value ratio (e.g. 1.0 lends the full collateral value).
func NewSimFacility(prices map[types.Asset]sdkmath.Int, ltv sdkmath.LegacyDec) *SimFacility {
	if prices == nil {
		prices = make(map[types.Asset]sdkmath.Int)
	}
	return &SimFacility{
		prices:     prices,
		ltv:        ltv,
		supplied:   make(map[types.Asset]sdkmath.Int),
		debts:      make(map[types.Asset]sdkmath.Int),
		collateral: make(map[types.Asset]bool),
	}
}

// SetPrice fixes the facility's valuation of one asset unit.
func (f *SimFacility) SetPrice(asset types.Asset, price sdkmath.Int) {
	f.prices[asset] = price
}

// Supplied returns the facility-held supply balance for an asset.
func (f *SimFacility) Supplied(asset types.Asset) sdkmath.Int {
	return f.get(f.supplied, asset)
}

// Debt returns the outstanding debt for an asset.
func (f *SimFacility) Debt(asset types.Asset) sdkmath.Int {
	return f.get(f.debts, asset)
}

// CollateralEnabled reports whether an asset backs borrowing.
func (f *SimFacility) CollateralEnabled(asset types.Asset) bool {
	return f.collateral[asset]
}

func (f *SimFacility) get(m map[types.Asset]sdkmath.Int, asset types.Asset) sdkmath.Int {
	if v, ok := m[asset]; ok {
		return v
	}
	return sdkmath.ZeroInt()
}

func (f *SimFacility) price(asset types.Asset) (sdkmath.Int, error) {
	price, ok := f.prices[asset]
	if !ok {
		return sdkmath.Int{}, errors.Join(ErrUnknownAssetPrice, fmt.Errorf("asset %s", asset))
	}
	return price, nil
}

func (f *SimFacility) Supply(asset types.Asset, amount sdkmath.Int, onBehalfOf types.Account, referralCode uint16) error {
	if f.Err != nil {
		return f.Err
	}
	if err := types.ValidateAmount(amount); err != nil {
		return err
	}
	if _, err := f.price(asset); err != nil {
		return err
	}
	f.supplied[asset] = f.Supplied(asset).Add(amount)
	return nil
}

func (f *SimFacility) SetCollateralFlag(asset types.Asset, enabled bool) error {
	if f.Err != nil {
		return f.Err
	}
	if enabled && f.Supplied(asset).IsZero() {
		return errors.Join(ErrInsufficientBalance,
			fmt.Errorf("asset %s has no supplied balance to collateralize", asset))
	}
	f.collateral[asset] = enabled
	return nil
}

func (f *SimFacility) Borrow(asset types.Asset, amount sdkmath.Int, rateMode uint64, referralCode uint16, onBehalfOf types.Account) error {
	if f.Err != nil {
		return f.Err
	}
	if err := types.ValidateAmount(amount); err != nil {
		return err
	}
	price, err := f.price(asset)
	if err != nil {
		return err
	}

	collateralValue := sdkmath.ZeroInt()
	for a, supplied := range f.supplied {
		if !f.collateral[a] {
			continue
		}
		p, err := f.price(a)
		if err != nil {
			return err
		}
		collateralValue = collateralValue.Add(supplied.Mul(p))
	}
	capacity := f.ltv.MulInt(collateralValue).TruncateInt().Sub(f.debtValue())
	cost := price.Mul(amount)
	if cost.GT(capacity) {
		return errors.Join(ErrInsufficientCollateral,
			fmt.Errorf("borrow cost %s exceeds enabled capacity %s", cost, capacity))
	}

	f.debts[asset] = f.Debt(asset).Add(amount)
	return nil
}

func (f *SimFacility) Repay(asset types.Asset, amount sdkmath.Int, rateMode uint64, onBehalfOf types.Account) (sdkmath.Int, error) {
	if f.Err != nil {
		return sdkmath.Int{}, f.Err
	}
	if err := types.ValidateAmount(amount); err != nil {
		return sdkmath.Int{}, err
	}
	debt := f.Debt(asset)
	if debt.IsZero() {
		return sdkmath.Int{}, errors.Join(ErrNoOutstandingDebt, fmt.Errorf("asset %s", asset))
	}
	applied := amount
	if applied.GT(debt) {
		applied = debt
	}
	f.debts[asset] = debt.Sub(applied)
	return applied, nil
}

func (f *SimFacility) Withdraw(asset types.Asset, amount sdkmath.Int, to types.Account) (sdkmath.Int, error) {
	if f.Err != nil {
		return sdkmath.Int{}, f.Err
	}
	if err := types.ValidateAmount(amount); err != nil {
		return sdkmath.Int{}, err
	}
	supplied := f.Supplied(asset)
	released := amount
	if amount.Equal(types.MaxUint256) {
		released = supplied
	}
	if released.GT(supplied) {
		return sdkmath.Int{}, errors.Join(ErrInsufficientBalance,
			fmt.Errorf("asset %s: supplied %s, requested %s", asset, supplied, released))
	}
	f.supplied[asset] = supplied.Sub(released)
	return released, nil
}

func (f *SimFacility) AccountData(account types.Account) (types.AccountData, error) {
	if f.Err != nil {
		return types.AccountData{}, f.Err
	}

	collateralValue := sdkmath.ZeroInt()
	for asset, supplied := range f.supplied {
		price, err := f.price(asset)
		if err != nil {
			return types.AccountData{}, err
		}
		collateralValue = collateralValue.Add(supplied.Mul(price))
	}
	debtValue := f.debtValue()

	capacity := f.ltv.MulInt(collateralValue).TruncateInt().Sub(debtValue)
	if capacity.IsNegative() {
		capacity = sdkmath.ZeroInt()
	}

	ltvBps := f.ltv.MulInt64(10_000).TruncateInt()
	healthFactor := types.MaxUint256
	if debtValue.IsPositive() {
		healthFactor = f.ltv.MulInt(collateralValue).
			Quo(sdkmath.LegacyNewDecFromInt(debtValue)).
			MulInt64(1e18).TruncateInt()
	}

	return types.AccountData{
		CollateralValue:      collateralValue,
		DebtValue:            debtValue,
		BorrowCapacity:       capacity,
		LiquidationThreshold: ltvBps,
		LTV:                  ltvBps,
		HealthFactor:         healthFactor,
	}, nil
}

func (f *SimFacility) debtValue() sdkmath.Int {
	total := sdkmath.ZeroInt()
	for asset, debt := range f.debts {
		price, ok := f.prices[asset]
		if !ok {
			continue
		}
		total = total.Add(debt.Mul(price))
	}
	return total
}
