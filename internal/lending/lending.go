/*

The lending package routes fund-held assets through the external credit
facility: supply, enable-as-collateral, borrow, repay, withdraw. Transition
legality (e.g. borrowing without enabled collateral) belongs to the facility;
this layer guards only the fund's own ledger and borrowing-power arithmetic.

*/

package lending

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/openfund/pfm/internal/access"
	"github.com/openfund/pfm/internal/credit"
	"github.com/openfund/pfm/internal/ledger"
	"github.com/openfund/pfm/internal/logger"
	"github.com/openfund/pfm/internal/pricing"
	"github.com/openfund/pfm/internal/types"
)

// Error definitions for lending operations
var (
	ErrInsufficientBorrowingPower = errors.New("borrow cost exceeds borrowing power")
	ErrNoFeedForAsset             = errors.New("no price feed bound for asset")
)

// Manager runs the credit-facility lifecycle for FundManager operators.
type Manager struct {
	registry     *ledger.AssetRegistry
	access       *access.Store
	facility     credit.Facility
	oracle       *pricing.OracleAdapter
	feedRefs     map[types.Asset]string
	fundAccount  types.Account
	referralCode uint16

	logger zerolog.Logger
}

// Config holds the dependencies for creating a lending manager.
type Config struct {
	Registry *ledger.AssetRegistry
	Access   *access.Store
	Facility credit.Facility
	Oracle   *pricing.OracleAdapter
	// FeedRefs binds each asset to the oracle reference used when valuing a
	// borrow against the fund's borrowing power.
	FeedRefs     map[types.Asset]string
	FundAccount  types.Account
	ReferralCode uint16
}

// NewManager creates a lending manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("asset registry cannot be nil")
	}
	if cfg.Access == nil {
		return nil, fmt.Errorf("access store cannot be nil")
	}
	if cfg.Facility == nil {
		return nil, fmt.Errorf("credit facility cannot be nil")
	}
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("oracle adapter cannot be nil")
	}
	if cfg.FundAccount == "" {
		return nil, fmt.Errorf("fund account cannot be empty")
	}
	feedRefs := cfg.FeedRefs
	if feedRefs == nil {
		feedRefs = make(map[types.Asset]string)
	}
	return &Manager{
		registry:     cfg.Registry,
		access:       cfg.Access,
		facility:     cfg.Facility,
		oracle:       cfg.Oracle,
		feedRefs:     feedRefs,
		fundAccount:  cfg.FundAccount,
		referralCode: cfg.ReferralCode,
		logger:       logger.GetForComponent("lending_manager"),
	}, nil
}

// Supply moves amount of a fund-held asset into the credit facility.
func (m *Manager) Supply(caller types.Account, asset types.Asset, amount sdkmath.Int) (types.SupplyEvent, error) {
	if err := m.access.Require(caller, types.RoleFundManager); err != nil {
		return types.SupplyEvent{}, err
	}
	if err := types.ValidateAmount(amount); err != nil {
		return types.SupplyEvent{}, err
	}
	available := m.registry.Get(asset)
	if amount.GT(available) {
		return types.SupplyEvent{}, errors.Join(ledger.ErrInsufficientLedgerBalance,
			fmt.Errorf("asset %s: have %s, supplying %s", asset, available, amount))
	}

	if err := m.facility.Supply(asset, amount, m.fundAccount, m.referralCode); err != nil {
		return types.SupplyEvent{}, errors.Join(types.ErrCollaborator, err)
	}
	if err := m.registry.Decrease(asset, amount); err != nil {
		return types.SupplyEvent{}, err
	}

	m.logger.Info().
		Str("asset", string(asset)).
		Str("amount", amount.String()).
		Msg("Supplied to credit facility")
	return types.SupplyEvent{Asset: asset, Amount: amount}, nil
}

// EnableCollateral flags a supplied asset as backing for borrows. No ledger change.
func (m *Manager) EnableCollateral(caller types.Account, asset types.Asset) (types.CollateralEvent, error) {
	if err := m.access.Require(caller, types.RoleFundManager); err != nil {
		return types.CollateralEvent{}, err
	}
	if err := m.facility.SetCollateralFlag(asset, true); err != nil {
		return types.CollateralEvent{}, errors.Join(types.ErrCollaborator, err)
	}

	m.logger.Info().Str("asset", string(asset)).Msg("Collateral enabled")
	return types.CollateralEvent{Asset: asset, Enabled: true}, nil
}

// Borrow draws amount of asset against the fund's collateral and credits it to
// the ledger. The borrow cost is valued through the oracle and checked against
// the facility's reported borrowing power before the facility is invoked.
func (m *Manager) Borrow(caller types.Account, asset types.Asset, amount sdkmath.Int, rateMode uint64) (types.BorrowEvent, error) {
	if err := m.access.Require(caller, types.RoleFundManager); err != nil {
		return types.BorrowEvent{}, err
	}
	if err := types.ValidateAmount(amount); err != nil {
		return types.BorrowEvent{}, err
	}

	data, err := m.facility.AccountData(m.fundAccount)
	if err != nil {
		return types.BorrowEvent{}, errors.Join(types.ErrCollaborator, err)
	}
	price, err := m.assetPrice(asset)
	if err != nil {
		return types.BorrowEvent{}, err
	}
	cost := price.Mul(amount)
	if cost.GT(data.BorrowCapacity) {
		return types.BorrowEvent{}, errors.Join(ErrInsufficientBorrowingPower,
			fmt.Errorf("cost %s exceeds capacity %s", cost, data.BorrowCapacity))
	}

	if err := m.facility.Borrow(asset, amount, rateMode, m.referralCode, m.fundAccount); err != nil {
		return types.BorrowEvent{}, errors.Join(types.ErrCollaborator, err)
	}
	if err := m.registry.Increase(asset, amount); err != nil {
		return types.BorrowEvent{}, err
	}

	m.logger.Info().
		Str("asset", string(asset)).
		Str("amount", amount.String()).
		Uint64("rateMode", rateMode).
		Msg("Borrowed from credit facility")
	return types.BorrowEvent{Asset: asset, Amount: amount, RateMode: rateMode}, nil
}

// Repay pays down facility debt. types.MaxUint256 repays the full outstanding
// debt; otherwise the requested amount must be available on the ledger. The
// ledger is debited by the amount the facility actually applied.
func (m *Manager) Repay(caller types.Account, asset types.Asset, amount sdkmath.Int, rateMode uint64) (types.RepayEvent, error) {
	if err := m.access.Require(caller, types.RoleFundManager); err != nil {
		return types.RepayEvent{}, err
	}
	if err := types.ValidateAmount(amount); err != nil {
		return types.RepayEvent{}, err
	}
	if !amount.Equal(types.MaxUint256) {
		available := m.registry.Get(asset)
		if amount.GT(available) {
			return types.RepayEvent{}, errors.Join(ledger.ErrInsufficientLedgerBalance,
				fmt.Errorf("asset %s: have %s, repaying %s", asset, available, amount))
		}
	}

	applied, err := m.facility.Repay(asset, amount, rateMode, m.fundAccount)
	if err != nil {
		return types.RepayEvent{}, errors.Join(types.ErrCollaborator, err)
	}
	if applied.IsPositive() {
		if err := m.registry.Decrease(asset, applied); err != nil {
			return types.RepayEvent{}, err
		}
	}

	m.logger.Info().
		Str("asset", string(asset)).
		Str("requested", amount.String()).
		Str("applied", applied.String()).
		Msg("Repaid credit facility")
	return types.RepayEvent{Asset: asset, Requested: amount, Applied: applied}, nil
}

// WithdrawSupply reclaims supplied funds from the facility and credits the
// ledger with the amount actually released.
func (m *Manager) WithdrawSupply(caller types.Account, asset types.Asset, amount sdkmath.Int) (types.WithdrawSupplyEvent, error) {
	if err := m.access.Require(caller, types.RoleFundManager); err != nil {
		return types.WithdrawSupplyEvent{}, err
	}
	if err := types.ValidateAmount(amount); err != nil {
		return types.WithdrawSupplyEvent{}, err
	}

	received, err := m.facility.Withdraw(asset, amount, m.fundAccount)
	if err != nil {
		return types.WithdrawSupplyEvent{}, errors.Join(types.ErrCollaborator, err)
	}
	if received.IsPositive() {
		if err := m.registry.Increase(asset, received); err != nil {
			return types.WithdrawSupplyEvent{}, err
		}
	}

	m.logger.Info().
		Str("asset", string(asset)).
		Str("requested", amount.String()).
		Str("received", received.String()).
		Msg("Withdrew supplied funds")
	return types.WithdrawSupplyEvent{Asset: asset, Requested: amount, Received: received}, nil
}

func (m *Manager) assetPrice(asset types.Asset) (sdkmath.Int, error) {
	ref, ok := m.feedRefs[asset]
	if !ok {
		return sdkmath.Int{}, errors.Join(ErrNoFeedForAsset, fmt.Errorf("asset %s", asset))
	}
	return m.oracle.Read(ref)
}
