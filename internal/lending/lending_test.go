package lending

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/openfund/pfm/internal/access"
	"github.com/openfund/pfm/internal/credit"
	"github.com/openfund/pfm/internal/ledger"
	"github.com/openfund/pfm/internal/pricefeed"
	"github.com/openfund/pfm/internal/pricing"
	"github.com/openfund/pfm/internal/types"
)

const (
	usdc    = types.Asset("uusdc")
	manager = types.Account("manager")
	pool    = types.Account("fund-pool")
)

type fixture struct {
	manager  *Manager
	registry *ledger.AssetRegistry
	facility *credit.SimFacility
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry := ledger.NewAssetRegistry()
	require.NoError(t, registry.Increase(usdc, sdkmath.NewInt(1000)))

	roles := access.NewStore(map[types.Account][]types.Role{
		manager: {types.RoleFundManager},
	})
	// Unit price 1 and full loan-to-value keep the scenario arithmetic direct.
	facility := credit.NewSimFacility(
		map[types.Asset]sdkmath.Int{usdc: sdkmath.NewInt(1)},
		sdkmath.LegacyOneDec(),
	)
	oracle := pricing.NewOracleAdapter(map[string]pricefeed.PriceFeed{
		"usdc": pricefeed.NewSimFeed(sdkmath.NewInt(1)),
	})

	lendingManager, err := NewManager(Config{
		Registry:    registry,
		Access:      roles,
		Facility:    facility,
		Oracle:      oracle,
		FeedRefs:    map[types.Asset]string{usdc: "usdc"},
		FundAccount: pool,
	})
	require.NoError(t, err)
	return &fixture{manager: lendingManager, registry: registry, facility: facility}
}

func TestSupplyMovesLedgerIntoFacility(t *testing.T) {
	f := newFixture(t)

	event, err := f.manager.Supply(manager, usdc, sdkmath.NewInt(600))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(600), event.Amount)
	require.Equal(t, sdkmath.NewInt(400), f.registry.Get(usdc))
	require.Equal(t, sdkmath.NewInt(600), f.facility.Supplied(usdc))
}

func TestSupplyBeyondLedgerFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Supply(manager, usdc, sdkmath.NewInt(1001))
	require.ErrorIs(t, err, ledger.ErrInsufficientLedgerBalance)
	require.Equal(t, sdkmath.NewInt(1000), f.registry.Get(usdc))
	require.True(t, f.facility.Supplied(usdc).IsZero())
}

func TestLendingOpsRequireFundManager(t *testing.T) {
	f := newFixture(t)
	amount := sdkmath.NewInt(100)

	_, err := f.manager.Supply("intruder", usdc, amount)
	require.ErrorIs(t, err, access.ErrUnauthorized)
	_, err = f.manager.EnableCollateral("intruder", usdc)
	require.ErrorIs(t, err, access.ErrUnauthorized)
	_, err = f.manager.Borrow("intruder", usdc, amount, 2)
	require.ErrorIs(t, err, access.ErrUnauthorized)
	_, err = f.manager.Repay("intruder", usdc, amount, 2)
	require.ErrorIs(t, err, access.ErrUnauthorized)
	_, err = f.manager.WithdrawSupply("intruder", usdc, amount)
	require.ErrorIs(t, err, access.ErrUnauthorized)

	require.Equal(t, sdkmath.NewInt(1000), f.registry.Get(usdc))
}

func TestBorrowBeforeCollateralFailsAtFacility(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Supply(manager, usdc, sdkmath.NewInt(1000))
	require.NoError(t, err)

	_, err = f.manager.Borrow(manager, usdc, sdkmath.NewInt(500), 2)
	require.ErrorIs(t, err, types.ErrCollaborator)
	require.ErrorIs(t, err, credit.ErrInsufficientCollateral)
	require.True(t, f.registry.Get(usdc).IsZero())
	require.True(t, f.facility.Debt(usdc).IsZero())
}

func TestFullLendingLifecycle(t *testing.T) {
	f := newFixture(t)

	// Supply the whole ledger balance, enable it as collateral, borrow it back.
	_, err := f.manager.Supply(manager, usdc, sdkmath.NewInt(1000))
	require.NoError(t, err)
	require.True(t, f.registry.Get(usdc).IsZero())

	_, err = f.manager.EnableCollateral(manager, usdc)
	require.NoError(t, err)

	borrow, err := f.manager.Borrow(manager, usdc, sdkmath.NewInt(1000), 2)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), borrow.Amount)
	require.Equal(t, sdkmath.NewInt(1000), f.registry.Get(usdc))
	require.Equal(t, sdkmath.NewInt(1000), f.facility.Debt(usdc))

	repay, err := f.manager.Repay(manager, usdc, sdkmath.NewInt(1000), 2)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), repay.Applied)
	require.True(t, f.registry.Get(usdc).IsZero())
	require.True(t, f.facility.Debt(usdc).IsZero())
	require.Equal(t, sdkmath.NewInt(1000), f.facility.Supplied(usdc))
}

func TestBorrowBeyondCapacityFailsLocally(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Supply(manager, usdc, sdkmath.NewInt(500))
	require.NoError(t, err)
	_, err = f.manager.EnableCollateral(manager, usdc)
	require.NoError(t, err)

	_, err = f.manager.Borrow(manager, usdc, sdkmath.NewInt(501), 2)
	require.ErrorIs(t, err, ErrInsufficientBorrowingPower)
	require.True(t, f.facility.Debt(usdc).IsZero())
	require.Equal(t, sdkmath.NewInt(500), f.registry.Get(usdc))
}

func TestRepayClampsToOutstandingDebt(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Supply(manager, usdc, sdkmath.NewInt(1000))
	require.NoError(t, err)
	_, err = f.manager.EnableCollateral(manager, usdc)
	require.NoError(t, err)
	_, err = f.manager.Borrow(manager, usdc, sdkmath.NewInt(400), 2)
	require.NoError(t, err)

	repay, err := f.manager.Repay(manager, usdc, sdkmath.NewInt(300), 2)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(300), repay.Applied)
	require.Equal(t, sdkmath.NewInt(100), f.registry.Get(usdc))
	require.Equal(t, sdkmath.NewInt(100), f.facility.Debt(usdc))

	// Sentinel repay clears the remaining debt and debits only what was applied.
	repay, err = f.manager.Repay(manager, usdc, types.MaxUint256, 2)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(100), repay.Applied)
	require.True(t, f.registry.Get(usdc).IsZero())
	require.True(t, f.facility.Debt(usdc).IsZero())
}

func TestRepayShortfallFailsBeforeFacility(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Supply(manager, usdc, sdkmath.NewInt(1000))
	require.NoError(t, err)
	_, err = f.manager.EnableCollateral(manager, usdc)
	require.NoError(t, err)
	_, err = f.manager.Borrow(manager, usdc, sdkmath.NewInt(400), 2)
	require.NoError(t, err)

	_, err = f.manager.Repay(manager, usdc, sdkmath.NewInt(401), 2)
	require.ErrorIs(t, err, ledger.ErrInsufficientLedgerBalance)
	require.Equal(t, sdkmath.NewInt(400), f.facility.Debt(usdc))
}

func TestWithdrawSupplyCreditsActualRelease(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Supply(manager, usdc, sdkmath.NewInt(800))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(200), f.registry.Get(usdc))

	event, err := f.manager.WithdrawSupply(manager, usdc, sdkmath.NewInt(500))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(500), event.Received)
	require.Equal(t, sdkmath.NewInt(700), f.registry.Get(usdc))
	require.Equal(t, sdkmath.NewInt(300), f.facility.Supplied(usdc))

	// Sentinel withdraws everything still supplied.
	event, err = f.manager.WithdrawSupply(manager, usdc, types.MaxUint256)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(300), event.Received)
	require.Equal(t, sdkmath.NewInt(1000), f.registry.Get(usdc))
	require.True(t, f.facility.Supplied(usdc).IsZero())
}

func TestWithdrawSupplyBeyondSuppliedFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Supply(manager, usdc, sdkmath.NewInt(100))
	require.NoError(t, err)

	_, err = f.manager.WithdrawSupply(manager, usdc, sdkmath.NewInt(101))
	require.ErrorIs(t, err, types.ErrCollaborator)
	require.ErrorIs(t, err, credit.ErrInsufficientBalance)
	require.Equal(t, sdkmath.NewInt(900), f.registry.Get(usdc))
}
