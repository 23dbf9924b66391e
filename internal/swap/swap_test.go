package swap

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/openfund/pfm/internal/access"
	"github.com/openfund/pfm/internal/exchange"
	"github.com/openfund/pfm/internal/ledger"
	"github.com/openfund/pfm/internal/pricefeed"
	"github.com/openfund/pfm/internal/pricing"
	"github.com/openfund/pfm/internal/types"
)

const (
	usdc    = types.Asset("uusdc")
	atom    = types.Asset("uatom")
	manager = types.Account("manager")
	pool    = types.Account("fund-pool")
)

type fixture struct {
	executor *Executor
	registry *ledger.AssetRegistry
	feed     *pricefeed.SimFeed
	poolSim  *pricefeed.SimPool
	venue    *exchange.SimVenue
}

func encodeSqrtPrice(sqrt int64) sdkmath.Int {
	return sdkmath.NewInt(sqrt).Mul(sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 96)))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry := ledger.NewAssetRegistry()
	require.NoError(t, registry.Increase(usdc, sdkmath.NewInt(10_000)))

	roles := access.NewStore(map[types.Account][]types.Role{
		manager: {types.RoleFundManager},
	})

	// Oracle says 9; pool sqrt encoding of 3 squares to 9. Venue pays 9 atom
	// per usdc, consistent with the quoted price.
	feed := pricefeed.NewSimFeed(sdkmath.NewInt(9))
	poolSim := pricefeed.NewSimPool(encodeSqrtPrice(3))
	venue := exchange.NewSimVenue()
	venue.SetRate(string(usdc), string(atom), sdkmath.LegacyNewDec(9))

	executor, err := NewExecutor(Config{
		Registry:    registry,
		Access:      roles,
		Oracle:      pricing.NewOracleAdapter(map[string]pricefeed.PriceFeed{"usdc-atom": feed}),
		Pool:        pricing.NewPoolAdapter(map[string]pricefeed.PoolState{"pool-1": poolSim}),
		Venue:       venue,
		FundAccount: pool,
	})
	require.NoError(t, err)
	return &fixture{executor: executor, registry: registry, feed: feed, poolSim: poolSim, venue: venue}
}

func params(amountIn int64) Params {
	return Params{
		TokenIn:          usdc,
		TokenOut:         atom,
		AmountIn:         sdkmath.NewInt(amountIn),
		AmountOutMinimum: sdkmath.ZeroInt(),
		Fee:              3000,
		SlippageFraction: sdkmath.LegacyNewDecWithPrec(1, 2), // 1%
		PriceFeedRef:     "usdc-atom",
		PoolRef:          "pool-1",
	}
}

func TestSwapCommitsLedger(t *testing.T) {
	f := newFixture(t)

	event, err := f.executor.Swap(manager, params(1000))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), event.AmountIn)
	require.Equal(t, sdkmath.NewInt(9000), event.AmountOut)
	require.Equal(t, sdkmath.NewInt(9000), f.registry.Get(usdc))
	require.Equal(t, sdkmath.NewInt(9000), f.registry.Get(atom))
}

func TestSwapWithoutRoleFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.executor.Swap("intruder", params(1000))
	require.ErrorIs(t, err, access.ErrUnauthorized)
	require.Equal(t, sdkmath.NewInt(10_000), f.registry.Get(usdc))
	require.True(t, f.registry.Get(atom).IsZero())
}

func TestSwapBeyondAvailableFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.executor.Swap(manager, params(10_001))
	require.ErrorIs(t, err, ledger.ErrInsufficientLedgerBalance)
	require.Equal(t, sdkmath.NewInt(10_000), f.registry.Get(usdc))
}

func TestSwapNonPositiveOraclePriceFails(t *testing.T) {
	f := newFixture(t)
	f.feed.SetPrice(sdkmath.ZeroInt())

	_, err := f.executor.Swap(manager, params(1000))
	require.ErrorIs(t, err, pricing.ErrInvalidPriceData)
	require.Equal(t, sdkmath.NewInt(10_000), f.registry.Get(usdc))
}

func TestSwapOutsideBandFails(t *testing.T) {
	f := newFixture(t)
	// Pool price 16 against oracle 9 is far outside a 1% band.
	f.poolSim.State.SqrtPriceEncoded = encodeSqrtPrice(4)

	_, err := f.executor.Swap(manager, params(1000))
	require.ErrorIs(t, err, ErrPriceDeviation)
	require.Equal(t, sdkmath.NewInt(10_000), f.registry.Get(usdc))
	require.True(t, f.registry.Get(atom).IsZero())
}

func TestSwapBandEdgesInclusive(t *testing.T) {
	f := newFixture(t)
	// Oracle 100 with 4% slippage: band [96, 104]. Pool sqrt encodings land on
	// exact squares, so probe with 100 -> pool 100 then widen the oracle so the
	// pool sits exactly on a bound.
	f.poolSim.State.SqrtPriceEncoded = encodeSqrtPrice(10) // pool price 100

	p := params(1000)
	p.SlippageFraction = sdkmath.LegacyNewDecWithPrec(4, 2)

	// Upper edge: oracle*(1+s) == pool exactly (96.153... would not divide
	// evenly, so use oracle 96 and slippage such that 96*(1+1/24) is not an
	// integer; instead check 100 inside, then both exact bounds).
	f.feed.SetPrice(sdkmath.NewInt(100))
	_, err := f.executor.Swap(manager, p)
	require.NoError(t, err)

	// Lower edge: pool == oracle*(1-s): oracle 125, s 0.2 -> lower bound 100.
	p.SlippageFraction = sdkmath.LegacyNewDecWithPrec(2, 1)
	f.feed.SetPrice(sdkmath.NewInt(125))
	_, err = f.executor.Swap(manager, p)
	require.NoError(t, err)

	// Upper edge: pool == oracle*(1+s): oracle 80, s 0.25 -> upper bound 100.
	p.SlippageFraction = sdkmath.LegacyNewDecWithPrec(25, 2)
	f.feed.SetPrice(sdkmath.NewInt(80))
	_, err = f.executor.Swap(manager, p)
	require.NoError(t, err)

	// Just past the upper bound fails.
	p.SlippageFraction = sdkmath.LegacyNewDecWithPrec(24, 2)
	_, err = f.executor.Swap(manager, p)
	require.ErrorIs(t, err, ErrPriceDeviation)
}

func TestSwapVenueFailureLeavesLedger(t *testing.T) {
	f := newFixture(t)

	p := params(1000)
	p.AmountOutMinimum = sdkmath.NewInt(9_001) // venue pays 9000

	_, err := f.executor.Swap(manager, p)
	require.ErrorIs(t, err, types.ErrCollaborator)
	require.ErrorIs(t, err, exchange.ErrOutputBelowMinimum)
	require.Equal(t, sdkmath.NewInt(10_000), f.registry.Get(usdc))
	require.True(t, f.registry.Get(atom).IsZero())
}

func TestSwapInvalidSlippageFails(t *testing.T) {
	f := newFixture(t)

	p := params(1000)
	p.SlippageFraction = sdkmath.LegacyDec{}
	_, err := f.executor.Swap(manager, p)
	require.ErrorIs(t, err, ErrInvalidSlippage)

	p.SlippageFraction = sdkmath.LegacyNewDec(-1)
	_, err = f.executor.Swap(manager, p)
	require.ErrorIs(t, err, ErrInvalidSlippage)
}
