/*

The swap package executes trades of fund-held assets against the exchange
venue, guarded by a price-consistency check: the pool's spot price must sit
inside the oracle price's slippage band before any funds move.

*/

package swap

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/openfund/pfm/internal/access"
	"github.com/openfund/pfm/internal/exchange"
	"github.com/openfund/pfm/internal/ledger"
	"github.com/openfund/pfm/internal/logger"
	"github.com/openfund/pfm/internal/pricing"
	"github.com/openfund/pfm/internal/types"
)

// Error definitions for guarded trade execution
var (
	ErrPriceDeviation  = errors.New("pool price outside oracle slippage band")
	ErrInvalidSlippage = errors.New("slippage fraction is invalid")
	ErrInvalidDeadline = errors.New("deadline is invalid")
)

// defaultDeadlineWindow bounds how long a submitted order stays valid when the
// caller does not pick a deadline.
const defaultDeadlineWindow = 5 * time.Minute

// Params describes one guarded trade.
type Params struct {
	TokenIn          types.Asset
	TokenOut         types.Asset
	AmountIn         sdkmath.Int
	AmountOutMinimum sdkmath.Int
	Fee              uint32
	// SlippageFraction is the tolerated pool/oracle deviation, e.g. 0.01 for 1%.
	SlippageFraction sdkmath.LegacyDec
	PriceFeedRef     string
	PoolRef          string
	// Deadline is a unix timestamp; zero defaults to now plus a short window.
	Deadline int64
}

// Executor runs guarded swaps for FundManager operators.
type Executor struct {
	registry    *ledger.AssetRegistry
	access      *access.Store
	oracle      *pricing.OracleAdapter
	pool        *pricing.PoolAdapter
	venue       exchange.Venue
	fundAccount types.Account

	logger zerolog.Logger
}

// Config holds the dependencies for creating a swap executor.
type Config struct {
	Registry    *ledger.AssetRegistry
	Access      *access.Store
	Oracle      *pricing.OracleAdapter
	Pool        *pricing.PoolAdapter
	Venue       exchange.Venue
	FundAccount types.Account
}

// NewExecutor creates a swap executor.
func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("asset registry cannot be nil")
	}
	if cfg.Access == nil {
		return nil, fmt.Errorf("access store cannot be nil")
	}
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("oracle adapter cannot be nil")
	}
	if cfg.Pool == nil {
		return nil, fmt.Errorf("pool adapter cannot be nil")
	}
	if cfg.Venue == nil {
		return nil, fmt.Errorf("exchange venue cannot be nil")
	}
	if cfg.FundAccount == "" {
		return nil, fmt.Errorf("fund account cannot be empty")
	}
	return &Executor{
		registry:    cfg.Registry,
		access:      cfg.Access,
		oracle:      cfg.Oracle,
		pool:        cfg.Pool,
		venue:       cfg.Venue,
		fundAccount: cfg.FundAccount,
		logger:      logger.GetForComponent("swap_executor"),
	}, nil
}

// Swap validates, price-checks and executes one trade. Any failure before the
// venue call, and any venue failure, leaves the ledger untouched; the ledger
// is committed only after the venue reports the realized output.
func (e *Executor) Swap(caller types.Account, p Params) (types.SwapEvent, error) {
	if err := e.access.Require(caller, types.RoleFundManager); err != nil {
		return types.SwapEvent{}, err
	}
	if err := types.ValidateAmount(p.AmountIn); err != nil {
		return types.SwapEvent{}, err
	}
	if p.SlippageFraction.IsNil() || p.SlippageFraction.IsNegative() {
		return types.SwapEvent{}, errors.Join(ErrInvalidSlippage,
			fmt.Errorf("fraction %s", p.SlippageFraction))
	}
	if p.Deadline < 0 {
		return types.SwapEvent{}, errors.Join(ErrInvalidDeadline,
			fmt.Errorf("deadline %d", p.Deadline))
	}

	available := e.registry.Get(p.TokenIn)
	if p.AmountIn.GT(available) {
		return types.SwapEvent{}, errors.Join(ledger.ErrInsufficientLedgerBalance,
			fmt.Errorf("asset %s: have %s, swapping %s", p.TokenIn, available, p.AmountIn))
	}

	oraclePrice, err := e.oracle.Read(p.PriceFeedRef)
	if err != nil {
		return types.SwapEvent{}, err
	}
	poolPrice, err := e.pool.Read(p.PoolRef)
	if err != nil {
		return types.SwapEvent{}, err
	}
	if err := checkBand(oraclePrice, poolPrice, p.SlippageFraction); err != nil {
		return types.SwapEvent{}, err
	}

	deadline := p.Deadline
	if deadline == 0 {
		deadline = time.Now().Add(defaultDeadlineWindow).Unix()
	}
	amountOut, err := e.venue.Swap(exchange.Order{
		TokenIn:          p.TokenIn,
		TokenOut:         p.TokenOut,
		Fee:              p.Fee,
		Recipient:        e.fundAccount,
		Deadline:         deadline,
		AmountIn:         p.AmountIn,
		AmountOutMinimum: p.AmountOutMinimum,
		PriceLimit:       sdkmath.ZeroInt(),
	})
	if err != nil {
		return types.SwapEvent{}, errors.Join(types.ErrCollaborator, err)
	}

	if err := e.registry.Decrease(p.TokenIn, p.AmountIn); err != nil {
		return types.SwapEvent{}, err
	}
	if amountOut.IsPositive() {
		if err := e.registry.Increase(p.TokenOut, amountOut); err != nil {
			return types.SwapEvent{}, err
		}
	}

	event := types.SwapEvent{
		TokenIn:   p.TokenIn,
		TokenOut:  p.TokenOut,
		AmountIn:  p.AmountIn,
		AmountOut: amountOut,
	}
	e.logger.Info().
		Str("tokenIn", string(p.TokenIn)).
		Str("tokenOut", string(p.TokenOut)).
		Str("amountIn", p.AmountIn.String()).
		Str("amountOut", amountOut.String()).
		Str("oraclePrice", oraclePrice.String()).
		Str("poolPrice", poolPrice.String()).
		Msg("Swap committed")
	return event, nil
}

// checkBand fails ErrPriceDeviation unless
// oracle*(1-slippage) <= pool <= oracle*(1+slippage), both bounds inclusive.
func checkBand(oraclePrice, poolPrice sdkmath.Int, slippage sdkmath.LegacyDec) error {
	oracleDec := sdkmath.LegacyNewDecFromInt(oraclePrice)
	poolDec := sdkmath.LegacyNewDecFromInt(poolPrice)
	one := sdkmath.LegacyOneDec()

	lower := oracleDec.Mul(one.Sub(slippage))
	upper := oracleDec.Mul(one.Add(slippage))
	if poolDec.LT(lower) || poolDec.GT(upper) {
		return errors.Join(ErrPriceDeviation,
			fmt.Errorf("pool %s outside [%s, %s]", poolDec, lower, upper))
	}
	return nil
}
