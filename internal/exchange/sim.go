package exchange

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for the simulated venue
var (
	ErrOutputBelowMinimum = errors.New("realized output below requested minimum")
	ErrNoQuote            = errors.New("venue has no quote for pair")
)

// SimVenue is a deterministic trading venue quoting fixed pair rates.
// Output is floor(amountIn * rate) with the rate expressed as a LegacyDec.
type SimVenue struct {
	rates map[string]sdkmath.LegacyDec
	// Err, when set, fails every swap. Useful for scripting venue outages.
	Err error
}

// NewSimVenue creates a venue with no quotes.
func NewSimVenue() *SimVenue {
	return &SimVenue{rates: make(map[string]sdkmath.LegacyDec)}
}

// SetRate quotes tokenOut per tokenIn for one direction of a pair.
func (v *SimVenue) SetRate(tokenIn, tokenOut string, rate sdkmath.LegacyDec) {
	v.rates[tokenIn+"/"+tokenOut] = rate
}

func (v *SimVenue) Swap(order Order) (sdkmath.Int, error) {
	if v.Err != nil {
		return sdkmath.Int{}, v.Err
	}
	rate, ok := v.rates[string(order.TokenIn)+"/"+string(order.TokenOut)]
	if !ok {
		return sdkmath.Int{}, errors.Join(ErrNoQuote,
			fmt.Errorf("%s -> %s", order.TokenIn, order.TokenOut))
	}
	amountOut := rate.MulInt(order.AmountIn).TruncateInt()
	if !order.AmountOutMinimum.IsNil() && amountOut.LT(order.AmountOutMinimum) {
		return sdkmath.Int{}, errors.Join(ErrOutputBelowMinimum,
			fmt.Errorf("realized %s, minimum %s", amountOut, order.AmountOutMinimum))
	}
	return amountOut, nil
}
