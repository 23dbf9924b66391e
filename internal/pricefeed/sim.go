package pricefeed

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/openfund/pfm/internal/types"
)

// SimFeed is a deterministic in-memory price feed. Set Price (and optionally
// Err) to script the next reading.
type SimFeed struct {
	Round types.PriceRound
	Err   error
}

// NewSimFeed creates a feed answering with the given price.
func NewSimFeed(price sdkmath.Int) *SimFeed {
	now := time.Now().Unix()
	return &SimFeed{
		Round: types.PriceRound{
			RoundID:         1,
			Price:           price,
			StartedAt:       now,
			UpdatedAt:       now,
			AnsweredInRound: 1,
		},
	}
}

// SetPrice advances the feed to a new round with the given price.
func (f *SimFeed) SetPrice(price sdkmath.Int) {
	f.Round.RoundID++
	f.Round.AnsweredInRound = f.Round.RoundID
	f.Round.Price = price
	f.Round.UpdatedAt = time.Now().Unix()
}

func (f *SimFeed) LatestPrice() (types.PriceRound, error) {
	if f.Err != nil {
		return types.PriceRound{}, f.Err
	}
	return f.Round, nil
}

// SimPool is a deterministic in-memory pool-state source.
type SimPool struct {
	State types.SpotState
	Err   error
}

// NewSimPool creates a pool snapshot with the given sqrt-price encoding.
func NewSimPool(sqrtPriceEncoded sdkmath.Int) *SimPool {
	return &SimPool{State: types.SpotState{SqrtPriceEncoded: sqrtPriceEncoded}}
}

func (p *SimPool) SpotState() (types.SpotState, error) {
	if p.Err != nil {
		return types.SpotState{}, p.Err
	}
	return p.State, nil
}
