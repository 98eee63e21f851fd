package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding free and total quantity of one asset.
type Holding struct {
	Free  decimal.Decimal
	Total decimal.Decimal
}

// Balance account snapshot. It is never cached between decisions; callers
// fetch a new one whenever sizing depends on it.
type Balance struct {
	Holdings  map[string]Holding
	FetchedAt time.Time
}

// NewBalance creates a snapshot stamped with ts.
func NewBalance(holdings map[string]Holding, ts time.Time) Balance {
	if holdings == nil {
		holdings = make(map[string]Holding)
	}
	return Balance{Holdings: holdings, FetchedAt: ts}
}

// Free returns the free quantity of asset.
func (b Balance) Free(asset string) decimal.Decimal {
	return b.Holdings[asset].Free
}

// Total returns the total (free + locked) quantity of asset.
func (b Balance) Total(asset string) decimal.Decimal {
	return b.Holdings[asset].Total
}

// Ticker last traded price of a pair at fetch time.
type Ticker struct {
	Pair      Pair
	Last      decimal.Decimal
	FetchedAt time.Time
}
