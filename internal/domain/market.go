package domain

import (
	"github.com/shopspring/decimal"
)

// MarketInfo per-pair exchange metadata snapshot.
type MarketInfo struct {
	Pair Pair
	// MinAmount minimum order quantity in base units.
	MinAmount decimal.Decimal
	// Precision number of decimal places allowed for the order quantity.
	Precision int32
	// Active the pair is open for spot trading.
	Active bool
}

// RoundAmount floors amount to the market precision.
func (m MarketInfo) RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundFloor(m.Precision)
}

// Tradeable reports whether a rounded amount may be submitted.
func (m MarketInfo) Tradeable(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.GreaterThanOrEqual(m.MinAmount)
}

// Markets metadata keyed by canonical symbol.
type Markets map[string]MarketInfo

// Lookup returns market info for the pair.
func (m Markets) Lookup(p Pair) (MarketInfo, bool) {
	info, ok := m[p.Symbol()]
	return info, ok
}

// ActiveSymbols returns the symbols of every active market.
func (m Markets) ActiveSymbols() []string {
	out := make([]string, 0, len(m))
	for symbol, info := range m {
		if info.Active {
			out = append(out, symbol)
		}
	}
	return out
}
