package domain

import "github.com/shopspring/decimal"

// Position priced holding of one asset, in quote currency terms.
type Position struct {
	Asset  string
	Amount decimal.Decimal
	Price  decimal.Decimal
	Value  decimal.Decimal
}

// NewPosition prices amount at price.
func NewPosition(asset string, amount, price decimal.Decimal) Position {
	return Position{
		Asset:  asset,
		Amount: amount,
		Price:  price,
		Value:  amount.Mul(price),
	}
}

// Valuation priced holdings plus their sum.
type Valuation struct {
	Positions map[string]Position
	Total     decimal.Decimal
}

// NewValuation creates an empty valuation.
func NewValuation() Valuation {
	return Valuation{Positions: make(map[string]Position), Total: decimal.Zero}
}

// Add records a position and adds its value to the total.
func (v *Valuation) Add(p Position) {
	v.Positions[p.Asset] = p
	v.Total = v.Total.Add(p.Value)
}
