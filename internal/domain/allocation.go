package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Allocation target versus current value of one pair.
type Allocation struct {
	Pair    Pair
	Target  decimal.Decimal
	Current decimal.Decimal
	// Delta target minus current; positive buys, negative sells.
	Delta  decimal.Decimal
	Price  decimal.Decimal
	Action Action
}

// String returns a human-readable string representation.
func (a Allocation) String() string {
	return fmt.Sprintf("%s %s target: %s current: %s delta: %s",
		a.Pair.String(), a.Action.String(), a.Target.StringFixed(2), a.Current.StringFixed(2), a.Delta.StringFixed(2))
}

// AllocationPlan per-pair targets for one run.
type AllocationPlan struct {
	Capital     decimal.Decimal
	PerPair     decimal.Decimal
	Allocations []Allocation
}

// TotalTarget sums the per-pair targets.
func (p AllocationPlan) TotalTarget() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range p.Allocations {
		sum = sum.Add(a.Target)
	}
	return sum
}

// Actionable returns allocations that need an order.
func (p AllocationPlan) Actionable() []Allocation {
	var out []Allocation
	for _, a := range p.Allocations {
		if a.Action != ActionHold {
			out = append(out, a)
		}
	}
	return out
}
