// Package planner computes equal-weight targets and per-pair deltas.
package planner

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/rebalancer/internal/domain"
)

// Planner turns capital and holdings into an allocation plan.
type Planner struct {
	minAbsolute   decimal.Decimal
	noiseFraction decimal.Decimal
}

// NewPlanner creates a Planner. minAbsolute is the smallest delta, in quote
// units, worth an order; noiseFraction is the smallest delta relative to the
// per-pair target. A negative fraction is treated as zero.
func NewPlanner(minAbsolute, noiseFraction decimal.Decimal) *Planner {
	if noiseFraction.IsNegative() {
		noiseFraction = decimal.Zero
	}
	return &Planner{minAbsolute: minAbsolute, noiseFraction: noiseFraction}
}

// Threshold returns the minimum |delta| that produces an order for target.
func (p *Planner) Threshold(target decimal.Decimal) decimal.Decimal {
	return decimal.Max(p.minAbsolute, target.Mul(p.noiseFraction))
}

// PerPair returns the equal-weight target of one pair.
func (p *Planner) PerPair(capital decimal.Decimal, universe domain.Universe) (decimal.Decimal, error) {
	if len(universe) == 0 {
		return decimal.Zero, domain.ErrEmptyUniverse
	}
	if capital.IsNegative() {
		return decimal.Zero, errors.Errorf("capital must not be negative, got %s", capital.String())
	}
	return capital.Div(decimal.NewFromInt(int64(len(universe)))), nil
}

// Plan computes target value and delta for every universe pair. Positions
// are keyed by base asset; a missing position counts as zero holdings.
// Targets sum exactly to capital: the last pair absorbs the division remainder.
func (p *Planner) Plan(capital decimal.Decimal, universe domain.Universe, positions map[string]domain.Position) (domain.AllocationPlan, error) {
	perPair, err := p.PerPair(capital, universe)
	if err != nil {
		return domain.AllocationPlan{}, err
	}

	plan := domain.AllocationPlan{
		Capital:     capital,
		PerPair:     perPair,
		Allocations: make([]domain.Allocation, 0, len(universe)),
	}

	assigned := decimal.Zero
	for i, pair := range universe {
		target := perPair
		if i == len(universe)-1 {
			target = capital.Sub(assigned)
		}
		assigned = assigned.Add(target)

		plan.Allocations = append(plan.Allocations, p.Allocate(target, pair, positions[pair.From]))
	}

	return plan, nil
}

// Allocate computes the delta of a single pair against target.
func (p *Planner) Allocate(target decimal.Decimal, pair domain.Pair, position domain.Position) domain.Allocation {
	delta := target.Sub(position.Value)

	action := domain.ActionHold
	switch {
	case delta.Abs().LessThan(p.Threshold(target)):
	case delta.IsPositive():
		action = domain.ActionBuy
	case delta.IsNegative():
		action = domain.ActionSell
	}

	return domain.Allocation{
		Pair:    pair,
		Target:  target,
		Current: position.Value,
		Delta:   delta,
		Price:   position.Price,
		Action:  action,
	}
}

// PlanLiquidations plans a full exit of every position as a sell of its
// whole value, independent of the equal-weight target. Output is ordered by
// descending value so the largest holdings free capital first.
func (p *Planner) PlanLiquidations(quote string, positions []domain.Position) []domain.Allocation {
	sorted := make([]domain.Position, len(positions))
	copy(sorted, positions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value.GreaterThan(sorted[j].Value)
	})

	out := make([]domain.Allocation, 0, len(sorted))
	for _, pos := range sorted {
		out = append(out, domain.Allocation{
			Pair:    domain.NewPair(pos.Asset, quote),
			Target:  decimal.Zero,
			Current: pos.Value,
			Delta:   pos.Value.Neg(),
			Price:   pos.Price,
			Action:  domain.ActionSell,
		})
	}
	return out
}
