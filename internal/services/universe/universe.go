// Package universe selects the target set of pairs for a run.
package universe

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/vadiminshakov/rebalancer/internal/domain"
)

// Select intersects the market-cap ranking with the exchange's tradeable
// pairs. Ranking order is preserved: the result is the first maxSize ranked
// symbols whose SYMBOL+QUOTE pair is tradeable. Stable assets are excluded on
// both sides so stable/stable pairs never enter the universe.
func Select(ranked, tradeable, stable []string, quote string, maxSize int) (domain.Universe, error) {
	if maxSize <= 0 {
		return nil, errors.Wrapf(domain.ErrInvalidConfig, "universe size cap must be positive, got %d", maxSize)
	}
	quote = strings.ToUpper(quote)
	if quote == "" {
		return nil, errors.Wrap(domain.ErrInvalidConfig, "quote currency is empty")
	}

	stables := lo.SliceToMap(stable, func(s string) (string, struct{}) {
		return strings.ToUpper(s), struct{}{}
	})
	isStable := func(s string) bool {
		_, ok := stables[s]
		return ok
	}

	pairs := make(map[string]struct{}, len(tradeable))
	for _, symbol := range tradeable {
		symbol = strings.ToUpper(symbol)
		base, ok := strings.CutSuffix(symbol, quote)
		if !ok || base == "" || isStable(base) {
			continue
		}
		pairs[symbol] = struct{}{}
	}

	symbols := lo.Uniq(lo.Map(ranked, func(s string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(s))
	}))
	symbols = lo.Reject(symbols, func(s string, _ int) bool {
		return s == "" || isStable(s)
	})

	selected := make(domain.Universe, 0, maxSize)
	for _, symbol := range symbols {
		if _, ok := pairs[symbol+quote]; !ok {
			continue
		}
		selected = append(selected, domain.NewPair(symbol, quote))
		if len(selected) >= maxSize {
			break
		}
	}

	if len(selected) == 0 {
		return nil, domain.ErrEmptyUniverse
	}

	return selected, nil
}
