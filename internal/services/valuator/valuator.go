// Package valuator prices account holdings in quote currency terms.
package valuator

import (
	"context"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rebalancer/internal/domain"
)

type pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (domain.Ticker, error)
}

// Valuator values balances using tickers fetched at call time.
type Valuator struct {
	l       *zap.Logger
	pricer  pricer
	quote   string
	stables map[string]struct{}
	dust    decimal.Decimal
}

// NewValuator creates a new Valuator. Holdings worth less than dust are
// ignored account-wide; a negative dust is treated as zero.
func NewValuator(l *zap.Logger, pricer pricer, quote string, stables []string, dust decimal.Decimal) *Valuator {
	if l == nil {
		l = zap.NewNop()
	}
	if dust.IsNegative() {
		dust = decimal.Zero
	}
	set := make(map[string]struct{}, len(stables))
	for _, s := range stables {
		set[strings.ToUpper(s)] = struct{}{}
	}
	return &Valuator{
		l:       l,
		pricer:  pricer,
		quote:   strings.ToUpper(quote),
		stables: set,
		dust:    dust,
	}
}

// Dust returns the dust threshold.
func (v *Valuator) Dust() decimal.Decimal {
	return v.dust
}

// IsStable reports whether asset is in the stable exclusion set.
func (v *Valuator) IsStable(asset string) bool {
	_, ok := v.stables[asset]
	return ok
}

// Price fetches the ticker of asset against the quote currency.
func (v *Valuator) Price(ctx context.Context, asset string) (domain.Ticker, error) {
	return v.pricer.GetPrice(ctx, domain.NewPair(asset, v.quote))
}

// ValuePortfolio prices every universe asset with a positive total balance.
// A pricing failure excludes that asset and is logged; it never aborts.
func (v *Valuator) ValuePortfolio(ctx context.Context, balance domain.Balance, universe domain.Universe) domain.Valuation {
	valuation := domain.NewValuation()

	for _, pair := range universe {
		amount := balance.Total(pair.From)
		if !amount.IsPositive() {
			continue
		}

		ticker, err := v.pricer.GetPrice(ctx, pair)
		if err != nil {
			v.l.Warn("could not fetch price, asset excluded from valuation",
				zap.String("pair", pair.String()), zap.Error(err))
			continue
		}

		valuation.Add(domain.NewPosition(pair.From, amount, ticker.Last))
	}

	return valuation
}

// EffectiveCapital values the whole account: free quote balance plus every
// non-quote, non-stable asset worth at least the dust threshold. The returned
// valuation holds the priced non-quote positions.
func (v *Valuator) EffectiveCapital(ctx context.Context, balance domain.Balance) (domain.Valuation, decimal.Decimal) {
	valuation := domain.NewValuation()

	for _, asset := range sortedAssets(balance) {
		if asset == v.quote || v.IsStable(asset) {
			continue
		}
		amount := balance.Total(asset)
		if !amount.IsPositive() {
			continue
		}

		ticker, err := v.Price(ctx, asset)
		if err != nil {
			v.l.Warn("error pricing asset", zap.String("asset", asset), zap.Error(err))
			continue
		}

		position := domain.NewPosition(asset, amount, ticker.Last)
		if position.Value.LessThan(v.dust) {
			v.l.Debug("ignoring dust balance",
				zap.String("asset", asset), zap.String("value", position.Value.StringFixed(2)))
			continue
		}
		valuation.Add(position)
	}

	return valuation, valuation.Total.Add(balance.Free(v.quote))
}

func sortedAssets(balance domain.Balance) []string {
	assets := lo.Keys(balance.Holdings)
	sort.Strings(assets)
	return assets
}
