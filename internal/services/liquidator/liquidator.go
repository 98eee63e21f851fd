// Package liquidator exits holdings that fall outside the target universe.
package liquidator

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rebalancer/internal/domain"
	"github.com/vadiminshakov/rebalancer/internal/services/planner"
)

type balanceFetcher interface {
	GetBalances(ctx context.Context) (domain.Balance, error)
}

type valuer interface {
	Price(ctx context.Context, asset string) (domain.Ticker, error)
	Dust() decimal.Decimal
	IsStable(asset string) bool
}

type orderExecutor interface {
	Execute(ctx context.Context, intent domain.OrderIntent, market domain.MarketInfo, budget decimal.NullDecimal) *domain.Order
}

// Liquidator sells every non-universe holding worth more than dust.
type Liquidator struct {
	l        *zap.Logger
	quote    string
	balances balanceFetcher
	valuer   valuer
	planner  *planner.Planner
	executor orderExecutor
}

// NewLiquidator creates a new Liquidator.
func NewLiquidator(l *zap.Logger, quote string, balances balanceFetcher, valuer valuer, p *planner.Planner, executor orderExecutor) *Liquidator {
	if l == nil {
		l = zap.NewNop()
	}
	return &Liquidator{
		l:        l,
		quote:    quote,
		balances: balances,
		valuer:   valuer,
		planner:  p,
		executor: executor,
	}
}

// Candidates returns the positions to exit, ordered by asset name. An asset
// qualifies when it is neither the quote nor stable, has no universe pair,
// trades against the quote on an active market and its free balance is worth
// at least the dust threshold.
func (lq *Liquidator) Candidates(ctx context.Context, balance domain.Balance, universe domain.Universe, markets domain.Markets) []domain.Position {
	assets := lo.Keys(balance.Holdings)
	sort.Strings(assets)

	var out []domain.Position
	for _, asset := range assets {
		if asset == lq.quote || lq.valuer.IsStable(asset) || universe.Contains(asset) {
			continue
		}
		free := balance.Free(asset)
		if !free.IsPositive() {
			continue
		}
		market, ok := markets.Lookup(domain.NewPair(asset, lq.quote))
		if !ok || !market.Active {
			lq.l.Debug("no active market to liquidate asset", zap.String("asset", asset))
			continue
		}

		ticker, err := lq.valuer.Price(ctx, asset)
		if err != nil {
			lq.l.Warn("skip liquidation candidate: pricing failed", zap.String("asset", asset), zap.Error(err))
			continue
		}

		position := domain.NewPosition(asset, free, ticker.Last)
		if position.Value.LessThan(lq.valuer.Dust()) {
			continue
		}
		out = append(out, position)
	}

	return out
}

// Liquidate sells every candidate. Balances are fetched again right before
// each sell, and the sell amount is the free balance at that moment.
// Per-order outcomes are recorded on the returned orders; only the initial
// balance snapshot failing is an error.
func (lq *Liquidator) Liquidate(ctx context.Context, universe domain.Universe, markets domain.Markets) ([]*domain.Order, error) {
	balance, err := lq.balances.GetBalances(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch balances for liquidation")
	}

	candidates := lq.Candidates(ctx, balance, universe, markets)
	if len(candidates) == 0 {
		lq.l.Info("nothing to liquidate")
		return nil, nil
	}

	deltas := lq.planner.PlanLiquidations(lq.quote, candidates)
	lq.l.Info("liquidating holdings outside the universe", zap.Int("count", len(deltas)))

	orders := make([]*domain.Order, 0, len(deltas))
	for _, alloc := range deltas {
		intent := domain.OrderIntent{
			Phase:  domain.PhaseLiquidation,
			Pair:   alloc.Pair,
			Action: domain.ActionSell,
			Price:  alloc.Price,
		}

		fresh, err := lq.balances.GetBalances(ctx)
		if err != nil {
			order := domain.NewOrder(intent)
			order.State = domain.OrderStateFailed
			order.Err = errors.Wrapf(err, "failed to refresh balance of %s", alloc.Pair.From)
			lq.l.Error("skip liquidation", zap.String("pair", alloc.Pair.String()), zap.Error(order.Err))
			orders = append(orders, order)
			continue
		}
		intent.Amount = fresh.Free(alloc.Pair.From)

		market, _ := markets.Lookup(alloc.Pair)
		lq.l.Info("liquidate",
			zap.String("pair", alloc.Pair.String()),
			zap.String("amount", intent.Amount.String()),
			zap.String("value", alloc.Current.StringFixed(2)))
		orders = append(orders, lq.executor.Execute(ctx, intent, market, decimal.NullDecimal{}))
	}

	return orders, nil
}
