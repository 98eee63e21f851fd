package internal

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rebalancer/config"
	"github.com/vadiminshakov/rebalancer/internal/domain"
	"github.com/vadiminshakov/rebalancer/internal/services/executor"
	"github.com/vadiminshakov/rebalancer/internal/services/liquidator"
	"github.com/vadiminshakov/rebalancer/internal/services/planner"
	"github.com/vadiminshakov/rebalancer/internal/services/universe"
	"github.com/vadiminshakov/rebalancer/internal/services/valuator"
)

// Ranker returns base symbols ordered by market capitalisation.
type Ranker interface {
	TopSymbols(ctx context.Context) ([]string, error)
}

// MarketsProvider returns exchange metadata of every pair quoted in quote.
type MarketsProvider interface {
	Markets(ctx context.Context, quote string) (domain.Markets, error)
}

// Pricer returns the last price of a pair.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (domain.Ticker, error)
}

// Trader reads balances and places market orders.
type Trader interface {
	GetBalances(ctx context.Context) (domain.Balance, error)
	MarketBuy(ctx context.Context, pair domain.Pair, amount decimal.Decimal, clientOrderID string) (domain.OrderReceipt, error)
	MarketSell(ctx context.Context, pair domain.Pair, amount decimal.Decimal, clientOrderID string) (domain.OrderReceipt, error)
}

// Rebalancer runs one equal-weight rebalance of the account.
type Rebalancer struct {
	l          *zap.Logger
	conf       config.Config
	ranker     Ranker
	markets    MarketsProvider
	pricer     Pricer
	trader     Trader
	valuator   *valuator.Valuator
	planner    *planner.Planner
	executor   *executor.Executor
	liquidator *liquidator.Liquidator
	now        func() time.Time
}

// NewRebalancer wires the run pipeline from platform services.
func NewRebalancer(l *zap.Logger, conf config.Config, ranker Ranker, markets MarketsProvider, pricer Pricer, trader Trader) *Rebalancer {
	if l == nil {
		l = zap.NewNop()
	}

	v := valuator.NewValuator(l.Named("valuator"), pricer, conf.Quote, conf.Stables, conf.DustThreshold)
	p := planner.NewPlanner(conf.NoiseAbsolute, conf.NoiseFraction())
	e := executor.NewExecutor(l.Named("executor"), trader, executor.NewPacer(conf.OrderDelay), conf.TradingEnabled)

	return &Rebalancer{
		l:          l,
		conf:       conf,
		ranker:     ranker,
		markets:    markets,
		pricer:     pricer,
		trader:     trader,
		valuator:   v,
		planner:    p,
		executor:   e,
		liquidator: liquidator.NewLiquidator(l.Named("liquidator"), conf.Quote, trader, v, p, e),
		now:        time.Now,
	}
}

// Run executes the full pipeline: universe selection, valuation, planning,
// liquidation, re-valuation, then trims and acquisitions. Errors returned
// happen before any order is placed; per-pair failures are recorded on the
// report orders instead.
func (r *Rebalancer) Run(ctx context.Context) (*domain.Report, error) {
	report := &domain.Report{StartedAt: r.now()}
	defer func() {
		report.FinishedAt = r.now()
	}()

	if r.conf.TradingEnabled {
		r.l.Warn("trading enabled: orders will be sent to the exchange")
	} else {
		r.l.Info("[SIMULATION] trading disabled: orders are planned and logged only")
	}

	u, markets, err := r.selectUniverse(ctx)
	if err != nil {
		return report, err
	}
	report.Universe = u

	balance, err := r.trader.GetBalances(ctx)
	if err != nil {
		return report, errors.Wrap(err, "failed to fetch balances")
	}
	report.InitialCapital = r.capital(ctx, balance)

	positions := r.valuator.ValuePortfolio(ctx, balance, u)
	r.logPortfolio("current portfolio", positions)

	plan, err := r.planner.Plan(report.InitialCapital, u, positions.Positions)
	if err != nil {
		return report, errors.Wrap(err, "failed to plan allocation")
	}
	report.Plan = plan
	r.logPlan("initial plan", plan)

	liquidations, err := r.liquidator.Liquidate(ctx, u, markets)
	if err != nil {
		return report, err
	}
	report.Orders = append(report.Orders, liquidations...)

	// buys are sized only against post-liquidation capital
	balance, err = r.trader.GetBalances(ctx)
	if err != nil {
		r.l.Error("failed to refresh balances after liquidation, skipping second pass", zap.Error(err))
		r.finalize(ctx, report)
		return report, nil
	}
	report.Capital = r.capital(ctx, balance)
	positions = r.valuator.ValuePortfolio(ctx, balance, u)

	plan, err = r.planner.Plan(report.Capital, u, positions.Positions)
	if err != nil {
		return report, errors.Wrap(err, "failed to plan allocation")
	}
	report.Plan = plan
	r.logPlan("post-liquidation plan", plan)

	report.Orders = append(report.Orders, r.pass(ctx, domain.PhaseTrim, plan, markets)...)
	report.Orders = append(report.Orders, r.pass(ctx, domain.PhaseAcquisition, plan, markets)...)

	r.finalize(ctx, report)
	return report, nil
}

func (r *Rebalancer) selectUniverse(ctx context.Context) (domain.Universe, domain.Markets, error) {
	ranked, err := r.ranker.TopSymbols(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "ranking provider")
	}

	markets, err := r.markets.Markets(ctx, r.conf.Quote)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to fetch exchange markets")
	}

	u, err := universe.Select(ranked, markets.ActiveSymbols(), r.conf.Stables, r.conf.Quote, r.conf.MaxPairs)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to select universe")
	}

	r.l.Info("target universe selected",
		zap.Int("size", len(u)),
		zap.Strings("pairs", u.Symbols()))
	return u, markets, nil
}

// capital returns the deployable capital: the override when configured,
// otherwise the effective account value.
func (r *Rebalancer) capital(ctx context.Context, balance domain.Balance) decimal.Decimal {
	account, effective := r.valuator.EffectiveCapital(ctx, balance)
	r.l.Info("effective account balance",
		zap.String("quote", r.conf.Quote),
		zap.String("free_quote", balance.Free(r.conf.Quote).StringFixed(2)),
		zap.String("assets", account.Total.StringFixed(2)),
		zap.String("total", effective.StringFixed(2)))

	if r.conf.CapitalOverride.Valid {
		r.l.Info("using configured capital", zap.String("capital", r.conf.CapitalOverride.Decimal.StringFixed(2)))
		return r.conf.CapitalOverride.Decimal
	}
	return effective
}

// pass runs one phase of the second pass over the universe. Trims only sell,
// acquisitions only buy; every pair is re-priced against a fresh balance.
func (r *Rebalancer) pass(ctx context.Context, phase domain.Phase, plan domain.AllocationPlan, markets domain.Markets) []*domain.Order {
	want := domain.ActionSell
	if phase == domain.PhaseAcquisition {
		want = domain.ActionBuy
	}

	var orders []*domain.Order
	for _, planned := range plan.Allocations {
		log := r.l.With(zap.String("phase", string(phase)), zap.String("pair", planned.Pair.String()))

		balance, err := r.trader.GetBalances(ctx)
		if err != nil {
			log.Error("failed to refresh balances, pair skipped", zap.Error(err))
			continue
		}
		ticker, err := r.pricer.GetPrice(ctx, planned.Pair)
		if err != nil {
			log.Warn("failed to fetch price, pair skipped", zap.Error(err))
			continue
		}
		if !ticker.Last.IsPositive() {
			log.Warn("non-positive price, pair skipped", zap.String("price", ticker.Last.String()))
			continue
		}

		position := domain.NewPosition(planned.Pair.From, balance.Total(planned.Pair.From), ticker.Last)
		alloc := r.planner.Allocate(planned.Target, planned.Pair, position)
		if alloc.Action != want {
			log.Debug("no order for pair", zap.String("action", alloc.Action.String()), zap.String("delta", alloc.Delta.StringFixed(2)))
			continue
		}

		intent := domain.OrderIntent{
			Phase:  phase,
			Pair:   planned.Pair,
			Action: want,
			Amount: alloc.Delta.Abs().Div(ticker.Last),
			Price:  ticker.Last,
		}

		budget := decimal.NullDecimal{}
		if want == domain.ActionSell {
			intent.Amount = decimal.Min(intent.Amount, balance.Free(planned.Pair.From))
		} else {
			budget = decimal.NewNullDecimal(balance.Free(r.conf.Quote))
		}

		market, ok := markets.Lookup(planned.Pair)
		if !ok {
			log.Warn("no market metadata, pair skipped")
			continue
		}

		log.Info("rebalance pair",
			zap.String("target", alloc.Target.StringFixed(2)),
			zap.String("current", alloc.Current.StringFixed(2)),
			zap.String("delta", alloc.Delta.StringFixed(2)))
		orders = append(orders, r.executor.Execute(ctx, intent, market, budget))
	}
	return orders
}

// finalize records the final account state. Failures are only logged.
func (r *Rebalancer) finalize(ctx context.Context, report *domain.Report) {
	balance, err := r.trader.GetBalances(ctx)
	if err != nil {
		r.l.Error("failed to fetch final balances", zap.Error(err))
		report.Final = domain.NewValuation()
		return
	}

	final, _ := r.valuator.EffectiveCapital(ctx, balance)
	if free := balance.Free(r.conf.Quote); free.IsPositive() {
		final.Add(domain.NewPosition(r.conf.Quote, free, decimal.NewFromInt(1)))
	}
	report.Final = final
	r.logPortfolio("final portfolio", final)
}

func (r *Rebalancer) logPortfolio(msg string, v domain.Valuation) {
	for _, asset := range sortedKeys(v.Positions) {
		p := v.Positions[asset]
		r.l.Info(msg,
			zap.String("asset", asset),
			zap.String("amount", p.Amount.String()),
			zap.String("value", p.Value.StringFixed(2)))
	}
	r.l.Info(msg+" total", zap.String("value", v.Total.StringFixed(2)), zap.String("quote", r.conf.Quote))
}

func (r *Rebalancer) logPlan(msg string, plan domain.AllocationPlan) {
	r.l.Info(msg,
		zap.String("capital", plan.Capital.StringFixed(2)),
		zap.String("per_pair", plan.PerPair.StringFixed(2)),
		zap.Int("actionable", len(plan.Actionable())))
	for _, a := range plan.Allocations {
		r.l.Debug(msg, zap.Stringer("allocation", a))
	}
}

func sortedKeys(m map[string]domain.Position) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
