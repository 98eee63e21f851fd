package liquidator

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rebalancer/internal/domain"
	"github.com/vadiminshakov/rebalancer/internal/services/executor"
	"github.com/vadiminshakov/rebalancer/internal/services/planner"
	"github.com/vadiminshakov/rebalancer/internal/services/valuator"
)

type stubPricer struct {
	prices map[string]string
}

func (s stubPricer) GetPrice(_ context.Context, pair domain.Pair) (domain.Ticker, error) {
	p, ok := s.prices[pair.From]
	if !ok {
		return domain.Ticker{}, errors.Wrap(domain.ErrPricing, pair.Symbol())
	}
	return domain.Ticker{Pair: pair, Last: decimal.RequireFromString(p)}, nil
}

// stubBalances hands out snapshots in order and repeats the last one.
type stubBalances struct {
	snapshots []domain.Balance
	err       error
	calls     int
}

func (s *stubBalances) GetBalances(context.Context) (domain.Balance, error) {
	s.calls++
	if s.err != nil {
		return domain.Balance{}, s.err
	}
	i := s.calls - 1
	if i >= len(s.snapshots) {
		i = len(s.snapshots) - 1
	}
	return s.snapshots[i], nil
}

type recordingPlacer struct {
	sells []string
}

func (r *recordingPlacer) MarketBuy(context.Context, domain.Pair, decimal.Decimal, string) (domain.OrderReceipt, error) {
	return domain.OrderReceipt{}, errors.New("unexpected buy")
}

func (r *recordingPlacer) MarketSell(_ context.Context, pair domain.Pair, amount decimal.Decimal, _ string) (domain.OrderReceipt, error) {
	r.sells = append(r.sells, pair.Symbol()+":"+amount.String())
	return domain.OrderReceipt{Filled: true, Status: "FILLED", ExecutedQuantity: amount}, nil
}

func balance(free map[string]string) domain.Balance {
	holdings := make(map[string]domain.Holding, len(free))
	for asset, amount := range free {
		d := decimal.RequireFromString(amount)
		holdings[asset] = domain.Holding{Free: d, Total: d}
	}
	return domain.NewBalance(holdings, time.Time{})
}

func market(base string, min string, precision int32, active bool) domain.MarketInfo {
	return domain.MarketInfo{
		Pair:      domain.NewPair(base, "USDC"),
		MinAmount: decimal.RequireFromString(min),
		Precision: precision,
		Active:    active,
	}
}

func testMarkets() domain.Markets {
	return domain.Markets{
		"BTCUSDC":  market("BTC", "0.0001", 5, true),
		"DOGEUSDC": market("DOGE", "1", 0, true),
		"XRPUSDC":  market("XRP", "1", 1, true),
		"SHIBUSDC": market("SHIB", "1000", 0, true),
		"LUNAUSDC": market("LUNA", "1", 2, false),
	}
}

func newLiquidator(balances *stubBalances, placer *recordingPlacer, tradingEnabled bool) *Liquidator {
	prices := stubPricer{prices: map[string]string{
		"BTC":  "50000",
		"DOGE": "0.1",
		"XRP":  "0.5",
		"SHIB": "0.00001",
		"LUNA": "1",
	}}
	v := valuator.NewValuator(zap.NewNop(), prices, "USDC", []string{"USDC", "USDT"}, decimal.RequireFromString("0.5"))
	e := executor.NewExecutor(zap.NewNop(), placer, executor.NewPacer(0), tradingEnabled)
	return NewLiquidator(zap.NewNop(), "USDC", balances, v, planner.NewPlanner(decimal.NewFromInt(1), decimal.RequireFromString("0.01")), e)
}

func TestCandidates(t *testing.T) {
	universe := domain.Universe{domain.NewPair("BTC", "USDC")}
	b := balance(map[string]string{
		"BTC":  "0.1",     // in universe
		"USDC": "100",     // quote
		"USDT": "50",      // stable
		"DOGE": "1000",    // 100 USDC
		"XRP":  "0.5",     // 0.25 USDC, dust
		"LUNA": "100",     // inactive market
		"PEPE": "1000000", // no market
		"SHIB": "0",
	})

	lq := newLiquidator(&stubBalances{}, &recordingPlacer{}, true)
	got := lq.Candidates(context.Background(), b, universe, testMarkets())

	require.Len(t, got, 1)
	assert.Equal(t, "DOGE", got[0].Asset)
	assert.Equal(t, "100", got[0].Value.String())
}

func TestCandidates_PricingFailureSkipsAsset(t *testing.T) {
	markets := testMarkets()
	markets["ADAUSDC"] = market("ADA", "1", 1, true)
	b := balance(map[string]string{"ADA": "100", "DOGE": "100"})

	lq := newLiquidator(&stubBalances{}, &recordingPlacer{}, true)
	got := lq.Candidates(context.Background(), b, domain.Universe{}, markets)

	require.Len(t, got, 1)
	assert.Equal(t, "DOGE", got[0].Asset)
}

func TestLiquidate_RefetchesBalanceBeforeEachSell(t *testing.T) {
	universe := domain.Universe{domain.NewPair("BTC", "USDC")}
	balances := &stubBalances{snapshots: []domain.Balance{
		balance(map[string]string{"DOGE": "1000", "XRP": "500", "USDC": "10"}),
		// both holdings changed between planning and selling
		balance(map[string]string{"DOGE": "1000", "XRP": "400.75", "USDC": "10"}),
		balance(map[string]string{"DOGE": "123.45", "USDC": "210"}),
	}}
	placer := &recordingPlacer{}

	lq := newLiquidator(balances, placer, true)
	orders, err := lq.Liquidate(context.Background(), universe, testMarkets())
	require.NoError(t, err)

	// XRP (250) is larger than DOGE (100) and goes first
	require.Len(t, orders, 2)
	assert.Equal(t, "XRP", orders[0].Pair.From)
	assert.Equal(t, "DOGE", orders[1].Pair.From)
	assert.Equal(t, []string{"XRPUSDC:400.7", "DOGEUSDC:123"}, placer.sells)
	for _, o := range orders {
		assert.Equal(t, domain.PhaseLiquidation, o.Phase)
		assert.Equal(t, domain.OrderStateFilled, o.State)
	}
	assert.Equal(t, 3, balances.calls)
}

func TestLiquidate_BelowMinimumIsNotFatal(t *testing.T) {
	balances := &stubBalances{snapshots: []domain.Balance{
		balance(map[string]string{"SHIB": "100000"}),
		balance(map[string]string{"SHIB": "999"}),
	}}
	placer := &recordingPlacer{}

	lq := newLiquidator(balances, placer, true)
	orders, err := lq.Liquidate(context.Background(), domain.Universe{}, testMarkets())
	require.NoError(t, err)

	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStateSkippedBelowMin, orders[0].State)
	assert.Empty(t, placer.sells)
}

func TestLiquidate_Simulation(t *testing.T) {
	balances := &stubBalances{snapshots: []domain.Balance{balance(map[string]string{"DOGE": "1000"})}}
	placer := &recordingPlacer{}

	lq := newLiquidator(balances, placer, false)
	orders, err := lq.Liquidate(context.Background(), domain.Universe{}, testMarkets())
	require.NoError(t, err)

	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStateSimulated, orders[0].State)
	assert.Equal(t, "1000", orders[0].Amount.String())
	assert.Empty(t, placer.sells)
}

func TestLiquidate_BalanceError(t *testing.T) {
	lq := newLiquidator(&stubBalances{err: errors.New("timeout")}, &recordingPlacer{}, true)

	orders, err := lq.Liquidate(context.Background(), domain.Universe{}, testMarkets())
	require.Error(t, err)
	assert.Nil(t, orders)
}

func TestLiquidate_NothingToDo(t *testing.T) {
	balances := &stubBalances{snapshots: []domain.Balance{balance(map[string]string{"USDC": "100"})}}

	lq := newLiquidator(balances, &recordingPlacer{}, true)
	orders, err := lq.Liquidate(context.Background(), domain.Universe{}, testMarkets())
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, 1, balances.calls)
}
