package trader

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rebalancer/internal/domain"
)

// Pricer defines an interface for getting the price of a trading pair.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (domain.Ticker, error)
}

// SimulateTrader is an in-memory spot wallet filled at the pricer's last price.
type SimulateTrader struct {
	mu     sync.RWMutex
	logger *zap.Logger
	wallet map[string]decimal.Decimal
	pricer Pricer
	seq    int64
	now    func() time.Time
}

// NewSimulateTrader creates a wallet seeded with the given holdings.
func NewSimulateTrader(logger *zap.Logger, pricer Pricer, seed map[string]decimal.Decimal) (*SimulateTrader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pricer == nil {
		return nil, errors.New("pricer is required for SimulateTrader")
	}

	wallet := make(map[string]decimal.Decimal, len(seed))
	for asset, amount := range seed {
		if amount.IsNegative() {
			return nil, errors.Errorf("negative seed balance for %s: %s", asset, amount.String())
		}
		wallet[asset] = amount
	}

	logger.Info("simulate init", zap.Int("assets", len(wallet)))
	return &SimulateTrader{
		logger: logger,
		wallet: wallet,
		pricer: pricer,
		now:    time.Now,
	}, nil
}

// GetBalances returns a copy of the wallet. Nothing is ever locked.
func (t *SimulateTrader) GetBalances(ctx context.Context) (domain.Balance, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	holdings := make(map[string]domain.Holding, len(t.wallet))
	for asset, amount := range t.wallet {
		if amount.IsZero() {
			continue
		}
		holdings[asset] = domain.Holding{Free: amount, Total: amount}
	}
	return domain.NewBalance(holdings, t.now()), nil
}

// MarketBuy simulates a market buy, fetching the price from its pricer.
func (t *SimulateTrader) MarketBuy(ctx context.Context, pair domain.Pair, amount decimal.Decimal, clientOrderID string) (domain.OrderReceipt, error) {
	if !amount.IsPositive() {
		return domain.OrderReceipt{}, errors.Errorf("buy amount must be positive, got %s", amount.String())
	}
	ticker, err := t.pricer.GetPrice(ctx, pair)
	if err != nil {
		return domain.OrderReceipt{}, errors.Wrap(err, "failed to get price for simulated buy")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cost := amount.Mul(ticker.Last)
	if t.wallet[pair.To].LessThan(cost) {
		return domain.OrderReceipt{}, errors.Errorf("insufficient %s balance: have %s need %s",
			pair.To, t.wallet[pair.To].String(), cost.String())
	}

	t.wallet[pair.To] = t.wallet[pair.To].Sub(cost)
	t.wallet[pair.From] = t.wallet[pair.From].Add(amount)

	return t.fill(pair, "buy", amount, ticker.Last, clientOrderID), nil
}

// MarketSell simulates a market sell, fetching the price from its pricer.
func (t *SimulateTrader) MarketSell(ctx context.Context, pair domain.Pair, amount decimal.Decimal, clientOrderID string) (domain.OrderReceipt, error) {
	if !amount.IsPositive() {
		return domain.OrderReceipt{}, errors.Errorf("sell amount must be positive, got %s", amount.String())
	}
	ticker, err := t.pricer.GetPrice(ctx, pair)
	if err != nil {
		return domain.OrderReceipt{}, errors.Wrap(err, "failed to get price for simulated sell")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.wallet[pair.From].LessThan(amount) {
		return domain.OrderReceipt{}, errors.Errorf("insufficient %s balance: have %s need %s",
			pair.From, t.wallet[pair.From].String(), amount.String())
	}

	t.wallet[pair.From] = t.wallet[pair.From].Sub(amount)
	t.wallet[pair.To] = t.wallet[pair.To].Add(amount.Mul(ticker.Last))

	return t.fill(pair, "sell", amount, ticker.Last, clientOrderID), nil
}

// fill must be called with mu held.
func (t *SimulateTrader) fill(pair domain.Pair, side string, amount, price decimal.Decimal, clientOrderID string) domain.OrderReceipt {
	t.seq++
	t.logger.Info("simulated fill",
		zap.String("pair", pair.String()),
		zap.String("side", side),
		zap.String("amount", amount.String()),
		zap.String("price", price.String()),
		zap.String("base", t.wallet[pair.From].String()),
		zap.String("quote", t.wallet[pair.To].String()))

	return domain.OrderReceipt{
		OrderID:          strconv.FormatInt(t.seq, 10),
		ClientOrderID:    clientOrderID,
		Filled:           true,
		Status:           "FILLED",
		ExecutedQuantity: amount,
	}
}
