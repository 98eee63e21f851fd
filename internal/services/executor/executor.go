// Package executor turns order intents into market orders.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rebalancer/internal/domain"
)

const clientOrderIDPrefix = "rb-"

type orderPlacer interface {
	MarketBuy(ctx context.Context, pair domain.Pair, amount decimal.Decimal, clientOrderID string) (domain.OrderReceipt, error)
	MarketSell(ctx context.Context, pair domain.Pair, amount decimal.Decimal, clientOrderID string) (domain.OrderReceipt, error)
}

type pacer interface {
	Wait(ctx context.Context) error
}

// Executor sizes, submits and classifies orders one at a time. A failure is
// confined to its own order; nothing is retried within a run.
type Executor struct {
	l              *zap.Logger
	placer         orderPlacer
	pacer          pacer
	tradingEnabled bool
	now            func() time.Time
	newID          func() string
}

// NewExecutor creates a new Executor. With tradingEnabled false every
// decision is made as usual but the placer is never called.
func NewExecutor(l *zap.Logger, placer orderPlacer, p pacer, tradingEnabled bool) *Executor {
	if l == nil {
		l = zap.NewNop()
	}
	if p == nil {
		p = NewPacer(0)
	}
	return &Executor{
		l:              l,
		placer:         placer,
		pacer:          p,
		tradingEnabled: tradingEnabled,
		now:            time.Now,
		newID: func() string {
			return clientOrderIDPrefix + uuid.NewString()
		},
	}
}

// Execute drives one intent through the order state machine and returns the
// terminal order. budget, when valid, caps the quote value of a live buy.
func (e *Executor) Execute(ctx context.Context, intent domain.OrderIntent, market domain.MarketInfo, budget decimal.NullDecimal) *domain.Order {
	order := domain.NewOrder(intent)
	order.At = e.now()
	log := e.l.With(
		zap.String("phase", string(intent.Phase)),
		zap.String("pair", intent.Pair.String()),
		zap.String("action", intent.Action.String()),
	)

	if intent.Action != domain.ActionBuy && intent.Action != domain.ActionSell {
		order.State = domain.OrderStateFailed
		order.Err = errors.Errorf("unsupported order action %s", intent.Action)
		log.Error("order rejected", zap.Error(order.Err))
		return order
	}
	if !market.Active {
		order.State = domain.OrderStateFailed
		order.Err = errors.Wrapf(domain.ErrMarketNotFound, "%s is not tradeable", intent.Pair.Symbol())
		log.Error("order rejected", zap.Error(order.Err))
		return order
	}

	order.Amount = market.RoundAmount(intent.Amount)
	order.State = domain.OrderStateSized

	if !market.Tradeable(order.Amount) {
		order.State = domain.OrderStateSkippedBelowMin
		log.Info("skip order: amount below minimum",
			zap.String("amount", order.Amount.String()),
			zap.String("min_amount", market.MinAmount.String()))
		return order
	}

	if e.tradingEnabled && intent.Action == domain.ActionBuy && budget.Valid && order.Value().GreaterThan(budget.Decimal) {
		order.State = domain.OrderStateSkippedInsufficientFunds
		log.Info("skip buy: insufficient quote balance",
			zap.String("needed", order.Value().StringFixed(2)),
			zap.String("available", budget.Decimal.StringFixed(2)))
		return order
	}

	// every attempt below is followed by the rate-limit pause, whatever the outcome
	defer func() {
		if err := e.pacer.Wait(ctx); err != nil {
			log.Warn("order pacing interrupted", zap.Error(err))
		}
	}()

	order.ClientOrderID = e.newID()

	if !e.tradingEnabled {
		order.State = domain.OrderStateSimulated
		log.Info("[SIMULATION] order not submitted",
			zap.String("amount", order.Amount.String()),
			zap.String("price", order.Price.String()),
			zap.String("value", order.Value().StringFixed(2)))
		return order
	}

	order.State = domain.OrderStateSubmitted
	receipt, err := e.submit(ctx, order)
	if err != nil {
		order.State = domain.OrderStateFailed
		order.Err = err
		log.Error("order submission failed", zap.String("amount", order.Amount.String()), zap.Error(err))
		return order
	}

	order.Receipt = &receipt
	if receipt.Filled {
		order.State = domain.OrderStateFilled
		log.Info("order filled",
			zap.String("amount", order.Amount.String()),
			zap.String("value", order.Value().StringFixed(2)),
			zap.String("order_id", receipt.OrderID))
		return order
	}

	order.State = domain.OrderStatePartial
	log.Warn("order not fully filled",
		zap.String("status", receipt.Status),
		zap.String("requested", order.Amount.String()),
		zap.String("executed", receipt.ExecutedQuantity.String()))
	return order
}

func (e *Executor) submit(ctx context.Context, order *domain.Order) (domain.OrderReceipt, error) {
	if order.Action == domain.ActionBuy {
		return e.placer.MarketBuy(ctx, order.Pair, order.Amount, order.ClientOrderID)
	}
	return e.placer.MarketSell(ctx, order.Pair, order.Amount, order.ClientOrderID)
}
