// Package trader reads account balances and places market orders.
package trader

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/rebalancer/internal/clients"
	"github.com/vadiminshakov/rebalancer/internal/domain"
)

// BinanceTrader spot account adapter.
type BinanceTrader struct {
	client *clients.Binance
	now    func() time.Time
}

// NewBinanceTrader creates a new BinanceTrader.
func NewBinanceTrader(client *clients.Binance) *BinanceTrader {
	return &BinanceTrader{client: client, now: time.Now}
}

// GetBalances fetches a fresh snapshot of every asset in the spot account.
func (t *BinanceTrader) GetBalances(ctx context.Context) (domain.Balance, error) {
	var account *binance.Account
	err := t.client.Read(ctx, func(ctx context.Context) error {
		var err error
		account, err = t.client.Client().NewGetAccountService().Do(ctx)
		return err
	})
	if err != nil {
		return domain.Balance{}, errors.Wrap(err, "failed to get binance account balance")
	}

	holdings, err := toHoldings(account.Balances)
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.NewBalance(holdings, t.now()), nil
}

// MarketBuy places a market buy of amount base units.
func (t *BinanceTrader) MarketBuy(ctx context.Context, pair domain.Pair, amount decimal.Decimal, clientOrderID string) (domain.OrderReceipt, error) {
	return t.marketOrder(ctx, pair, binance.SideTypeBuy, amount, clientOrderID)
}

// MarketSell places a market sell of amount base units.
func (t *BinanceTrader) MarketSell(ctx context.Context, pair domain.Pair, amount decimal.Decimal, clientOrderID string) (domain.OrderReceipt, error) {
	return t.marketOrder(ctx, pair, binance.SideTypeSell, amount, clientOrderID)
}

func (t *BinanceTrader) marketOrder(ctx context.Context, pair domain.Pair, side binance.SideType, amount decimal.Decimal, clientOrderID string) (domain.OrderReceipt, error) {
	var resp *binance.CreateOrderResponse
	err := t.client.Write(ctx, func(ctx context.Context) error {
		var err error
		resp, err = t.client.Client().NewCreateOrderService().Symbol(pair.Symbol()).
			Side(side).Type(binance.OrderTypeMarket).
			Quantity(amount.String()).
			NewClientOrderID(clientOrderID).
			Do(ctx)
		return err
	})
	if err != nil {
		return domain.OrderReceipt{}, errors.Wrapf(err, "binance market %s %s %s", side, amount.String(), pair.Symbol())
	}

	return toReceipt(resp), nil
}

func toHoldings(balances []binance.Balance) (map[string]domain.Holding, error) {
	holdings := make(map[string]domain.Holding, len(balances))
	for _, b := range balances {
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse free balance of %s", b.Asset)
		}
		locked, err := decimal.NewFromString(b.Locked)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse locked balance of %s", b.Asset)
		}
		total := free.Add(locked)
		if total.IsZero() {
			continue
		}
		holdings[b.Asset] = domain.Holding{Free: free, Total: total}
	}
	return holdings, nil
}

func toReceipt(resp *binance.CreateOrderResponse) domain.OrderReceipt {
	if resp == nil {
		return domain.OrderReceipt{}
	}
	executed, err := decimal.NewFromString(resp.ExecutedQuantity)
	if err != nil {
		executed = decimal.Zero
	}
	return domain.OrderReceipt{
		OrderID:          strconv.FormatInt(resp.OrderID, 10),
		ClientOrderID:    resp.ClientOrderID,
		Filled:           resp.Status == binance.OrderStatusTypeFilled,
		Status:           string(resp.Status),
		ExecutedQuantity: executed,
	}
}
