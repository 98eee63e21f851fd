// Package pricer fetches last traded prices.
package pricer

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/rebalancer/internal/clients"
	"github.com/vadiminshakov/rebalancer/internal/domain"
)

// BinancePricer fetches ticker prices from the Binance REST API.
// Prices are never cached: every call hits the exchange.
type BinancePricer struct {
	client *clients.Binance
	now    func() time.Time
}

// NewBinancePricer creates a new pricer.
func NewBinancePricer(client *clients.Binance) *BinancePricer {
	return &BinancePricer{client: client, now: time.Now}
}

// GetPrice fetches the current market price of pair.
func (p *BinancePricer) GetPrice(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	var prices []*binance.SymbolPrice
	err := p.client.Read(ctx, func(ctx context.Context) error {
		var err error
		prices, err = p.client.Client().NewListPricesService().Symbol(pair.Symbol()).Do(ctx)
		return err
	})
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(domain.ErrPricing, "binance ticker %s: %v", pair.Symbol(), err)
	}

	last, err := pickPrice(prices, pair)
	if err != nil {
		return domain.Ticker{}, err
	}

	return domain.Ticker{Pair: pair, Last: last, FetchedAt: p.now()}, nil
}

func pickPrice(prices []*binance.SymbolPrice, pair domain.Pair) (decimal.Decimal, error) {
	for _, price := range prices {
		if price == nil || price.Symbol != pair.Symbol() {
			continue
		}
		last, err := decimal.NewFromString(price.Price)
		if err != nil {
			return decimal.Zero, errors.Wrapf(domain.ErrPricing, "parse price %q for %s", price.Price, pair.Symbol())
		}
		if !last.IsPositive() {
			return decimal.Zero, errors.Wrapf(domain.ErrPricing, "non-positive price %s for %s", last.String(), pair.Symbol())
		}
		return last, nil
	}
	return decimal.Zero, errors.Wrap(domain.ErrPricing, fmt.Sprintf("binance API returned no price for %s", pair.String()))
}
