// Package market loads per-pair exchange metadata.
package market

import (
	"context"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rebalancer/internal/clients"
	"github.com/vadiminshakov/rebalancer/internal/domain"
)

const statusTrading = "TRADING"

// BinanceMarkets reads spot market metadata from exchangeInfo.
type BinanceMarkets struct {
	l      *zap.Logger
	client *clients.Binance
}

// NewBinanceMarkets creates a new BinanceMarkets.
func NewBinanceMarkets(l *zap.Logger, client *clients.Binance) *BinanceMarkets {
	if l == nil {
		l = zap.NewNop()
	}
	return &BinanceMarkets{l: l, client: client}
}

// Markets returns metadata of every pair quoted in quote, active or not.
func (m *BinanceMarkets) Markets(ctx context.Context, quote string) (domain.Markets, error) {
	var info *binance.ExchangeInfo
	err := m.client.Read(ctx, func(ctx context.Context) error {
		var err error
		info, err = m.client.Client().NewExchangeInfoService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load binance exchange info")
	}

	return toMarkets(m.l, info.Symbols, quote), nil
}

func toMarkets(l *zap.Logger, symbols []binance.Symbol, quote string) domain.Markets {
	quote = strings.ToUpper(quote)
	markets := make(domain.Markets)

	for i := range symbols {
		s := &symbols[i]
		if s.QuoteAsset != quote {
			continue
		}

		info := domain.MarketInfo{
			Pair:      domain.NewPair(s.BaseAsset, s.QuoteAsset),
			MinAmount: decimal.Zero,
			Precision: int32(s.BaseAssetPrecision),
			Active:    s.Status == statusTrading && s.IsSpotTradingAllowed,
		}

		if lot := s.LotSizeFilter(); lot != nil {
			if minQty, err := decimal.NewFromString(lot.MinQuantity); err == nil {
				info.MinAmount = minQty
			} else {
				l.Debug("unparseable minQty", zap.String("symbol", s.Symbol), zap.String("min_qty", lot.MinQuantity))
			}
			if precision, ok := stepPrecision(lot.StepSize); ok {
				info.Precision = precision
			}
		}

		markets[s.Symbol] = info
	}

	return markets
}

// stepPrecision converts a lot step such as "0.00100000" into decimal places (3).
func stepPrecision(step string) (int32, bool) {
	d, err := decimal.NewFromString(step)
	if err != nil || !d.IsPositive() {
		return 0, false
	}
	s := d.String()
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return 0, true
	}
	return int32(len(s) - idx - 1), true
}
