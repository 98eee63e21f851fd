// Package ranking provides the market-cap ordered symbol list.
package ranking

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rebalancer/internal/clients"
	"github.com/vadiminshakov/rebalancer/pkg/retrier"
)

type listingsFetcher interface {
	Listings(ctx context.Context, limit int) ([]clients.Listing, error)
}

// CoinMarketCapRanker ranks symbols by market capitalisation.
type CoinMarketCapRanker struct {
	l       *zap.Logger
	client  listingsFetcher
	limit   int
	retrier *retrier.Retrier
}

// NewCoinMarketCapRanker creates a ranker requesting limit symbols.
func NewCoinMarketCapRanker(l *zap.Logger, client listingsFetcher, limit int, r *retrier.Retrier) *CoinMarketCapRanker {
	if l == nil {
		l = zap.NewNop()
	}
	if r == nil {
		r = retrier.New(retrier.WithMaxRetries(0))
	}
	return &CoinMarketCapRanker{l: l, client: client, limit: limit, retrier: r}
}

// TopSymbols returns symbols ordered by market cap, largest first.
func (c *CoinMarketCapRanker) TopSymbols(ctx context.Context) ([]string, error) {
	listings, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) ([]clients.Listing, error) {
		return c.client.Listings(ctx, c.limit)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch market-cap ranking")
	}

	symbols := make([]string, 0, len(listings))
	for _, listing := range listings {
		symbol := strings.ToUpper(strings.TrimSpace(listing.Symbol))
		if symbol == "" {
			continue
		}
		symbols = append(symbols, symbol)
	}

	c.l.Debug("market-cap ranking fetched", zap.Int("symbols", len(symbols)))
	return symbols, nil
}
