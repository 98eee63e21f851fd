package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/rebalancer/internal/clients"
	"github.com/vadiminshakov/rebalancer/pkg/retrier"
)

type stubListings struct {
	listings []clients.Listing
	errs     []error
	limit    int
	calls    int
}

func (s *stubListings) Listings(_ context.Context, limit int) ([]clients.Listing, error) {
	s.limit = limit
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return s.listings, nil
}

func TestCoinMarketCapRanker_TopSymbols(t *testing.T) {
	stub := &stubListings{listings: []clients.Listing{
		{Symbol: "BTC", CMCRank: 1},
		{Symbol: "eth", CMCRank: 2},
		{Symbol: " ", CMCRank: 3},
		{Symbol: "USDC", CMCRank: 4},
	}}

	r := NewCoinMarketCapRanker(nil, stub, 100, nil)
	symbols, err := r.TopSymbols(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC", "ETH", "USDC"}, symbols)
	assert.Equal(t, 100, stub.limit)
}

func TestCoinMarketCapRanker_Retries(t *testing.T) {
	stub := &stubListings{
		listings: []clients.Listing{{Symbol: "BTC"}},
		errs:     []error{errors.New("timeout")},
	}

	r := NewCoinMarketCapRanker(nil, stub, 50, retrier.New(retrier.WithMaxRetries(1), retrier.WithInitialInterval(time.Millisecond)))
	symbols, err := r.TopSymbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC"}, symbols)
	assert.Equal(t, 2, stub.calls)
	assert.Equal(t, 50, stub.limit)
}

func TestCoinMarketCapRanker_Error(t *testing.T) {
	stub := &stubListings{errs: []error{errors.New("unauthorized")}}

	r := NewCoinMarketCapRanker(nil, stub, 10, nil)
	_, err := r.TopSymbols(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestCoinMarketCapRanker_PermanentErrorNotRetried(t *testing.T) {
	stub := &stubListings{errs: []error{
		&clients.CoinMarketCapError{StatusCode: 401, Code: 1001, Message: "This API Key is invalid."},
	}}

	r := NewCoinMarketCapRanker(nil, stub, 10, retrier.New(
		retrier.WithMaxRetries(3),
		retrier.WithInitialInterval(time.Millisecond),
		retrier.WithRetryIf(clients.IsRetryableListingsError),
	))
	_, err := r.TopSymbols(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API Key is invalid")
	assert.Equal(t, 1, stub.calls)
}
