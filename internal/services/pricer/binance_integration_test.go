//go:build integration

package pricer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/rebalancer/internal/clients"
	"github.com/vadiminshakov/rebalancer/internal/domain"
)

// TestBinancePricer_GetPrice_Integration calls the public Binance API.
// To run this test, use: go test -tags=integration -v ./...
func TestBinancePricer_GetPrice_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := clients.NewSimulateClient(clients.BinanceOptions{ReadRetries: 1})
	pricer := NewBinancePricer(client.Binance())

	t.Run("returns price for BTC/USDC pair", func(t *testing.T) {
		pair := domain.NewPair("BTC", "USDC")

		ticker, err := pricer.GetPrice(context.Background(), pair)
		require.NoError(t, err)
		require.True(t, ticker.Last.IsPositive(), "expected price > 0 for %s, got %s", pair.String(), ticker.Last.String())
		t.Logf("Current %s price: %s", pair.String(), ticker.Last.String())
	})

	t.Run("returns error for invalid trading pair", func(t *testing.T) {
		pair := domain.NewPair("INVALID", "PAIR")

		ticker, err := pricer.GetPrice(context.Background(), pair)
		assert.ErrorIs(t, err, domain.ErrPricing)
		assert.True(t, ticker.Last.IsZero())
	})
}
