package internal

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rebalancer/config"
	"github.com/vadiminshakov/rebalancer/internal/clients"
	"github.com/vadiminshakov/rebalancer/internal/services/trader"
)

func TestNewRebalancerFromConfig(t *testing.T) {
	creds := config.Credentials{BinanceAPIKey: "key", BinanceAPISecret: "secret", CoinMarketCapKey: "cmc"}

	tests := []struct {
		name             string
		platform         string
		expectedErrorMsg string
	}{
		{name: "binance", platform: config.PlatformBinance},
		{name: "simulate", platform: config.PlatformSimulate},
		{name: "unsupported platform", platform: "kraken", expectedErrorMsg: "unsupported platform: kraken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := testConfig(false)
			conf.Platform = tt.platform
			conf.RankingLimit = 100
			conf.RequestsPerSecond = 10

			r, err := NewRebalancerFromConfig(conf, creds, zap.NewNop())
			if tt.expectedErrorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErrorMsg)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, tt.platform == config.PlatformBinance, isBinanceTrader(r.trader))
		})
	}
}

func TestNewServiceProvider_UnsupportedClient(t *testing.T) {
	_, err := newServiceProvider("not a client", "USDC", decimal.Zero, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported client type")
}

func TestSimulateProvider_SeedsQuoteBalance(t *testing.T) {
	p, err := newServiceProvider(clients.NewSimulateClient(clients.BinanceOptions{}), "USDC", decimal.NewFromInt(200), zap.NewNop())
	require.NoError(t, err)

	tr, err := p.Trader()
	require.NoError(t, err)
	st, ok := tr.(*trader.SimulateTrader)
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	balance, err := st.GetBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, "200", balance.Free("USDC").String())
}

func isBinanceTrader(tr Trader) bool {
	_, ok := tr.(*trader.BinanceTrader)
	return ok
}
