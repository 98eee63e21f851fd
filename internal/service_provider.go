package internal

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rebalancer/internal/clients"
	"github.com/vadiminshakov/rebalancer/internal/services/market"
	"github.com/vadiminshakov/rebalancer/internal/services/pricer"
	"github.com/vadiminshakov/rebalancer/internal/services/trader"
)

// serviceProvider defines a factory interface for creating platform-specific services.
type serviceProvider interface {
	Markets() MarketsProvider
	Pricer() Pricer
	Trader() (Trader, error)
}

// newServiceProvider creates a new service provider based on the client type.
// This is the single point of truth for dispatching to platform-specific implementations.
func newServiceProvider(client any, quote string, simulateBalance decimal.Decimal, logger *zap.Logger) (serviceProvider, error) {
	switch c := client.(type) {
	case *clients.Binance:
		return &binanceProvider{client: c, logger: logger}, nil
	case *clients.SimulateClient:
		return &simulateProvider{
			binanceProvider: binanceProvider{client: c.Binance(), logger: logger},
			quote:           quote,
			balance:         simulateBalance,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

type binanceProvider struct {
	client *clients.Binance
	logger *zap.Logger
}

func (p *binanceProvider) Markets() MarketsProvider {
	return market.NewBinanceMarkets(p.logger.Named("markets"), p.client)
}
func (p *binanceProvider) Pricer() Pricer {
	return pricer.NewBinancePricer(p.client)
}
func (p *binanceProvider) Trader() (Trader, error) {
	return trader.NewBinanceTrader(p.client), nil
}

// simulateProvider reads public Binance data and trades against a paper
// wallet seeded with quote currency only.
type simulateProvider struct {
	binanceProvider
	quote   string
	balance decimal.Decimal
}

func (p *simulateProvider) Trader() (Trader, error) {
	seed := map[string]decimal.Decimal{p.quote: p.balance}
	return trader.NewSimulateTrader(p.logger.Named("simulate"), p.Pricer(), seed)
}
