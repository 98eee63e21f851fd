package internal

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rebalancer/config"
	"github.com/vadiminshakov/rebalancer/internal/clients"
	"github.com/vadiminshakov/rebalancer/internal/services/ranking"
	"github.com/vadiminshakov/rebalancer/pkg/retrier"
)

// NewRebalancerFromConfig creates the platform clients and wires a Rebalancer.
func NewRebalancerFromConfig(conf config.Config, creds config.Credentials, logger *zap.Logger) (*Rebalancer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := newClient(conf, creds, logger)
	if err != nil {
		return nil, err
	}

	provider, err := newServiceProvider(client, conf.Quote, conf.SimulateBalance, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create service provider")
	}

	tr, err := provider.Trader()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trader")
	}

	cmc := clients.NewCoinMarketCapClient(conf.CoinMarketCapURL, creds.CoinMarketCapKey)
	ranker := ranking.NewCoinMarketCapRanker(logger.Named("ranking"), cmc, conf.RankingLimit,
		retrier.New(
			retrier.WithMaxRetries(conf.RetryAttempts),
			retrier.WithRetryIf(clients.IsRetryableListingsError),
		))

	return NewRebalancer(logger, conf, ranker, provider.Markets(), provider.Pricer(), tr), nil
}

func newClient(conf config.Config, creds config.Credentials, logger *zap.Logger) (any, error) {
	opts := clients.BinanceOptions{
		RequestsPerSecond: conf.RequestsPerSecond,
		ReadRetries:       conf.RetryAttempts,
		Logger:            logger.Named("binance"),
	}

	switch conf.Platform {
	case config.PlatformBinance:
		return clients.NewBinanceClient(creds.BinanceAPIKey, creds.BinanceAPISecret, opts), nil
	case config.PlatformSimulate:
		return clients.NewSimulateClient(opts), nil
	default:
		return nil, errors.Errorf("unsupported platform: %s", conf.Platform)
	}
}
