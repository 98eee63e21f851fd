// Command rebalancer spreads a spot account evenly across the top coins by
// market capitalisation that trade against one quote currency.
//
// Usage:
//
//	rebalancer --config config.yaml
//	rebalancer --platform binance --quote USDC --max-pairs 20 --trade
//	rebalancer --setup
//
// Without --trade (or trading_enabled in the config) every order is only
// logged. Required environment variables, also read from a .env file:
//
//	CMC_KEY (always)
//	BINANCE_API_KEY, BINANCE_API_SECRET (platform binance)
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rebalancer/config"
	"github.com/vadiminshakov/rebalancer/internal"
	"github.com/vadiminshakov/rebalancer/internal/logging"
	"github.com/vadiminshakov/rebalancer/internal/setup"
	"github.com/vadiminshakov/rebalancer/internal/summary"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("failed to load .env: %v", err)
	}

	conf, flags, err := config.Get(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if flags.Setup {
		path, err := setup.RunTUI()
		if err != nil {
			log.Fatal(err)
		}
		flags.ConfigPath = path
		if conf, err = config.Load(flags); err != nil {
			log.Fatal(err)
		}
	}

	logger, err := logging.New(conf.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(conf, logger); err != nil {
		logger.Error("rebalance failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(conf config.Config, logger *zap.Logger) error {
	creds, err := config.CredentialsFromEnv(conf.Platform)
	if err != nil {
		return err
	}

	rebalancer, err := internal.NewRebalancerFromConfig(conf, creds, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting rebalance",
		zap.String("platform", conf.Platform),
		zap.String("quote", conf.Quote),
		zap.Int("max_pairs", conf.MaxPairs),
		zap.Bool("trading_enabled", conf.TradingEnabled))

	report, err := rebalancer.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(summary.Render(report, conf.Quote, conf.TradingEnabled))
	return nil
}
