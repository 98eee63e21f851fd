package clients

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vadiminshakov/rebalancer/pkg/retrier"
)

const (
	defaultRequestsPerSecond = 10
	defaultReadRetries       = 3
)

// binance error codes that are worth another attempt.
var transientAPICodes = map[int64]struct{}{
	-1000: {}, // unknown error
	-1001: {}, // internal disconnect
	-1003: {}, // too many requests
	-1007: {}, // backend timeout
}

// BinanceOptions tunes request pacing and read retries.
type BinanceOptions struct {
	RequestsPerSecond float64
	ReadRetries       int
	Logger            *zap.Logger
}

// Binance is the REST client shared by every Binance-backed service. All
// calls pass through one token bucket; reads are retried, writes never.
type Binance struct {
	client  *binance.Client
	limiter *rate.Limiter
	retrier *retrier.Retrier
}

// NewBinanceClient creates an authenticated client.
func NewBinanceClient(apiKey, apiSecret string, opts BinanceOptions) *Binance {
	return newBinance(binance.NewClient(apiKey, apiSecret), opts)
}

func newBinance(client *binance.Client, opts BinanceOptions) *Binance {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRequestsPerSecond
	}
	if opts.ReadRetries < 0 {
		opts.ReadRetries = defaultReadRetries
	}
	l := opts.Logger
	if l == nil {
		l = zap.NewNop()
	}

	return &Binance{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		retrier: retrier.New(
			retrier.WithMaxRetries(opts.ReadRetries),
			retrier.WithInitialInterval(500*time.Millisecond),
			retrier.WithRetryIf(IsTransient),
			retrier.WithOnRetry(func(attempt int, err error) {
				l.Warn("retrying binance request", zap.Int("attempt", attempt), zap.Error(err))
			}),
		),
	}
}

// Client returns the underlying Binance client.
func (b *Binance) Client() *binance.Client {
	return b.client
}

// Read runs an idempotent request under the rate limiter, retrying transient failures.
func (b *Binance) Read(ctx context.Context, fn func(ctx context.Context) error) error {
	return b.retrier.Do(ctx, func(ctx context.Context) error {
		if err := b.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "binance rate limiter")
		}
		return fn(ctx)
	})
}

// Write runs a mutating request under the rate limiter exactly once.
func (b *Binance) Write(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "binance rate limiter")
	}
	return fn(ctx)
}

// IsTransient reports whether a failed Binance call may succeed when repeated.
// Transport errors are transient; API errors only for throttling and timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		_, ok := transientAPICodes[apiErr.Code]
		return ok
	}
	return true
}
