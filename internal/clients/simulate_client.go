package clients

import (
	"github.com/adshao/go-binance/v2"
)

// SimulateClient wraps a real exchange client for price data.
type SimulateClient struct {
	// use Binance public API for real market prices
	binance *Binance
}

// NewSimulateClient creates a new simulate client.
func NewSimulateClient(opts BinanceOptions) *SimulateClient {
	// create client without API keys for public data only
	return &SimulateClient{
		binance: newBinance(binance.NewClient("", ""), opts),
	}
}

// Binance returns the underlying public Binance client.
func (c *SimulateClient) Binance() *Binance {
	return c.binance
}
