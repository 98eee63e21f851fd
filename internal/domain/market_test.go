package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMarketInfo_RoundAmount(t *testing.T) {
	tests := []struct {
		name      string
		precision int32
		amount    string
		expected  string
	}{
		{name: "floors extra decimals", precision: 3, amount: "1.23456", expected: "1.234"},
		{name: "never rounds up", precision: 2, amount: "0.999", expected: "0.99"},
		{name: "whole units", precision: 0, amount: "12.9", expected: "12"},
		{name: "already aligned", precision: 4, amount: "0.5", expected: "0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MarketInfo{Precision: tt.precision}
			got := m.RoundAmount(decimal.RequireFromString(tt.amount))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)), "got %s", got)
		})
	}
}

func TestMarketInfo_Tradeable(t *testing.T) {
	m := MarketInfo{MinAmount: decimal.RequireFromString("0.01")}

	assert.True(t, m.Tradeable(decimal.RequireFromString("0.01")))
	assert.True(t, m.Tradeable(decimal.RequireFromString("2")))
	assert.False(t, m.Tradeable(decimal.RequireFromString("0.009")))
	assert.False(t, m.Tradeable(decimal.Zero))
	assert.False(t, MarketInfo{}.Tradeable(decimal.Zero))
}

func TestMarkets_ActiveSymbols(t *testing.T) {
	markets := Markets{
		"BTCUSDC":  {Pair: NewPair("btc", "usdc"), Active: true},
		"LUNAUSDC": {Pair: NewPair("luna", "usdc"), Active: false},
	}

	assert.ElementsMatch(t, []string{"BTCUSDC"}, markets.ActiveSymbols())

	info, ok := markets.Lookup(Pair{From: "BTC", To: "USDC"})
	assert.True(t, ok)
	assert.Equal(t, "BTC_USDC", info.Pair.String())

	_, ok = markets.Lookup(Pair{From: "XRP", To: "USDC"})
	assert.False(t, ok)
}
