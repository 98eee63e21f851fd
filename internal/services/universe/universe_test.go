package universe

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/rebalancer/internal/domain"
)

var defaultStables = []string{"USDC", "USDT", "BUSD", "DAI", "TUSD"}

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		ranked    []string
		tradeable []string
		stable    []string
		maxSize   int
		expected  []string
	}{
		{
			name:      "stable excluded from intersection",
			ranked:    []string{"BTC", "ETH", "USDC"},
			tradeable: []string{"BTCUSDC", "ETHUSDC"},
			stable:    []string{"USDC"},
			maxSize:   25,
			expected:  []string{"BTCUSDC", "ETHUSDC"},
		},
		{
			name:      "rank order preserved",
			ranked:    []string{"SOL", "BTC", "ADA", "ETH"},
			tradeable: []string{"ADAUSDC", "BTCUSDC", "ETHUSDC", "SOLUSDC"},
			stable:    defaultStables,
			maxSize:   25,
			expected:  []string{"SOLUSDC", "BTCUSDC", "ADAUSDC", "ETHUSDC"},
		},
		{
			name:      "truncated to the top of the ranking",
			ranked:    []string{"BTC", "ETH", "SOL", "XRP"},
			tradeable: []string{"XRPUSDC", "SOLUSDC", "ETHUSDC", "BTCUSDC"},
			stable:    defaultStables,
			maxSize:   2,
			expected:  []string{"BTCUSDC", "ETHUSDC"},
		},
		{
			name:      "untradeable ranked symbols skipped before the cutoff",
			ranked:    []string{"BTC", "HYPE", "ETH"},
			tradeable: []string{"BTCUSDC", "ETHUSDC"},
			stable:    defaultStables,
			maxSize:   2,
			expected:  []string{"BTCUSDC", "ETHUSDC"},
		},
		{
			name:      "stable/stable pair on the exchange is ignored",
			ranked:    []string{"USDT", "BTC", "FDUSD"},
			tradeable: []string{"USDTUSDC", "BTCUSDC", "FDUSDUSDC"},
			stable:    []string{"USDC", "USDT", "FDUSD"},
			maxSize:   25,
			expected:  []string{"BTCUSDC"},
		},
		{
			name:      "pairs of other quotes ignored",
			ranked:    []string{"BTC", "ETH"},
			tradeable: []string{"BTCUSDT", "ETHUSDC"},
			stable:    defaultStables,
			maxSize:   25,
			expected:  []string{"ETHUSDC"},
		},
		{
			name:      "case and duplicates normalised",
			ranked:    []string{"btc", "BTC", " eth "},
			tradeable: []string{"btcusdc", "ETHUSDC"},
			stable:    defaultStables,
			maxSize:   25,
			expected:  []string{"BTCUSDC", "ETHUSDC"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(tt.ranked, tt.tradeable, tt.stable, "USDC", tt.maxSize)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Symbols())
		})
	}
}

func TestSelect_Bounds(t *testing.T) {
	var ranked, tradeable []string
	for i := 0; i < 60; i++ {
		symbol := fmt.Sprintf("C%02d", i)
		ranked = append(ranked, symbol)
		if i%2 == 0 {
			tradeable = append(tradeable, symbol+"USDC")
		}
	}
	tradeSet := make(map[string]bool)
	for _, s := range tradeable {
		tradeSet[s] = true
	}

	got, err := Select(ranked, tradeable, defaultStables, "USDC", 25)
	require.NoError(t, err)
	assert.Len(t, got, 25)
	for _, p := range got {
		assert.True(t, tradeSet[p.Symbol()], "%s is not tradeable", p.Symbol())
		assert.Equal(t, "USDC", p.To)
	}

	again, err := Select(ranked, tradeable, defaultStables, "USDC", 25)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestSelect_Errors(t *testing.T) {
	_, err := Select([]string{"BTC"}, []string{"ETHUSDC"}, defaultStables, "USDC", 25)
	assert.ErrorIs(t, err, domain.ErrEmptyUniverse)

	_, err = Select([]string{"USDT"}, []string{"USDTUSDC"}, defaultStables, "USDC", 25)
	assert.ErrorIs(t, err, domain.ErrEmptyUniverse)

	_, err = Select([]string{"BTC"}, []string{"BTCUSDC"}, defaultStables, "USDC", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = Select([]string{"BTC"}, []string{"BTCUSDC"}, defaultStables, "", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
