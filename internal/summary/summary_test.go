package summary

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vadiminshakov/rebalancer/internal/domain"
)

func TestRender(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	final := domain.NewValuation()
	final.Add(domain.NewPosition("BTC", decimal.RequireFromString("0.002"), decimal.NewFromInt(50000)))
	final.Add(domain.NewPosition("USDC", decimal.NewFromInt(100), decimal.NewFromInt(1)))

	report := &domain.Report{
		Universe:       domain.Universe{domain.NewPair("BTC", "USDC"), domain.NewPair("ETH", "USDC")},
		InitialCapital: decimal.NewFromInt(200),
		Capital:        decimal.NewFromInt(200),
		Plan:           domain.AllocationPlan{PerPair: decimal.NewFromInt(100)},
		Orders: []*domain.Order{
			{Phase: domain.PhaseAcquisition, Pair: domain.NewPair("BTC", "USDC"), Action: domain.ActionBuy,
				Amount: decimal.RequireFromString("0.002"), Price: decimal.NewFromInt(50000), State: domain.OrderStateFilled},
			{Phase: domain.PhaseAcquisition, Pair: domain.NewPair("ETH", "USDC"), Action: domain.ActionBuy,
				Amount: decimal.RequireFromString("0.05"), Price: decimal.NewFromInt(2000), State: domain.OrderStateFailed},
		},
		Final:      final,
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
	}

	out := Render(report, "USDC", true)

	assert.Contains(t, out, "REBALANCE SUMMARY (LIVE)")
	assert.Contains(t, out, "BTC, ETH")
	assert.Contains(t, out, "200.00 USDC")
	assert.Contains(t, out, "BTC_USDC")
	assert.Contains(t, out, "filled: 1, failed: 1")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "3s")
}

func TestRender_NoOrders(t *testing.T) {
	report := &domain.Report{Final: domain.NewValuation()}

	out := Render(report, "USDC", false)

	assert.Contains(t, out, "REBALANCE SUMMARY (SIMULATION)")
	assert.Contains(t, out, "portfolio within tolerance")
	assert.Contains(t, out, "0.00 USDC")
}
