// Package summary renders the outcome of a rebalancing run for the terminal.
package summary

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/rebalancer/internal/domain"
)

var (
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F87"}
	subtle    = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(highlight).MarginTop(1)
	labelStyle   = lipgloss.NewStyle().Foreground(subtle)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	okStyle      = cellStyle.Foreground(special)
	failedStyle  = cellStyle.Foreground(warning)
	skippedStyle = cellStyle.Foreground(subtle)
)

var stateOrder = []domain.OrderState{
	domain.OrderStateFilled,
	domain.OrderStatePartial,
	domain.OrderStateSimulated,
	domain.OrderStateSkippedBelowMin,
	domain.OrderStateSkippedInsufficientFunds,
	domain.OrderStateFailed,
}

// Render formats the report as plain text with terminal styling.
func Render(report *domain.Report, quote string, tradingEnabled bool) string {
	var b strings.Builder

	mode := "SIMULATION"
	if tradingEnabled {
		mode = "LIVE"
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("REBALANCE SUMMARY (%s)", mode)))
	b.WriteString("\n")

	writeField(&b, "universe", strings.Join(lo.Map(report.Universe, func(p domain.Pair, _ int) string {
		return p.From
	}), ", "))
	writeField(&b, "initial capital", money(report.InitialCapital, quote))
	writeField(&b, "capital after liquidation", money(report.Capital, quote))
	writeField(&b, "target per pair", money(report.Plan.PerPair, quote))
	writeField(&b, "duration", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond).String())

	if len(report.Orders) > 0 {
		b.WriteString(titleStyle.Render("ORDERS"))
		b.WriteString("\n")
		b.WriteString(ordersTable(report.Orders))
		b.WriteString("\n")

		counts := make([]string, 0, len(stateOrder))
		for _, s := range stateOrder {
			if n := report.Count(s); n > 0 {
				counts = append(counts, fmt.Sprintf("%s: %d", s, n))
			}
		}
		writeField(&b, "outcome", strings.Join(counts, ", "))
	} else {
		writeField(&b, "orders", "none, portfolio within tolerance")
	}

	b.WriteString(titleStyle.Render("ACCOUNT"))
	b.WriteString("\n")
	b.WriteString(holdingsTable(report.Final))
	b.WriteString("\n")
	writeField(&b, "total", money(report.Final.Total, quote))

	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label + ":"))
	b.WriteString(" ")
	b.WriteString(value)
	b.WriteString("\n")
}

func money(v decimal.Decimal, quote string) string {
	return v.StringFixed(2) + " " + quote
}

func ordersTable(orders []*domain.Order) string {
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			string(o.Phase),
			o.Pair.String(),
			o.Action.String(),
			o.Amount.String(),
			o.Value().StringFixed(2),
			string(o.State),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(labelStyle).
		Headers("PHASE", "PAIR", "SIDE", "AMOUNT", "VALUE", "STATE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col != 5 {
				return cellStyle
			}
			switch domain.OrderState(rows[row][5]) {
			case domain.OrderStateFilled, domain.OrderStateSimulated:
				return okStyle
			case domain.OrderStateFailed, domain.OrderStatePartial:
				return failedStyle
			default:
				return skippedStyle
			}
		}).
		String()
}

func holdingsTable(v domain.Valuation) string {
	assets := lo.Keys(v.Positions)
	sort.Slice(assets, func(i, j int) bool {
		return v.Positions[assets[i]].Value.GreaterThan(v.Positions[assets[j]].Value)
	})

	rows := make([][]string, 0, len(assets))
	for _, asset := range assets {
		p := v.Positions[asset]
		weight := decimal.Zero
		if v.Total.IsPositive() {
			weight = p.Value.Div(v.Total).Mul(decimal.NewFromInt(100))
		}
		rows = append(rows, []string{asset, p.Amount.String(), p.Value.StringFixed(2), weight.StringFixed(1) + "%"})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(labelStyle).
		Headers("ASSET", "AMOUNT", "VALUE", "WEIGHT").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}
