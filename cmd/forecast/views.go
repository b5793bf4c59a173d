package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-forecast/internal/pipeline"
	"github.com/rxtech-lab/argo-forecast/pkg/marketdata"
)

// RenderReport renders a pipeline report as styled text.
func RenderReport(report pipeline.Report) string {
	var b strings.Builder

	req := report.Request
	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s · %s", req.Symbol, req.Strategy)))
	b.WriteString("\n")

	if report.Series.IsEmpty() {
		b.WriteString(HelpStyle.Render("no price history"))
		b.WriteString("\n")
	} else {
		first, last := report.Series.Bars[0].Date, report.Series.Last().Date
		b.WriteString(HelpStyle.Render(fmt.Sprintf("%d bars from %s to %s", report.Series.Len(),
			first.Format("2006-01-02"), last.Format("2006-01-02"))))
		b.WriteString("\n\n")
		b.WriteString(renderSummary(report))
		b.WriteString("\n")
	}

	if len(report.HorizonProjections) > 0 {
		b.WriteString("\n")
		b.WriteString(renderProjections(report))
		b.WriteString("\n")
	}

	for _, w := range report.Warnings {
		b.WriteString(WarningStyle.Render("! " + w))
		b.WriteString("\n")
	}

	if report.Error != nil {
		b.WriteString(ErrorStyle.Render("error: " + report.Error.Error()))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderSummary(report pipeline.Report) string {
	rows := [][]string{
		{"Current price", fmt.Sprintf("%.4f", report.CurrentPrice)},
	}

	if report.Forecast.IsSome() {
		result := report.Forecast.Unwrap()

		label := fmt.Sprintf("Forecast (+%d)", len(result.PointForecasts))
		if result.Degenerate {
			label += " [fallback]"
		}

		rows = append(rows, []string{label, FormatPriceChange(report.ForecastPrice, report.CurrentPrice)})

		if result.BacktestError.IsSome() {
			rows = append(rows, []string{"Backtest MAPE", fmt.Sprintf("%.2f%%", result.BacktestError.Unwrap()*100)})
		}
	}

	rows = append(rows, []string{"Signal", FormatSignal(report.Signal)})

	if report.ExpectedReturn.IsSome() {
		estimate := report.ExpectedReturn.Unwrap()
		rows = append(rows,
			[]string{"Expected return", estimate.PercentageReturn.StringFixed(2) + "%"},
			[]string{"Expected gain", estimate.MonetaryGain.StringFixed(2)},
		)
	}

	if report.Projection.IsSome() {
		projection := report.Projection.Unwrap()
		rows = append(rows, []string{
			fmt.Sprintf("Projected value (%s)", projection.Mode),
			projection.Value.StringFixed(2),
		})
	}

	if report.ReturnStats.IsSome() {
		stats := report.ReturnStats.Unwrap()
		rows = append(rows,
			[]string{"Mean daily return", fmt.Sprintf("%.4f%%", stats.MeanDailyReturn*100)},
			[]string{"Daily volatility", fmt.Sprintf("%.4f%%", stats.StdDev*100)},
		)
	}

	if report.Backtest.IsSome() {
		metrics := report.Backtest.Unwrap()
		rows = append(rows, []string{
			"Replayed decisions",
			fmt.Sprintf("%d total, %d buy, %d sell, %d hold", metrics.TotalTrades, metrics.BuyCount, metrics.SellCount, metrics.HoldCount),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Rows(rows...).
		Render()
}

func renderProjections(report pipeline.Report) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Horizon", "Projected value")

	for _, p := range report.HorizonProjections {
		t.Row(fmt.Sprintf("%d days", p.HorizonDays), p.Value.StringFixed(2))
	}

	return t.Render()
}

// RenderProviders renders the provider list.
func RenderProviders(infos []marketdata.ProviderInfo) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Name", "Provider", "Auth", "Description")

	for _, info := range infos {
		auth := "no"
		if info.RequiresAuth {
			auth = "api key"
		}

		t.Row(info.Name, info.DisplayName, auth, info.Description)
	}

	return t.Render()
}
