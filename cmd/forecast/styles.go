package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-forecast/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for secondary text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	// WarningStyle for warnings.
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	buyStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	sellStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	holdStyle = lipgloss.NewStyle().Bold(true)
)

// FormatSignal renders a signal in its color.
func FormatSignal(signal types.SignalType) string {
	switch signal {
	case types.SignalTypeBuy:
		return buyStyle.Render("BUY")
	case types.SignalTypeSell:
		return sellStyle.Render("SELL")
	default:
		return holdStyle.Render("HOLD")
	}
}

// FormatPriceChange formats a price with an arrow based on comparison with the reference price.
func FormatPriceChange(current, reference float64) string {
	priceStr := fmt.Sprintf("%.4f", current)

	if reference == 0 {
		return priceStr
	}

	if current > reference {
		return priceStr + " ▲"
	} else if current < reference {
		return priceStr + " ▼"
	}

	return priceStr
}
