package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/ui/style"
)

// SummaryRow is one line of the per-pair summary printed after a run.
type SummaryRow struct {
	Pair   string
	Status string
	Detail string
	Failed bool
}

var (
	pairStyle   = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(style.Green)
	failStyle   = lipgloss.NewStyle().Foreground(style.Red)
	detailStyle = lipgloss.NewStyle().Foreground(style.Slate)
)

// RenderSummary renders the per-pair results as an aligned table.
func RenderSummary(rows []SummaryRow) string {
	if len(rows) == 0 {
		return ""
	}

	pairWidth := 0
	statusWidth := 0
	for _, row := range rows {
		pairWidth = max(pairWidth, len(row.Pair))
		statusWidth = max(statusWidth, len(row.Status))
	}

	var builder strings.Builder
	for _, row := range rows {
		icon := okStyle.Render(style.Check)
		status := okStyle.Render(pad(row.Status, statusWidth))
		if row.Failed {
			icon = failStyle.Render(style.Cross)
			status = failStyle.Render(pad(row.Status, statusWidth))
		}

		line := fmt.Sprintf("%s %s  %s", icon, pairStyle.Render(pad(row.Pair, pairWidth)), status)
		if row.Detail != "" {
			line += "  " + detailStyle.Render(row.Detail)
		}
		builder.WriteString(line + "\n")
	}
	return builder.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
