package tui

import (
	"fmt"
	"strings"

	"github.com/docker/go-units"
	"github.com/seventv/slide-inverter/task"
)

type SummaryRow struct {
	Label string
	Value string
}

// BatchSummary lists the counts and archive size of a finished batch.
func BatchSummary(res task.BatchResult, archivePath string) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Presentations", Value: fmt.Sprint(res.Total)},
		{Label: "Converted", Value: fmt.Sprint(res.Successful)},
		{Label: "Failed", Value: fmt.Sprint(res.Total - res.Successful)},
		{Label: "Archive size", Value: units.HumanSize(float64(len(res.Archive)))},
	}
	if archivePath != "" {
		rows = append(rows, SummaryRow{Label: "Archive", Value: archivePath})
	}

	return rows
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
		if len(row.Value) > valueWidth {
			valueWidth = len(row.Value)
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value)))
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// RenderWarnings prints each warning on its own line, failures first.
func RenderWarnings(res task.BatchResult) string {
	lines := []string{}
	for _, r := range res.Results {
		if r.Success() {
			continue
		}
		for _, w := range r.Warnings {
			lines = append(lines, failureStyle.Render(fmt.Sprintf("x %s: %s", r.Filename, w)))
		}
	}
	for _, r := range res.Results {
		if !r.Success() {
			continue
		}
		for _, w := range r.Warnings {
			lines = append(lines, warnStyle.Render(fmt.Sprintf("! %s: %s", r.Filename, w)))
		}
	}

	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
