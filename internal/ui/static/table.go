// Package static renders non-interactive terminal output.
package static

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

// columnGap separates columns.
const columnGap = 2

// RenderTable lays out rows under headers without borders, one line per row
// and a trailing newline. Columns whose zero-based index is in rightAligned
// are right-aligned (counts, sizes). Returns "" when there are no rows so
// callers can print the result unconditionally.
func RenderTable(headers []string, rows [][]string, rightAligned ...int) string {
	if len(rows) == 0 {
		return ""
	}

	right := make(map[int]bool, len(rightAligned))
	for _, col := range rightAligned {
		right[col] = true
	}
	last := len(headers) - 1

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle()
			if col != last {
				s = s.PaddingRight(columnGap)
			}
			if right[col] {
				s = s.Align(lipgloss.Right)
			}
			if row == table.HeaderRow {
				s = s.Bold(true)
			}
			return s
		})

	lines := strings.Split(t.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n") + "\n"
}
