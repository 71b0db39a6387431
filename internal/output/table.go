package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RenderTable renders rows under headers; rows whose last cell is non-empty in
// errorColumn are drawn in the error style.
func RenderTable(headers []string, rows [][]string, errorColumn int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(debugStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Inherit(headerStyle)
			}
			if errorColumn >= 0 && row >= 0 && row < len(rows) && errorColumn < len(rows[row]) && rows[row][errorColumn] != "" {
				return base.Inherit(errorStyle)
			}
			return base
		})
	return t.Render()
}
