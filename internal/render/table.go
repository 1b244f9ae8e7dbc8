package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Table renders the waypoint table shown next to the map
func Table(views []View) string {
	rows := make([][]string, len(views))
	for i, v := range views {
		rows[i] = []string{v.ID, v.CoordinatesLabel(), v.DistanceLabel()}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("WP", "Coordinates", "Distance").
		Rows(rows...).
		String()
}
