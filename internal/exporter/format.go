package exporter

import (
	"strconv"
)

// formatFloat renders a tonnage value with the shortest representation that
// round-trips, so no precision is lost between runs.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
