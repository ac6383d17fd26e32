package cli

import (
	"fmt"
	"strings"

	"quantbt/internal/models"
)

// EquityCurveASCII renders the NAV series of a run as a terminal
// chart.
func EquityCurveASCII(curve []models.AccountSnapshot, width, height int) string {
	if len(curve) == 0 {
		return "No data to display"
	}
	if width <= 0 {
		width = 60
	}
	if height <= 0 {
		height = 12
	}

	minNAV := curve[0].NAV
	maxNAV := curve[0].NAV
	for _, point := range curve {
		if point.NAV < minNAV {
			minNAV = point.NAV
		}
		if point.NAV > maxNAV {
			maxNAV = point.NAV
		}
	}

	// Pad the range so the line never hugs the frame
	navRange := maxNAV - minNAV
	if navRange == 0 {
		navRange = 1
	}
	minNAV -= navRange * 0.05
	maxNAV += navRange * 0.05
	navRange = maxNAV - minNAV

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	// Sample points to fit width
	step := len(curve) / width
	if step == 0 {
		step = 1
	}

	for x := 0; x < width && x*step < len(curve); x++ {
		point := curve[x*step]
		y := int((point.NAV - minNAV) / navRange * float64(height-1))
		if y >= 0 && y < height {
			grid[height-1-y][x] = '█'
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Equity Curve (%.0f - %.0f)\n", minNAV, maxNAV))
	sb.WriteString(strings.Repeat("─", width+2) + "\n")
	for _, row := range grid {
		sb.WriteRune('│')
		sb.WriteString(string(row))
		sb.WriteRune('│')
		sb.WriteRune('\n')
	}
	sb.WriteString(strings.Repeat("─", width+2) + "\n")
	sb.WriteString(fmt.Sprintf("%s  →  %s\n",
		curve[0].Timestamp.Format("2006-01-02"),
		curve[len(curve)-1].Timestamp.Format("2006-01-02")))

	return sb.String()
}
