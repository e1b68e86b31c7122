package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/sbfl/internal/suspicion"
)

// Scatter grid bounds. Counts beyond them are binned.
const (
	scatterCols = 24
	scatterRows = 10
)

// scoreShades go from low to high suspiciousness.
var scoreShades = []string{"░", "▒", "▓", "█"}

// WriteScatter plots one ranking with success count on the x axis and
// failure count on the y axis. Each cell is shaded by the highest
// score among the functions that fall into it.
func WriteScatter(w io.Writer, f suspicion.Formula, ranking []suspicion.ScoredRecord) error {
	s := NewStyles(lipgloss.NewRenderer(w))

	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("%s: failures vs successes", f)))
	if len(ranking) == 0 {
		fmt.Fprintln(w, s.Muted.Render("No functions ranked."))
		return nil
	}

	var maxF, maxP int
	for _, r := range ranking {
		maxF = max(maxF, r.Failures)
		maxP = max(maxP, r.Successes)
	}
	cols := min(scatterCols, maxP+1)
	rows := min(scatterRows, maxF+1)

	grid := make([][]float64, rows)
	for y := range grid {
		grid[y] = make([]float64, cols)
		for x := range grid[y] {
			grid[y][x] = -1
		}
	}
	for _, r := range ranking {
		y := bin(r.Failures, maxF, rows)
		x := bin(r.Successes, maxP, cols)
		grid[y][x] = max(grid[y][x], r.Score)
	}

	for y := rows - 1; y >= 0; y-- {
		label := ""
		switch y {
		case rows - 1:
			label = fmt.Sprintf("%d", maxF)
		case 0:
			label = "0"
		}
		var line strings.Builder
		for _, score := range grid[y] {
			if score < 0 {
				line.WriteString("  ")
				continue
			}
			line.WriteString(s.ScoreStyle(score).Render(shade(score)))
			line.WriteString(" ")
		}
		if _, err := fmt.Fprintf(w, "%6s │%s\n", label, line.String()); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "%6s └%s\n", "", strings.Repeat("─", cols*2))
	fmt.Fprintf(w, "%6s  0%*d  successes\n", "", cols*2-2, maxP)
	fmt.Fprintln(w, s.Muted.Render("       ░ <0.25  ▒ <0.50  ▓ <0.75  █ >=0.75"))
	return nil
}

// bin maps v in [0, maxV] onto n buckets.
func bin(v, maxV, n int) int {
	return v * n / (maxV + 1)
}

func shade(score float64) string {
	i := int(score * float64(len(scoreShades)))
	return scoreShades[min(max(i, 0), len(scoreShades)-1)]
}
