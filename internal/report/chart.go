package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/sbfl/internal/suspicion"
)

// chartWidth is the bar length of a score of 1.0.
const chartWidth = 50

// WriteChart draws the highest score each formula found as a
// horizontal bar chart.
func WriteChart(w io.Writer, result *suspicion.Result) error {
	return writeChart(w, result, NewStyles(lipgloss.NewRenderer(w)))
}

func writeChart(w io.Writer, result *suspicion.Result, s Styles) error {
	sum := Summarize(result)

	fmt.Fprintln(w, s.Header.Render("Max Suspiciousness Found"))
	if len(sum.MaxScores) == 0 {
		fmt.Fprintln(w, s.Muted.Render("No functions ranked."))
		return nil
	}

	for _, m := range sum.MaxScores {
		n := int(math.Round(m.Score * chartWidth))
		bar := strings.Repeat("█", n) + strings.Repeat("·", chartWidth-n)
		if _, err := fmt.Fprintf(w, "%-10s %s %.3f\n", m.Formula, s.Bar.Render(bar), m.Score); err != nil {
			return err
		}
	}
	fmt.Fprintln(w, s.Muted.Render(
		fmt.Sprintf("%-10s %s", "", "0"+strings.Repeat(" ", chartWidth-2)+"1")))
	return nil
}
