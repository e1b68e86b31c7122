package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/sbfl/internal/suspicion"
)

// TextOptions configures WriteTextOptions.
type TextOptions struct {
	// Top limits the rows shown per table. Zero shows every function.
	Top int

	// Formulas selects which per-formula tables to print. Nil prints
	// all four. The composite table is always printed.
	Formulas []suspicion.Formula

	// Styles overrides the theme. Nil derives one from the writer, so
	// output to files and pipes stays plain.
	Styles *Styles
}

// Column budgets keep tables within 80 columns. Cells have no padding;
// borders take one column per column boundary.
const (
	maxRankingFunc   = 52
	maxCompositeFunc = 42
)

// WriteText writes every ranking and the composite as styled tables,
// top rows each, followed by a summary.
func WriteText(w io.Writer, result *suspicion.Result, top int) error {
	return WriteTextOptions(w, result, TextOptions{Top: top})
}

// WriteTextOptions writes result as human-readable styled text.
func WriteTextOptions(w io.Writer, result *suspicion.Result, opts TextOptions) error {
	s := resolveStyles(w, opts.Styles)

	if result.Functions() == 0 {
		fmt.Fprintln(w, s.Muted.Render("No functions ranked."))
		return nil
	}

	formulas := opts.Formulas
	if formulas == nil {
		formulas = suspicion.Formulas
	}
	for _, f := range formulas {
		writeRanking(w, f, result.Ranking(f), opts.Top, s)
		fmt.Fprintln(w)
	}
	writeComposite(w, result.Composite, opts.Top, s)

	writeSummary(w, Summarize(result), s)
	return nil
}

// WriteCompositeText writes only the composite table, top rows of it.
func WriteCompositeText(w io.Writer, composite []suspicion.CompositeRecord, top int) error {
	s := resolveStyles(w, nil)
	if len(composite) == 0 {
		fmt.Fprintln(w, s.Muted.Render("No functions ranked."))
		return nil
	}
	writeComposite(w, composite, top, s)
	return nil
}

func resolveStyles(w io.Writer, override *Styles) Styles {
	if override != nil {
		return *override
	}
	return NewStyles(lipgloss.NewRenderer(w))
}

func limit(n, top int) int {
	if top > 0 && top < n {
		return top
	}
	return n
}

func writeRanking(w io.Writer, f suspicion.Formula, ranking []suspicion.ScoredRecord, top int, s Styles) {
	shown := ranking[:limit(len(ranking), top)]
	fmt.Fprintln(w, s.Header.Render(
		fmt.Sprintf("--- %s (top %d of %d) ---", f, len(shown), len(ranking))))

	rows := make([][]string, 0, len(shown))
	for i, r := range shown {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.3f", r.Score),
			fmt.Sprintf("%d", r.Failures),
			fmt.Sprintf("%d", r.Successes),
			truncateLeft(r.Function, maxRankingFunc),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 1 && row >= 0 && row < len(shown) {
				return s.ScoreStyle(shown[row].Score)
			}
			return lipgloss.NewStyle()
		}).
		Headers("RANK", "SCORE", "FAIL", "PASS", "FUNCTION").
		Rows(rows...)

	fmt.Fprintln(w, t)
}

func writeComposite(w io.Writer, composite []suspicion.CompositeRecord, top int, s Styles) {
	shown := composite[:limit(len(composite), top)]
	fmt.Fprintln(w, s.Header.Render(
		fmt.Sprintf("--- Composite (top %d of %d) ---", len(shown), len(composite))))

	rows := make([][]string, 0, len(shown))
	for i, c := range shown {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.3f", c.Average),
			fmt.Sprintf("%.3f", c.Tarantula),
			fmt.Sprintf("%.3f", c.SBI),
			fmt.Sprintf("%.3f", c.Jaccard),
			fmt.Sprintf("%.3f", c.Ochiai),
			truncateLeft(c.Function, maxCompositeFunc),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 1 && row >= 0 && row < len(shown) {
				return s.ScoreStyle(shown[row].Average)
			}
			return lipgloss.NewStyle()
		}).
		Headers("RANK", "AVG", "TARAN", "SBI", "JACC", "OCHIAI", "FUNCTION").
		Rows(rows...)

	fmt.Fprintln(w, t)
}

func writeSummary(w io.Writer, sum Summary, s Styles) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Header.Render("--- Summary ---"))
	fmt.Fprintf(w, "%s  %d\n", s.SummaryLabel.Render("Functions ranked:"), sum.Functions)
	fmt.Fprintf(w, "%s  %d\n", s.SummaryLabel.Render("Failing tests:"), sum.FailedTests)
	fmt.Fprintf(w, "%s  %d\n", s.SummaryLabel.Render("Passing tests:"), sum.PassedTests)
	if sum.MostSuspicious != nil {
		fmt.Fprintf(w, "%s  %s %s\n",
			s.SummaryLabel.Render("Most suspicious:"),
			truncateLeft(sum.MostSuspicious.Function, 48),
			s.Muted.Render(fmt.Sprintf("(avg %.3f)", sum.MostSuspicious.Average)))
	}
}

// truncateLeft shortens s to at most n runes, keeping the tail, which
// holds the most specific part of a qualified function name.
func truncateLeft(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[len(r)-n:])
	}
	return "..." + string(r[len(r)-(n-3):])
}
