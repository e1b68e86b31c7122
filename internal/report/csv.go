package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/unbound-force/sbfl/internal/suspicion"
)

// ChartFile is the name of the chart written by WriteFiles.
const ChartFile = "max_suspiciousness.txt"

// ScatterFile is the name of the scatter plot WriteFiles writes for f.
func ScatterFile(f suspicion.Formula) string {
	return string(f) + "_scatter.txt"
}

var (
	rankingHeader = []string{
		"Function", "Occurrence_Count", "Failure_Count", "Success_Count", "Suspiciousness_Score",
	}
	compositeHeader = []string{
		"Function", "Occurrence_Count", "Failure_Count", "Success_Count",
		"Tarantula_Score", "SBI_Score", "Jaccard_Score", "Ochiai_Score", "Average_Score",
	}
)

// formatScore keeps full float64 precision.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteRankingCSV writes one formula's ranking as CSV.
func WriteRankingCSV(w io.Writer, ranking []suspicion.ScoredRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rankingHeader); err != nil {
		return err
	}
	for _, r := range ranking {
		if err := cw.Write([]string{
			r.Function,
			strconv.Itoa(r.Occurrences),
			strconv.Itoa(r.Failures),
			strconv.Itoa(r.Successes),
			formatScore(r.Score),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCompositeCSV writes the composite ranking as CSV.
func WriteCompositeCSV(w io.Writer, composite []suspicion.CompositeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(compositeHeader); err != nil {
		return err
	}
	for _, c := range composite {
		if err := cw.Write([]string{
			c.Function,
			strconv.Itoa(c.Occurrences),
			strconv.Itoa(c.Failures),
			strconv.Itoa(c.Successes),
			formatScore(c.Tarantula),
			formatScore(c.SBI),
			formatScore(c.Jaccard),
			formatScore(c.Ochiai),
			formatScore(c.Average),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiles writes <Formula>.csv and <Formula>_scatter.txt for each
// formula, Composite.csv and the chart into dir, creating dir if needed. A failure on one file
// does not stop the others; all failures are returned joined.
func WriteFiles(dir string, result *suspicion.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var errs []error
	for _, f := range suspicion.Formulas {
		ranking := result.Ranking(f)
		errs = append(errs, writeFile(filepath.Join(dir, string(f)+".csv"), func(w io.Writer) error {
			return WriteRankingCSV(w, ranking)
		}))
		errs = append(errs, writeFile(filepath.Join(dir, ScatterFile(f)), func(w io.Writer) error {
			return WriteScatter(w, f, ranking)
		}))
	}
	errs = append(errs, writeFile(filepath.Join(dir, "Composite.csv"), func(w io.Writer) error {
		return WriteCompositeCSV(w, result.Composite)
	}))
	errs = append(errs, writeFile(filepath.Join(dir, ChartFile), func(w io.Writer) error {
		return WriteChart(w, result)
	}))
	return errors.Join(errs...)
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", filepath.Base(path), cerr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
