// Package report renders scored fault localization results as CSV
// tables, JSON, styled terminal text and terminal charts.
//
// Writers only read the suspicion.Result they are given.
package report

import (
	"github.com/unbound-force/sbfl/internal/suspicion"
)

// FormulaMax is the highest score one formula assigned.
type FormulaMax struct {
	Formula  string  `json:"formula"`
	Function string  `json:"function"`
	Score    float64 `json:"score"`
}

// Summary holds aggregate statistics for a result.
type Summary struct {
	Functions      int                        `json:"functions"`
	FailedTests    int                        `json:"failed_tests"`
	PassedTests    int                        `json:"passed_tests"`
	MaxScores      []FormulaMax               `json:"max_scores"`
	MostSuspicious *suspicion.CompositeRecord `json:"most_suspicious,omitempty"`
}

// Summarize computes the summary of result. MaxScores has one entry
// per formula, in report order, when any function was ranked.
func Summarize(result *suspicion.Result) Summary {
	s := Summary{
		Functions:   result.Functions(),
		FailedTests: result.Totals.FailedTests,
		PassedTests: result.Totals.PassedTests,
		MaxScores:   []FormulaMax{},
	}
	if len(result.Composite) == 0 {
		return s
	}

	for _, f := range suspicion.Formulas {
		// Rankings are sorted, so the first row holds the maximum.
		top := result.Ranking(f)[0]
		s.MaxScores = append(s.MaxScores, FormulaMax{
			Formula:  string(f),
			Function: top.Function,
			Score:    top.Score,
		})
	}
	top := result.Composite[0]
	s.MostSuspicious = &top
	return s
}
