// Package spectrum turns raw per-test coverage facts into the
// per-function program spectrum consumed by the suspiciousness
// formulas.
//
// A spectrum row counts, for one function, how many tests covered it
// and how those tests ended. The row is built once per run and is
// read-only afterwards.
package spectrum

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFact reports a coverage fact whose outcome flags are
	// not exactly one of failed/passed.
	ErrInvalidFact = errors.New("invalid coverage fact")

	// ErrInvariant reports a function record whose counts do not add
	// up. Aggregate never produces one; seeing it means a record was
	// built or altered elsewhere.
	ErrInvariant = errors.New("function record invariant violated")
)

// CoverageFact records that a function executed during a test,
// together with that test's outcome.
type CoverageFact struct {
	// Test is the name of the covering test.
	Test string `json:"test"`

	// Function identifies the covered function.
	Function string `json:"function"`

	// Failed is true when the covering test failed.
	Failed bool `json:"failed"`

	// Passed is true when the covering test passed.
	Passed bool `json:"passed"`
}

// FunctionRecord is one aggregated spectrum row.
type FunctionRecord struct {
	Function    string `json:"function"`
	Occurrences int    `json:"occurrence_count"`
	Failures    int    `json:"failure_count"`
	Successes   int    `json:"success_count"`
}

// Check reports whether r satisfies the record invariant:
// Occurrences == Failures + Successes and Occurrences >= 1.
func (r FunctionRecord) Check() error {
	if r.Occurrences < 1 {
		return fmt.Errorf("%w: %q has occurrence count %d",
			ErrInvariant, r.Function, r.Occurrences)
	}
	if r.Failures < 0 || r.Successes < 0 {
		return fmt.Errorf("%w: %q has negative counts (failures=%d, successes=%d)",
			ErrInvariant, r.Function, r.Failures, r.Successes)
	}
	if r.Occurrences != r.Failures+r.Successes {
		return fmt.Errorf("%w: %q occurrences %d != failures %d + successes %d",
			ErrInvariant, r.Function, r.Occurrences, r.Failures, r.Successes)
	}
	return nil
}

// Aggregate groups facts by function and counts occurrences,
// failures and successes. Records are returned in order of each
// function's first appearance in facts. An empty input yields an
// empty, non-nil slice.
func Aggregate(facts []CoverageFact) ([]FunctionRecord, error) {
	records := make([]FunctionRecord, 0)
	index := make(map[string]int)

	for i, f := range facts {
		if f.Failed == f.Passed {
			return nil, fmt.Errorf("%w: fact %d (test %q, function %q) has failed=%t passed=%t",
				ErrInvalidFact, i, f.Test, f.Function, f.Failed, f.Passed)
		}

		pos, ok := index[f.Function]
		if !ok {
			pos = len(records)
			index[f.Function] = pos
			records = append(records, FunctionRecord{Function: f.Function})
		}

		rec := &records[pos]
		rec.Occurrences++
		if f.Failed {
			rec.Failures++
		} else {
			rec.Successes++
		}
	}

	return records, nil
}

// Validate checks every record's invariant and returns the first
// violation found.
func Validate(records []FunctionRecord) error {
	for _, r := range records {
		if err := r.Check(); err != nil {
			return err
		}
	}
	return nil
}
