// Package suspicion scores aggregated program spectra with the
// classical spectrum-based fault localization formulas and ranks
// functions by how suspicious they are.
//
// With f the failing tests that cover a function, p the passing tests
// that cover it, TF all failing tests and TP all passing tests:
//
//	Tarantula = (f/TF) / ((f/TF) + (p/TP))
//	SBI       = f / (f + p)
//	Jaccard   = f / (TF + p)
//	Ochiai    = f / sqrt(TF * (f + p))
//
// Every score lies in [0, 1]. Higher means more suspicious.
package suspicion

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/unbound-force/sbfl/internal/spectrum"
)

// ErrPrecondition reports run-wide totals or a record that would make
// a formula undefined or out of range.
var ErrPrecondition = errors.New("scoring precondition violated")

// Formula identifies one suspiciousness formula.
type Formula string

// Supported formulas, in composite column order.
const (
	Tarantula Formula = "Tarantula"
	SBI       Formula = "SBI"
	Jaccard   Formula = "Jaccard"
	Ochiai    Formula = "Ochiai"
)

// Formulas lists every supported formula in report order.
var Formulas = []Formula{Tarantula, SBI, Jaccard, Ochiai}

// ParseFormula resolves a formula name, ignoring case.
func ParseFormula(name string) (Formula, error) {
	for _, f := range Formulas {
		if strings.EqualFold(name, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown formula %q: must be one of tarantula, sbi, jaccard, ochiai", name)
}

// Score computes the formula for a single record. The caller must
// have checked totals with CheckTotals and the record with
// CheckRecord; Score itself does no validation.
func (f Formula) Score(rec spectrum.FunctionRecord, totals spectrum.GlobalCounters) float64 {
	fails := float64(rec.Failures)
	passes := float64(rec.Successes)
	totalFail := float64(totals.FailedTests)
	totalPass := float64(totals.PassedTests)

	switch f {
	case Tarantula:
		failRatio := fails / totalFail
		return failRatio / (failRatio + passes/totalPass)
	case SBI:
		return fails / (fails + passes)
	case Jaccard:
		return fails / (totalFail + passes)
	case Ochiai:
		return fails / sqrtNonNeg(totalFail*(fails+passes))
	default:
		panic(fmt.Sprintf("suspicion: unknown formula %q", string(f)))
	}
}

// sqrtNonNeg is math.Sqrt restricted to non-negative arguments.
func sqrtNonNeg(x float64) float64 {
	if x < 0 {
		panic(fmt.Sprintf("suspicion: square root of negative value %g", x))
	}
	return math.Sqrt(x)
}

// CheckTotals rejects totals that leave any formula undefined. A run
// without failing tests has no fault signal; a run without passing
// tests cannot weigh Tarantula's pass ratio.
func CheckTotals(totals spectrum.GlobalCounters) error {
	if totals.FailedTests <= 0 {
		return fmt.Errorf("%w: no failing tests (total_failed_tests=%d)",
			ErrPrecondition, totals.FailedTests)
	}
	if totals.PassedTests <= 0 {
		return fmt.Errorf("%w: no passing tests (total_passed_tests=%d)",
			ErrPrecondition, totals.PassedTests)
	}
	return nil
}

// CheckRecord rejects a record that claims more covering failing
// (passing) tests than the run has failing (passing) tests.
func CheckRecord(rec spectrum.FunctionRecord, totals spectrum.GlobalCounters) error {
	if rec.Failures > totals.FailedTests {
		return fmt.Errorf("%w: %q covered by %d failing tests but the run has only %d",
			ErrPrecondition, rec.Function, rec.Failures, totals.FailedTests)
	}
	if rec.Successes > totals.PassedTests {
		return fmt.Errorf("%w: %q covered by %d passing tests but the run has only %d",
			ErrPrecondition, rec.Function, rec.Successes, totals.PassedTests)
	}
	return nil
}
