package suspicion

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/unbound-force/sbfl/internal/spectrum"
)

// Result is the complete output of one scoring run.
type Result struct {
	// Totals are the run-wide test counts the scores were computed
	// against.
	Totals spectrum.GlobalCounters `json:"totals"`

	// Tarantula, SBI, Jaccard and Ochiai each hold every function
	// sorted by that formula's score, highest first.
	Tarantula []ScoredRecord `json:"tarantula"`
	SBI       []ScoredRecord `json:"sbi"`
	Jaccard   []ScoredRecord `json:"jaccard"`
	Ochiai    []ScoredRecord `json:"ochiai"`

	// Composite holds every function sorted by average score,
	// highest first.
	Composite []CompositeRecord `json:"composite"`
}

// Ranking returns the scored set for f.
func (r *Result) Ranking(f Formula) []ScoredRecord {
	switch f {
	case Tarantula:
		return r.Tarantula
	case SBI:
		return r.SBI
	case Jaccard:
		return r.Jaccard
	case Ochiai:
		return r.Ochiai
	}
	return nil
}

// Functions returns the number of ranked functions.
func (r *Result) Functions() int {
	return len(r.Composite)
}

// Options configures Analyze.
type Options struct {
	// Sequential runs the four scoring passes one after another
	// instead of concurrently. Results are identical either way.
	Sequential bool
}

// Analyze scores records with every formula and builds the composite
// ranking. Records must be the complete output of aggregation and
// totals the frozen counters from ingestion.
//
// Empty records produce an empty Result without checking totals. Any
// invariant or precondition failure aborts the run; no partial result
// is returned.
func Analyze(ctx context.Context, records []spectrum.FunctionRecord, totals spectrum.GlobalCounters, opts Options) (*Result, error) {
	if len(records) == 0 {
		return &Result{
			Totals:    totals,
			Tarantula: []ScoredRecord{},
			SBI:       []ScoredRecord{},
			Jaccard:   []ScoredRecord{},
			Ochiai:    []ScoredRecord{},
			Composite: []CompositeRecord{},
		}, nil
	}

	if err := spectrum.Validate(records); err != nil {
		return nil, err
	}
	if err := CheckTotals(totals); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := CheckRecord(rec, totals); err != nil {
			return nil, err
		}
	}

	var sets [4][]ScoredRecord
	if opts.Sequential {
		for i, f := range Formulas {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			sets[i] = rank(f, records, totals)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for i, f := range Formulas {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				sets[i] = rank(f, records, totals)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	scored := make(map[Formula][]ScoredRecord, len(Formulas))
	for i, f := range Formulas {
		scored[f] = sets[i]
	}
	composite, err := Composite(records, scored)
	if err != nil {
		return nil, err
	}

	return &Result{
		Totals:    totals,
		Tarantula: sets[0],
		SBI:       sets[1],
		Jaccard:   sets[2],
		Ochiai:    sets[3],
		Composite: composite,
	}, nil
}
