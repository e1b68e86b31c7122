package suspicion

import (
	"errors"
	"fmt"
	"sort"

	"github.com/unbound-force/sbfl/internal/spectrum"
)

// ErrIncompleteJoin reports a function missing from one of the scored
// sets when building the composite ranking.
var ErrIncompleteJoin = errors.New("scored sets do not cover the same functions")

// ScoredRecord is one function's score under a single formula.
type ScoredRecord struct {
	Function    string  `json:"function"`
	Occurrences int     `json:"occurrence_count"`
	Failures    int     `json:"failure_count"`
	Successes   int     `json:"success_count"`
	Score       float64 `json:"suspiciousness_score"`
}

// CompositeRecord carries all four scores for a function and their
// mean.
type CompositeRecord struct {
	Function    string  `json:"function"`
	Occurrences int     `json:"occurrence_count"`
	Failures    int     `json:"failure_count"`
	Successes   int     `json:"success_count"`
	Tarantula   float64 `json:"tarantula_score"`
	SBI         float64 `json:"sbi_score"`
	Jaccard     float64 `json:"jaccard_score"`
	Ochiai      float64 `json:"ochiai_score"`
	Average     float64 `json:"average_score"`
}

// ScoreOf returns the record's score for the given formula.
func (c CompositeRecord) ScoreOf(f Formula) float64 {
	switch f {
	case Tarantula:
		return c.Tarantula
	case SBI:
		return c.SBI
	case Jaccard:
		return c.Jaccard
	case Ochiai:
		return c.Ochiai
	}
	return 0
}

// Rank scores every record with f and returns the results sorted by
// score, highest first. Equal scores keep the order of records.
// Totals and records are checked before any score is computed.
func Rank(f Formula, records []spectrum.FunctionRecord, totals spectrum.GlobalCounters) ([]ScoredRecord, error) {
	if len(records) == 0 {
		return []ScoredRecord{}, nil
	}
	if err := CheckTotals(totals); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := CheckRecord(rec, totals); err != nil {
			return nil, err
		}
	}
	return rank(f, records, totals), nil
}

// rank is Rank without validation.
func rank(f Formula, records []spectrum.FunctionRecord, totals spectrum.GlobalCounters) []ScoredRecord {
	scored := make([]ScoredRecord, len(records))
	for i, rec := range records {
		scored[i] = ScoredRecord{
			Function:    rec.Function,
			Occurrences: rec.Occurrences,
			Failures:    rec.Failures,
			Successes:   rec.Successes,
			Score:       f.Score(rec, totals),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// Composite joins the four scored sets on function and ranks the
// functions by their average score, highest first. Equal averages keep
// the order of records. Every record must appear in every scored set.
func Composite(records []spectrum.FunctionRecord, scored map[Formula][]ScoredRecord) ([]CompositeRecord, error) {
	lookup := make(map[Formula]map[string]float64, len(Formulas))
	for _, f := range Formulas {
		set, ok := scored[f]
		if !ok && len(records) > 0 {
			return nil, fmt.Errorf("%w: no %s scores", ErrIncompleteJoin, f)
		}
		byFunc := make(map[string]float64, len(set))
		for _, s := range set {
			byFunc[s.Function] = s.Score
		}
		lookup[f] = byFunc
	}

	out := make([]CompositeRecord, 0, len(records))
	for _, rec := range records {
		c := CompositeRecord{
			Function:    rec.Function,
			Occurrences: rec.Occurrences,
			Failures:    rec.Failures,
			Successes:   rec.Successes,
		}
		var scores [4]float64
		for i, f := range Formulas {
			s, ok := lookup[f][rec.Function]
			if !ok {
				return nil, fmt.Errorf("%w: %q has no %s score", ErrIncompleteJoin, rec.Function, f)
			}
			scores[i] = s
		}
		c.Tarantula, c.SBI, c.Jaccard, c.Ochiai = scores[0], scores[1], scores[2], scores[3]
		c.Average = (c.Tarantula + c.SBI + c.Jaccard + c.Ochiai) / 4
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Average > out[j].Average
	})
	return out, nil
}
