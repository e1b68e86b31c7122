package suspicion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/unbound-force/sbfl/internal/spectrum"
)

func rec(name string, f, p int) spectrum.FunctionRecord {
	return spectrum.FunctionRecord{Function: name, Occurrences: f + p, Failures: f, Successes: p}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestFormula_Values(t *testing.T) {
	totals := spectrum.GlobalCounters{FailedTests: 4, PassedTests: 10}
	r := rec("f", 3, 2)

	tests := []struct {
		formula Formula
		want    float64
	}{
		// (3/4) / ((3/4) + (2/10)) = 0.75 / 0.95
		{Tarantula, 0.75 / 0.95},
		// 3 / 5
		{SBI, 0.6},
		// 3 / (4 + 2)
		{Jaccard, 0.5},
		// 3 / sqrt(4 * 5)
		{Ochiai, 3 / math.Sqrt(20)},
	}
	for _, tt := range tests {
		t.Run(string(tt.formula), func(t *testing.T) {
			got := tt.formula.Score(r, totals)
			if !near(got, tt.want) {
				t.Errorf("%s = %v, want %v", tt.formula, got, tt.want)
			}
		})
	}
}

func TestFormula_AllFailingVersusAllPassing(t *testing.T) {
	totals := spectrum.GlobalCounters{FailedTests: 2, PassedTests: 2}
	a := rec("FunctionA", 2, 0)
	b := rec("FunctionB", 0, 2)

	for _, f := range Formulas {
		if got := f.Score(a, totals); got != 1.0 {
			t.Errorf("%s(FunctionA) = %v, want 1.0", f, got)
		}
		if got := f.Score(b, totals); got != 0 {
			t.Errorf("%s(FunctionB) = %v, want 0", f, got)
		}
	}
}

func TestFormula_RangeProperty(t *testing.T) {
	for tf := 1; tf <= 6; tf++ {
		for tp := 1; tp <= 6; tp++ {
			totals := spectrum.GlobalCounters{FailedTests: tf, PassedTests: tp}
			for f := 0; f <= tf; f++ {
				for p := 0; p <= tp; p++ {
					if f+p == 0 {
						continue
					}
					r := rec("x", f, p)
					for _, formula := range Formulas {
						s := formula.Score(r, totals)
						if math.IsNaN(s) || s < 0 || s > 1 {
							t.Errorf("%s(f=%d,p=%d,TF=%d,TP=%d) = %v outside [0,1]",
								formula, f, p, tf, tp, s)
						}
					}
				}
			}
		}
	}
}

func TestParseFormula(t *testing.T) {
	for _, name := range []string{"tarantula", "SBI", "Jaccard", "OCHIAI"} {
		if _, err := ParseFormula(name); err != nil {
			t.Errorf("ParseFormula(%q): %v", name, err)
		}
	}
	if _, err := ParseFormula("dstar"); err == nil {
		t.Error("expected error for unknown formula")
	}
}

func TestCheckTotals(t *testing.T) {
	tests := []struct {
		name    string
		totals  spectrum.GlobalCounters
		wantErr bool
	}{
		{"valid", spectrum.GlobalCounters{FailedTests: 1, PassedTests: 1}, false},
		{"no failing", spectrum.GlobalCounters{FailedTests: 0, PassedTests: 3}, true},
		{"no passing", spectrum.GlobalCounters{FailedTests: 3, PassedTests: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTotals(tt.totals)
			if tt.wantErr && !errors.Is(err, ErrPrecondition) {
				t.Errorf("expected ErrPrecondition, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRank_SortedDescendingAndStable(t *testing.T) {
	totals := spectrum.GlobalCounters{FailedTests: 3, PassedTests: 3}
	records := []spectrum.FunctionRecord{
		rec("low", 0, 3),
		rec("tieFirst", 1, 1),
		rec("high", 3, 0),
		rec("tieSecond", 1, 1),
	}

	got, err := Rank(SBI, records, totals)
	if err != nil {
		t.Fatal(err)
	}

	order := []string{"high", "tieFirst", "tieSecond", "low"}
	for i, name := range order {
		if got[i].Function != name {
			t.Errorf("position %d = %q, want %q", i, got[i].Function, name)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("not descending at %d: %v > %v", i, got[i].Score, got[i-1].Score)
		}
	}
}

func TestRank_ZeroFailedTests(t *testing.T) {
	_, err := Rank(Ochiai, []spectrum.FunctionRecord{rec("f", 0, 1)},
		spectrum.GlobalCounters{FailedTests: 0, PassedTests: 1})
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
}

func TestRank_RecordExceedsTotals(t *testing.T) {
	_, err := Rank(Jaccard, []spectrum.FunctionRecord{rec("f", 3, 0)},
		spectrum.GlobalCounters{FailedTests: 2, PassedTests: 1})
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
}

func TestComposite_AverageIsMean(t *testing.T) {
	totals := spectrum.GlobalCounters{FailedTests: 5, PassedTests: 7}
	records := []spectrum.FunctionRecord{
		rec("a", 1, 4), rec("b", 5, 0), rec("c", 2, 7), rec("d", 3, 3),
	}
	res, err := Analyze(context.Background(), records, totals, Options{})
	if err != nil {
		t.Fatal(err)
	}

	for _, c := range res.Composite {
		r := recordByName(records, c.Function)
		want := (Tarantula.Score(r, totals) + SBI.Score(r, totals) +
			Jaccard.Score(r, totals) + Ochiai.Score(r, totals)) / 4
		if c.Average != want {
			t.Errorf("%s average = %v, want %v", c.Function, c.Average, want)
		}
		for _, f := range Formulas {
			if c.ScoreOf(f) != f.Score(r, totals) {
				t.Errorf("%s %s score = %v, want %v", c.Function, f, c.ScoreOf(f), f.Score(r, totals))
			}
		}
	}
}

// Equal averages keep the order in which functions were aggregated,
// not name order.
func TestComposite_TiesKeepAggregatedOrder(t *testing.T) {
	totals := spectrum.GlobalCounters{FailedTests: 2, PassedTests: 2}
	records := []spectrum.FunctionRecord{
		rec("zeta", 1, 1),
		rec("bottom", 0, 2),
		rec("alpha", 1, 1),
		rec("top", 2, 0),
	}

	for _, sequential := range []bool{false, true} {
		res, err := Analyze(context.Background(), records, totals, Options{Sequential: sequential})
		if err != nil {
			t.Fatal(err)
		}
		order := []string{"top", "zeta", "alpha", "bottom"}
		for i, name := range order {
			if res.Composite[i].Function != name {
				t.Errorf("sequential=%t: position %d = %q, want %q",
					sequential, i, res.Composite[i].Function, name)
			}
		}
		if res.Composite[1].Average != res.Composite[2].Average {
			t.Errorf("expected tied averages, got %v and %v",
				res.Composite[1].Average, res.Composite[2].Average)
		}
	}
}

func TestComposite_MissingFunction(t *testing.T) {
	records := []spectrum.FunctionRecord{rec("a", 1, 0), rec("b", 0, 1)}
	scored := map[Formula][]ScoredRecord{}
	for _, f := range Formulas {
		scored[f] = []ScoredRecord{{Function: "a", Score: 1}, {Function: "b"}}
	}
	scored[Jaccard] = scored[Jaccard][:1]

	_, err := Composite(records, scored)
	if !errors.Is(err, ErrIncompleteJoin) {
		t.Fatalf("expected ErrIncompleteJoin, got %v", err)
	}
}

func TestAnalyze_Scenario(t *testing.T) {
	totals := spectrum.GlobalCounters{FailedTests: 2, PassedTests: 2}
	records := []spectrum.FunctionRecord{rec("FunctionB", 0, 2), rec("FunctionA", 2, 0)}

	res, err := Analyze(context.Background(), records, totals, Options{})
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range Formulas {
		ranking := res.Ranking(f)
		if len(ranking) != 2 {
			t.Fatalf("%s: got %d rows, want 2", f, len(ranking))
		}
		if ranking[0].Function != "FunctionA" || ranking[0].Score != 1 {
			t.Errorf("%s: first = %+v, want FunctionA with 1.0", f, ranking[0])
		}
		if ranking[1].Function != "FunctionB" || ranking[1].Score != 0 {
			t.Errorf("%s: second = %+v, want FunctionB with 0", f, ranking[1])
		}
	}
	if res.Composite[0].Function != "FunctionA" || res.Composite[0].Average != 1 {
		t.Errorf("composite first = %+v, want FunctionA with 1.0", res.Composite[0])
	}
	if res.Composite[1].Average != 0 {
		t.Errorf("composite second average = %v, want 0", res.Composite[1].Average)
	}
}

func TestAnalyze_ZeroFailedTests(t *testing.T) {
	res, err := Analyze(context.Background(),
		[]spectrum.FunctionRecord{rec("f", 0, 2)},
		spectrum.GlobalCounters{FailedTests: 0, PassedTests: 2},
		Options{})
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result on error, got %+v", res)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	res, err := Analyze(context.Background(), nil, spectrum.GlobalCounters{}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, f := range Formulas {
		if got := res.Ranking(f); got == nil || len(got) != 0 {
			t.Errorf("%s: expected empty non-nil ranking, got %v", f, got)
		}
	}
	if res.Composite == nil || len(res.Composite) != 0 {
		t.Errorf("expected empty composite, got %v", res.Composite)
	}
}

func TestAnalyze_InvariantViolation(t *testing.T) {
	bad := spectrum.FunctionRecord{Function: "f", Occurrences: 5, Failures: 1, Successes: 1}
	_, err := Analyze(context.Background(), []spectrum.FunctionRecord{bad},
		spectrum.GlobalCounters{FailedTests: 1, PassedTests: 1}, Options{})
	if !errors.Is(err, spectrum.ErrInvariant) {
		t.Fatalf("expected ErrInvariant, got %v", err)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	totals := spectrum.GlobalCounters{FailedTests: 9, PassedTests: 31}
	var records []spectrum.FunctionRecord
	for i := 0; i < 150; i++ {
		records = append(records, rec(fmt.Sprintf("fn%03d", i), i%10, i%32))
	}
	// Drop records with no coverage at all; they cannot come from
	// aggregation.
	valid := records[:0]
	for _, r := range records {
		if r.Occurrences > 0 {
			valid = append(valid, r)
		}
	}

	parallel, err := Analyze(context.Background(), valid, totals, Options{})
	if err != nil {
		t.Fatal(err)
	}
	again, err := Analyze(context.Background(), valid, totals, Options{})
	if err != nil {
		t.Fatal(err)
	}
	sequential, err := Analyze(context.Background(), valid, totals, Options{Sequential: true})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(parallel, again) {
		t.Error("two parallel runs differ")
	}
	if !reflect.DeepEqual(parallel, sequential) {
		t.Error("parallel and sequential runs differ")
	}
	if len(parallel.Composite) != len(valid) {
		t.Errorf("composite has %d rows, want %d", len(parallel.Composite), len(valid))
	}
	for i := 1; i < len(parallel.Composite); i++ {
		if parallel.Composite[i].Average > parallel.Composite[i-1].Average {
			t.Fatalf("composite not descending at %d", i)
		}
	}
}

func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Analyze(ctx, []spectrum.FunctionRecord{rec("f", 1, 0)},
		spectrum.GlobalCounters{FailedTests: 1, PassedTests: 1}, Options{Sequential: true})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func recordByName(records []spectrum.FunctionRecord, name string) spectrum.FunctionRecord {
	for _, r := range records {
		if r.Function == name {
			return r
		}
	}
	return spectrum.FunctionRecord{}
}
