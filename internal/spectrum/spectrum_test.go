package spectrum

import (
	"errors"
	"fmt"
	"testing"
)

func fact(test, fn string, failed bool) CoverageFact {
	return CoverageFact{Test: test, Function: fn, Failed: failed, Passed: !failed}
}

func TestAggregate_CountsPerFunction(t *testing.T) {
	facts := []CoverageFact{
		fact("t1", "A", true),
		fact("t1", "B", true),
		fact("t2", "A", true),
		fact("t3", "B", false),
		fact("t4", "B", false),
		fact("t4", "C", false),
	}

	got, err := Aggregate(facts)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	want := []FunctionRecord{
		{Function: "A", Occurrences: 2, Failures: 2, Successes: 0},
		{Function: "B", Occurrences: 3, Failures: 1, Successes: 2},
		{Function: "C", Occurrences: 1, Failures: 0, Successes: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAggregate_FirstSeenOrder(t *testing.T) {
	facts := []CoverageFact{
		fact("t1", "zeta", false),
		fact("t1", "alpha", false),
		fact("t2", "mid", true),
		fact("t2", "alpha", true),
	}

	got, err := Aggregate(facts)
	if err != nil {
		t.Fatal(err)
	}
	order := []string{"zeta", "alpha", "mid"}
	for i, name := range order {
		if got[i].Function != name {
			t.Errorf("position %d = %q, want %q", i, got[i].Function, name)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	got, err := Aggregate(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected non-nil empty slice")
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestAggregate_InvalidFact(t *testing.T) {
	tests := []struct {
		name string
		fact CoverageFact
	}{
		{"both", CoverageFact{Test: "t", Function: "f", Failed: true, Passed: true}},
		{"neither", CoverageFact{Test: "t", Function: "f"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate([]CoverageFact{fact("ok", "g", true), tt.fact})
			if !errors.Is(err, ErrInvalidFact) {
				t.Fatalf("expected ErrInvalidFact, got %v", err)
			}
		})
	}
}

func TestAggregate_InvariantHolds(t *testing.T) {
	var facts []CoverageFact
	for i := 0; i < 200; i++ {
		facts = append(facts, fact(
			fmt.Sprintf("t%d", i%17),
			fmt.Sprintf("fn%d", i%23),
			i%3 == 0,
		))
	}

	records, err := Aggregate(facts)
	if err != nil {
		t.Fatal(err)
	}
	if err := Validate(records); err != nil {
		t.Fatalf("aggregated records violate invariant: %v", err)
	}

	total := 0
	for _, r := range records {
		total += r.Occurrences
	}
	if total != len(facts) {
		t.Errorf("occurrences sum to %d, want %d", total, len(facts))
	}
}

func TestValidate_DetectsBrokenRecord(t *testing.T) {
	tests := []struct {
		name string
		rec  FunctionRecord
	}{
		{"sum mismatch", FunctionRecord{Function: "f", Occurrences: 3, Failures: 1, Successes: 1}},
		{"zero occurrences", FunctionRecord{Function: "f"}},
		{"negative", FunctionRecord{Function: "f", Occurrences: 1, Failures: 2, Successes: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]FunctionRecord{
				{Function: "ok", Occurrences: 1, Successes: 1},
				tt.rec,
			})
			if !errors.Is(err, ErrInvariant) {
				t.Fatalf("expected ErrInvariant, got %v", err)
			}
		})
	}
}

func TestTally_DistinctTests(t *testing.T) {
	var tally Tally
	if !tally.Observe("a", true) {
		t.Error("first observation of a should be new")
	}
	tally.Observe("b", false)
	tally.Observe("c", false)
	if tally.Observe("a", false) {
		t.Error("repeat observation of a should not be new")
	}

	got := tally.Freeze()
	want := GlobalCounters{FailedTests: 1, PassedTests: 2}
	if got != want {
		t.Errorf("Freeze() = %+v, want %+v", got, want)
	}
	if got.Tests() != 3 {
		t.Errorf("Tests() = %d, want 3", got.Tests())
	}

	failed, ok := tally.Outcome("a")
	if !ok || !failed {
		t.Errorf("Outcome(a) = %t, %t; want true, true", failed, ok)
	}
	if _, ok := tally.Outcome("missing"); ok {
		t.Error("Outcome(missing) should not be found")
	}
}

func TestTally_FreezeIsSnapshot(t *testing.T) {
	var tally Tally
	tally.Observe("a", true)
	snap := tally.Freeze()
	tally.Observe("b", true)

	if snap.FailedTests != 1 {
		t.Errorf("snapshot changed after later observation: %+v", snap)
	}
}
