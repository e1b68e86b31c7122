package spectrum

// GlobalCounters holds the run-wide number of failing and passing
// tests. It is a frozen snapshot taken after ingestion finishes.
type GlobalCounters struct {
	FailedTests int `json:"total_failed_tests"`
	PassedTests int `json:"total_passed_tests"`
}

// Tests returns the total number of tests with an outcome.
func (g GlobalCounters) Tests() int {
	return g.FailedTests + g.PassedTests
}

// Tally accumulates test outcomes while raw input is being scanned.
// Each distinct test name is counted once; the first outcome seen for
// a name wins. The zero value is ready to use.
type Tally struct {
	seen   map[string]bool
	failed int
	passed int
}

// Observe records the outcome of the named test. It reports whether
// the name was new.
func (t *Tally) Observe(test string, failed bool) bool {
	if t.seen == nil {
		t.seen = make(map[string]bool)
	}
	if _, dup := t.seen[test]; dup {
		return false
	}
	t.seen[test] = failed
	if failed {
		t.failed++
	} else {
		t.passed++
	}
	return true
}

// Outcome returns the recorded outcome of the named test and whether
// it has been observed.
func (t *Tally) Outcome(test string) (failed, ok bool) {
	failed, ok = t.seen[test]
	return failed, ok
}

// Freeze returns the immutable counters for everything observed so
// far.
func (t *Tally) Freeze() GlobalCounters {
	return GlobalCounters{FailedTests: t.failed, PassedTests: t.passed}
}
