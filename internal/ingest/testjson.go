package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/unbound-force/sbfl/internal/spectrum"
)

// testEvent is the subset of a go test -json event ingestion needs.
type testEvent struct {
	Action  string `json:"Action"`
	Package string `json:"Package"`
	Test    string `json:"Test"`
}

// TestOutcomes holds the outcome of every top-level test in a go test
// -json stream. Tests are identified as "<package>.<TestName>", so
// equally named tests in different packages stay distinct.
type TestOutcomes struct {
	// Tally counts each test once under its qualified ID.
	Tally spectrum.Tally

	// Malformed is the number of lines that were not JSON events.
	Malformed int

	// byName maps a bare test name to its qualified IDs in first-seen
	// order.
	byName map[string][]string
}

func testID(pkg, test string) string {
	if pkg == "" {
		return test
	}
	return pkg + "." + test
}

// ParseTestOutcomes reads go test -json output. Subtests and
// package-level events are ignored. A test reported as both passing
// and failing (for example a flaky test under -count=2) is
// ErrConflictingOutcome, the same rule coverage logs follow.
func ParseTestOutcomes(r io.Reader) (*TestOutcomes, error) {
	out := &TestOutcomes{byName: make(map[string][]string)}

	scanner := bufio.NewScanner(r)
	// Allow large lines for verbose test output.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev testEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			out.Malformed++
			continue
		}
		if ev.Test == "" || strings.Contains(ev.Test, "/") {
			continue
		}
		if ev.Action != "pass" && ev.Action != "fail" {
			continue
		}

		id := testID(ev.Package, ev.Test)
		failed := ev.Action == "fail"
		if out.Tally.Observe(id, failed) {
			out.byName[ev.Test] = append(out.byName[ev.Test], id)
		} else if prev, _ := out.Tally.Outcome(id); prev != failed {
			return nil, fmt.Errorf("%w: test %q reported both passing and failing",
				ErrConflictingOutcome, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning test output: %w", err)
	}
	return out, nil
}

// Resolve maps a bare test name, as used for profile file names, to
// its qualified ID and outcome. ok is false when no such test has an
// outcome. A name shared by tests in several packages cannot be told
// apart and returns ErrAmbiguousTest.
func (o *TestOutcomes) Resolve(name string) (id string, failed, ok bool, err error) {
	ids := o.byName[name]
	switch len(ids) {
	case 0:
		return "", false, false, nil
	case 1:
		failed, _ = o.Tally.Outcome(ids[0])
		return ids[0], failed, true, nil
	default:
		return "", false, false, fmt.Errorf("%w: %q exists in %s",
			ErrAmbiguousTest, name, strings.Join(ids, ", "))
	}
}
