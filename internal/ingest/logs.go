package ingest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unbound-force/sbfl/internal/spectrum"
)

// LoadLogs reads every regular file in dir as a coverage log. Files
// are processed in name order so fact order is reproducible.
//
// A log consists of test headers and function lines. A header is a
// line whose last field is "true" (the test passed) or "false" (it
// failed); the header's first field is the fully qualified test name
// (pkg.Class.testName) and identifies the test. Every other non-blank
// line names a function covered by the most recent test.
func LoadLogs(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading coverage logs: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var tally spectrum.Tally
	facts := newFactSet()
	for _, name := range names {
		if err := scanLog(filepath.Join(dir, name), &tally, facts); err != nil {
			return nil, err
		}
	}

	return &Result{
		Facts:  facts.facts,
		Totals: tally.Freeze(),
		Files:  len(names),
	}, nil
}

func scanLog(path string, tally *spectrum.Tally, facts *factSet) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening coverage log: %w", err)
	}
	defer f.Close()

	var (
		test   string
		failed bool
		inTest bool
		lineNo int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if name, passed, ok := parseHeader(line); ok {
			test, failed, inTest = name, !passed, true
			if !tally.Observe(test, failed) {
				if prev, _ := tally.Outcome(test); prev != failed {
					return fmt.Errorf("%w: %w: %s:%d: test %q reported both passing and failing",
						ErrMalformedLog, ErrConflictingOutcome, path, lineNo, test)
				}
			}
			continue
		}

		if !inTest {
			return fmt.Errorf("%w: %s:%d: function %q appears before any test header",
				ErrMalformedLog, path, lineNo, line)
		}
		facts.add(test, line, failed)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning %s: %w", path, err)
	}
	return nil
}

// parseHeader recognizes "pkg.Class.testName ... true|false" and
// returns the qualified name. Classes in different packages may share
// method names, so the short name alone does not identify a test.
func parseHeader(line string) (name string, passed, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false, false
	}
	switch fields[len(fields)-1] {
	case "true":
		passed = true
	case "false":
		passed = false
	default:
		return "", false, false
	}

	name = fields[0]
	if strings.HasSuffix(name, ".") {
		return "", false, false
	}
	return name, passed, true
}
