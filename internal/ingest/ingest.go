// Package ingest reads raw coverage data from disk and produces the
// coverage facts and test totals that the scoring pipeline consumes.
//
// Two sources are supported: directories of plain-text coverage logs
// (one file per test, a pass/fail header followed by the covered
// functions) and directories of per-test Go coverage profiles paired
// with a go test -json stream that supplies each test's outcome.
package ingest

import (
	"errors"
	"fmt"
	"os"

	"github.com/unbound-force/sbfl/internal/spectrum"
)

// ErrMalformedLog reports a coverage log that cannot be attributed to
// a test.
var ErrMalformedLog = errors.New("malformed coverage log")

// ErrConflictingOutcome reports a test recorded as both passing and
// failing in one run.
var ErrConflictingOutcome = errors.New("conflicting test outcome")

// ErrAmbiguousTest reports a coverage profile whose file name matches
// tests in more than one package.
var ErrAmbiguousTest = errors.New("ambiguous test name")

// Source names an ingestion format.
type Source string

// Supported sources.
const (
	SourceLogs         Source = "logs"
	SourceCoverProfile Source = "coverprofile"
)

// Result holds everything ingestion learned about a run.
type Result struct {
	// Facts has one entry per (test, covered function) pair.
	Facts []spectrum.CoverageFact

	// Totals counts distinct failing and passing tests, whether or
	// not they covered any function.
	Totals spectrum.GlobalCounters

	// Files is the number of input files read.
	Files int

	// Skipped counts inputs that were ignored: unparseable JSON
	// events, profiles with no matching test outcome, and unreadable
	// source files.
	Skipped int
}

// Options configures Load.
type Options struct {
	// Source selects the input format. Default: SourceLogs.
	Source Source

	// Dir is the directory holding coverage logs or profiles.
	Dir string

	// TestJSON is the go test -json output file. Required for
	// SourceCoverProfile.
	TestJSON string

	// ModuleDir is the module root used to resolve profile file
	// names. Defaults to the current directory.
	ModuleDir string
}

// Load ingests the directory described by opts.
func Load(opts Options) (*Result, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("no coverage directory given")
	}
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("coverage directory %q: %w", opts.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("coverage directory %q is a file, not a directory", opts.Dir)
	}

	switch opts.Source {
	case SourceLogs, "":
		return LoadLogs(opts.Dir)
	case SourceCoverProfile:
		if opts.TestJSON == "" {
			return nil, fmt.Errorf("source %q needs a go test -json file", opts.Source)
		}
		return LoadCoverProfiles(opts.Dir, opts.TestJSON, opts.ModuleDir)
	default:
		return nil, fmt.Errorf("invalid source %q: must be 'logs' or 'coverprofile'", opts.Source)
	}
}

// factSet collects facts, keeping one per (test, function) pair in
// insertion order.
type factSet struct {
	facts []spectrum.CoverageFact
	seen  map[[2]string]bool
}

func newFactSet() *factSet {
	return &factSet{seen: make(map[[2]string]bool)}
}

func (s *factSet) add(test, function string, failed bool) {
	key := [2]string{test, function}
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.facts = append(s.facts, spectrum.CoverageFact{
		Test:     test,
		Function: function,
		Failed:   failed,
		Passed:   !failed,
	})
}
