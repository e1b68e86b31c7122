// Package scaffold writes a starter .sbfl.yaml into a project
// directory.
package scaffold

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/unbound-force/sbfl/internal/config"
)

//go:embed assets/sbfl.yaml
var defaultConfig []byte

// Options configures the scaffold operation.
type Options struct {
	// TargetDir is the directory to write into.
	// Defaults to the current working directory.
	TargetDir string

	// Force overwrites an existing config file when true.
	Force bool

	// Version is embedded in the marker comment. Defaults to "dev".
	Version string

	// Stdout is the writer for summary output.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// Result reports what the scaffold operation did.
type Result struct {
	// Path is the config file location.
	Path string

	// Created is true when the file did not exist before.
	Created bool

	// Skipped is true when an existing file was left alone.
	Skipped bool
}

// versionMarker returns the comment prepended to the scaffolded file.
func versionMarker(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("# scaffolded by sbfl %s\n", version)
}

// Run writes config.DefaultFile into opts.TargetDir. An existing file
// is skipped unless opts.Force is set.
func Run(opts Options) (*Result, error) {
	if opts.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.TargetDir = cwd
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	result := &Result{Path: filepath.Join(opts.TargetDir, config.DefaultFile)}

	_, statErr := os.Stat(result.Path)
	exists := statErr == nil
	if exists && !opts.Force {
		result.Skipped = true
		printSummary(opts.Stdout, result)
		return result, nil
	}

	if err := os.MkdirAll(opts.TargetDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", opts.TargetDir, err)
	}
	out := append([]byte(versionMarker(opts.Version)), defaultConfig...)
	if err := os.WriteFile(result.Path, out, 0o644); err != nil {
		return nil, fmt.Errorf("creating %s: %w", config.DefaultFile, err)
	}
	result.Created = !exists

	printSummary(opts.Stdout, result)
	return result, nil
}

func printSummary(w io.Writer, r *Result) {
	switch {
	case r.Skipped:
		fmt.Fprintf(w, "skipped: %s (already exists, use --force to overwrite)\n", config.DefaultFile)
	case r.Created:
		fmt.Fprintf(w, "created: %s\n", config.DefaultFile)
	default:
		fmt.Fprintf(w, "overwritten: %s\n", config.DefaultFile)
	}
}

// DefaultConfig returns the embedded starter config without the
// version marker.
func DefaultConfig() []byte {
	return append([]byte(nil), defaultConfig...)
}
