package ingest

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/cover"
)

// profileExts are the file extensions treated as coverage profiles.
var profileExts = map[string]bool{".out": true, ".cov": true, ".coverprofile": true}

// LoadCoverProfiles builds facts from a directory of per-test Go
// coverage profiles. Each profile is named after its test
// (TestParse.out) and holds the coverage of running only that test.
// Outcomes come from the go test -json file at testJSON. A file name
// carries no package, so a test name used in two packages of the
// stream cannot be matched and fails with ErrAmbiguousTest.
//
// A function is covered by a test when at least one of its statements
// executed. Functions are identified as "<import dir>.<name>", with
// methods written "(*T).Method" as in the CRAP report.
func LoadCoverProfiles(dir, testJSON, moduleDir string) (*Result, error) {
	if moduleDir == "" {
		moduleDir, _ = os.Getwd()
	}

	jf, err := os.Open(testJSON)
	if err != nil {
		return nil, fmt.Errorf("opening test results: %w", err)
	}
	defer jf.Close()

	outcomes, err := ParseTestOutcomes(jf)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading coverage profiles: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && profileExts[filepath.Ext(e.Name())] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	res := &Result{Skipped: outcomes.Malformed}
	facts := newFactSet()
	extents := newExtentCache(moduleDir)

	for _, name := range names {
		res.Files++
		test, failed, ok, err := outcomes.Resolve(strings.TrimSuffix(name, filepath.Ext(name)))
		if err != nil {
			return nil, fmt.Errorf("coverage profile %s: %w", name, err)
		}
		if !ok {
			// Skipped or unknown test; it has no outcome to score.
			res.Skipped++
			continue
		}

		profiles, err := cover.ParseProfiles(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("parsing coverage profile %s: %w", name, err)
		}

		for _, profile := range profiles {
			funcs, ok := extents.lookup(profile.FileName)
			if !ok {
				res.Skipped++
				continue
			}
			pkg := path.Dir(profile.FileName)
			for _, fn := range funcs {
				if fnCovered(fn, profile) {
					facts.add(test, pkg+"."+fn.name, failed)
				}
			}
		}
	}

	res.Facts = facts.facts
	res.Totals = outcomes.Tally.Freeze()
	return res, nil
}

// extentCache memoizes function extents per profile file name so a
// source file is parsed once for the whole run.
type extentCache struct {
	moduleDir  string
	modulePath string
	files      map[string][]funcExtent
}

func newExtentCache(moduleDir string) *extentCache {
	return &extentCache{
		moduleDir:  moduleDir,
		modulePath: readModulePath(moduleDir),
		files:      make(map[string][]funcExtent),
	}
}

// lookup returns the functions declared in the source file behind a
// profile file name. It reports false when the file cannot be found
// or parsed.
func (c *extentCache) lookup(profileName string) ([]funcExtent, bool) {
	if funcs, ok := c.files[profileName]; ok {
		return funcs, funcs != nil
	}
	var funcs []funcExtent
	if filePath := resolveFilePath(profileName, c.moduleDir, c.modulePath); filePath != "" {
		if found, err := findFunctions(filePath); err == nil {
			funcs = found
		}
	}
	c.files[profileName] = funcs
	return funcs, funcs != nil
}

// funcExtent describes a function's source position.
type funcExtent struct {
	name      string
	startLine int
	startCol  int
	endLine   int
	endCol    int
}

// findFunctions parses a Go source file and returns the extent of
// each function declaration with a body.
func findFunctions(filePath string) ([]funcExtent, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filePath, nil, 0)
	if err != nil {
		return nil, err
	}

	funcs := []funcExtent{}
	ast.Inspect(f, func(n ast.Node) bool {
		fn, ok := n.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			return true
		}
		start := fset.Position(fn.Pos())
		end := fset.Position(fn.End())

		name := fn.Name.Name
		if fn.Recv != nil && fn.Recv.NumFields() > 0 {
			name = "(" + recvTypeString(fn.Recv.List[0].Type) + ")." + name
		}

		funcs = append(funcs, funcExtent{
			name:      name,
			startLine: start.Line,
			startCol:  start.Column,
			endLine:   end.Line,
			endCol:    end.Column,
		})
		return true
	})
	return funcs, nil
}

// recvTypeString extracts the receiver type as a string.
func recvTypeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return "*" + recvTypeString(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return recvTypeString(t.X) + "[" + recvTypeString(t.Index) + "]"
	case *ast.IndexListExpr:
		params := make([]string, len(t.Indices))
		for i, idx := range t.Indices {
			params[i] = recvTypeString(idx)
		}
		return recvTypeString(t.X) + "[" + strings.Join(params, ",") + "]"
	default:
		return "?"
	}
}

// fnCovered reports whether any block overlapping fn executed.
// Profile blocks are sorted by position.
func fnCovered(fn funcExtent, profile *cover.Profile) bool {
	for _, b := range profile.Blocks {
		// Block entirely after the function.
		if b.StartLine > fn.endLine || (b.StartLine == fn.endLine && b.StartCol >= fn.endCol) {
			break
		}
		// Block entirely before the function.
		if b.EndLine < fn.startLine || (b.EndLine == fn.startLine && b.EndCol <= fn.startCol) {
			continue
		}
		if b.Count > 0 && b.NumStmt > 0 {
			return true
		}
	}
	return false
}

// resolveFilePath maps a profile file name (absolute, or relative to
// the module path like "example.com/mod/pkg/file.go") to a file on
// disk. It returns "" when no file is found.
func resolveFilePath(profileName, moduleDir, modulePath string) string {
	if filepath.IsAbs(profileName) {
		if _, err := os.Stat(profileName); err == nil {
			return profileName
		}
		return ""
	}
	if modulePath == "" || !strings.HasPrefix(profileName, modulePath+"/") {
		return ""
	}
	rel := strings.TrimPrefix(profileName, modulePath+"/")
	abs := filepath.Join(moduleDir, filepath.FromSlash(rel))
	if _, err := os.Stat(abs); err != nil {
		return ""
	}
	return abs
}

// readModulePath reads the module path from go.mod in dir.
func readModulePath(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "module"))
		}
	}
	return ""
}
