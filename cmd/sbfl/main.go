package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/unbound-force/sbfl/internal/config"
	"github.com/unbound-force/sbfl/internal/history"
	"github.com/unbound-force/sbfl/internal/ingest"
	"github.com/unbound-force/sbfl/internal/report"
	"github.com/unbound-force/sbfl/internal/scaffold"
	"github.com/unbound-force/sbfl/internal/spectrum"
	"github.com/unbound-force/sbfl/internal/suspicion"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "sbfl",
		Short: "sbfl: spectrum-based fault localization",
		Long: `sbfl ranks functions by how strongly their coverage correlates
with failing tests. It aggregates per-test coverage into a spectrum,
scores every function with the Tarantula, SBI, Jaccard and Ochiai
formulas, and combines the four rankings into a composite.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(charmlog.DebugLevel)
			}
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default: "+config.DefaultFile+" if present)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	root.AddCommand(newRankCmd(&configPath))
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newHistoryCmd(&configPath))
	return root
}

// rankParams holds the resolved settings for the rank command.
type rankParams struct {
	cfg         *config.Config
	formulas    []suspicion.Formula
	moduleDir   string
	interactive bool
	sequential  bool
	now         func() time.Time
	stdout      io.Writer
	stderr      io.Writer
}

// runRank is the extracted, testable body of the rank command.
func runRank(ctx context.Context, p rankParams) error {
	cfg := p.cfg
	if cfg.Output.Format != "text" && cfg.Output.Format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", cfg.Output.Format)
	}
	if p.now == nil {
		p.now = time.Now
	}

	logger.Info("loading coverage", "source", cfg.Ingest.Source, "dir", cfg.Ingest.Dir)
	in, err := ingest.Load(ingest.Options{
		Source:    ingest.Source(cfg.Ingest.Source),
		Dir:       cfg.Ingest.Dir,
		TestJSON:  cfg.Ingest.TestJSON,
		ModuleDir: p.moduleDir,
	})
	if err != nil {
		return err
	}
	logger.Debug("ingestion complete", "files", in.Files, "facts", len(in.Facts),
		"failed", in.Totals.FailedTests, "passed", in.Totals.PassedTests)
	if in.Skipped > 0 {
		logger.Warn("skipped unusable inputs", "count", in.Skipped)
	}

	records, err := spectrum.Aggregate(in.Facts)
	if err != nil {
		return err
	}

	result, err := suspicion.Analyze(ctx, records, in.Totals, suspicion.Options{
		Sequential: p.sequential,
	})
	if err != nil {
		return err
	}
	if result.Functions() == 0 {
		logger.Warn("no covered functions found")
	} else {
		logger.Info("ranking complete", "functions", result.Functions())
	}

	if p.interactive {
		if err := runInteractiveRank(result, p.formulas); err != nil {
			return err
		}
	} else if err := writeRankReport(p.stdout, cfg.Output, p.formulas, result); err != nil {
		return err
	}

	if cfg.Output.Dir != "" {
		if err := report.WriteFiles(cfg.Output.Dir, result); err != nil {
			return fmt.Errorf("writing output files: %w", err)
		}
		logger.Info("wrote output files", "dir", cfg.Output.Dir)
	}

	if cfg.History.Enabled {
		id, err := recordRun(cfg.History.Path, history.NewRun(p.now(), cfg.Ingest.Source, result))
		if err != nil {
			return err
		}
		logger.Info("run recorded", "id", id)
	}
	return nil
}

// writeRankReport outputs the ranking in the configured format.
func writeRankReport(w io.Writer, out config.OutputConfig, formulas []suspicion.Formula, result *suspicion.Result) error {
	switch out.Format {
	case "json":
		return report.WriteJSON(w, result, version)
	default:
		return report.WriteTextOptions(w, result, report.TextOptions{
			Top:      out.Top,
			Formulas: formulas,
		})
	}
}

func recordRun(path string, run history.Run) (string, error) {
	store, err := history.Open(path)
	if err != nil {
		return "", err
	}
	defer store.Close()
	if err := store.Save(run); err != nil {
		return "", fmt.Errorf("saving run: %w", err)
	}
	return run.ID, nil
}

// parseFormulas resolves --formula values. Nil input selects all.
func parseFormulas(names []string) ([]suspicion.Formula, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]suspicion.Formula, 0, len(names))
	for _, n := range names {
		f, err := suspicion.ParseFormula(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func newRankCmd(configPath *string) *cobra.Command {
	var (
		source      string
		testJSON    string
		outputDir   string
		format      string
		top         int
		formulas    []string
		interactive bool
		record      bool
		sequential  bool
	)

	cmd := &cobra.Command{
		Use:   "rank [coverage-dir]",
		Short: "Rank functions by suspiciousness",
		Long: `Read per-test coverage from a directory, score every covered
function with each formula and print the rankings and the composite.

Settings come from the config file; flags given on the command line
override it. When an output directory is configured the per-formula
CSV tables, per-formula scatter plots, Composite.csv and a
max-suspiciousness chart are written there as well.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if len(args) == 1 {
				cfg.Ingest.Dir = args[0]
			}
			if flags.Changed("source") {
				cfg.Ingest.Source = source
			}
			if flags.Changed("test-json") {
				cfg.Ingest.TestJSON = testJSON
			}
			if flags.Changed("output-dir") {
				cfg.Output.Dir = outputDir
			}
			if flags.Changed("format") {
				cfg.Output.Format = format
			}
			if flags.Changed("top") {
				cfg.Output.Top = top
			}
			if flags.Changed("history") {
				cfg.History.Enabled = record
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			selected, err := parseFormulas(formulas)
			if err != nil {
				return err
			}

			moduleDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}

			return runRank(cmd.Context(), rankParams{
				cfg:         cfg,
				formulas:    selected,
				moduleDir:   moduleDir,
				interactive: interactive,
				sequential:  sequential,
				stdout:      cmd.OutOrStdout(),
				stderr:      cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "logs",
		"coverage source: logs or coverprofile")
	cmd.Flags().StringVar(&testJSON, "test-json", "",
		"go test -json output with test outcomes (coverprofile source)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "",
		"directory for CSV tables and chart (empty disables)")
	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")
	cmd.Flags().IntVar(&top, "top", 10,
		"rows per table in text output (0 = all)")
	cmd.Flags().StringSliceVar(&formulas, "formula", nil,
		"formula tables to print: tarantula, sbi, jaccard, ochiai (default: all)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"launch interactive TUI for browsing results")
	cmd.Flags().BoolVar(&record, "history", false,
		"record this run in the history database")
	cmd.Flags().BoolVar(&sequential, "sequential", false,
		"score formulas one after another instead of concurrently")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for sbfl rank output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of sbfl rank --format=json output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter " + config.DefaultFile,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := scaffold.Run(scaffold.Options{
				Force:   force,
				Version: version,
				Stdout:  cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"overwrite an existing config file")
	return cmd
}

// historyParams holds the parsed flags for the history subcommands.
type historyParams struct {
	path   string
	id     string
	format string
	top    int
	stdout io.Writer
}

// runHistoryList prints every recorded run, newest first.
func runHistoryList(p historyParams) error {
	store, err := history.Open(p.path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(p.stdout, "No runs recorded.")
		return nil
	}

	styles := report.NewStyles(lipgloss.NewRenderer(p.stdout))
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.Local().Format(time.DateTime),
			r.Source,
			fmt.Sprintf("%d", r.Totals.FailedTests),
			fmt.Sprintf("%d", r.Totals.PassedTests),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeader
			}
			return lipgloss.NewStyle()
		}).
		Headers("ID", "CREATED", "SOURCE", "FAIL", "PASS").
		Rows(rows...)

	fmt.Fprintln(p.stdout, t)
	return nil
}

// runHistoryShow prints one recorded run. The id "latest" selects the
// newest run.
func runHistoryShow(p historyParams) error {
	if p.format != "text" && p.format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", p.format)
	}

	store, err := history.Open(p.path)
	if err != nil {
		return err
	}
	defer store.Close()

	var run *history.Run
	if p.id == "latest" {
		run, err = store.Latest()
	} else {
		run, err = store.Load(p.id)
	}
	if err != nil {
		return err
	}

	if p.format == "json" {
		enc := json.NewEncoder(p.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	fmt.Fprintf(p.stdout, "Run %s (%s): %d failing, %d passing tests\n\n",
		run.ID, run.Source, run.Totals.FailedTests, run.Totals.PassedTests)
	return report.WriteCompositeText(p.stdout, run.Composite, p.top)
}

func newHistoryCmd(configPath *string) *cobra.Command {
	var path string

	// resolvePath prefers --path over the config file.
	resolvePath := func(cmd *cobra.Command) (string, error) {
		if cmd.Flags().Changed("path") {
			return path, nil
		}
		cfg, err := config.Load(*configPath)
		if err != nil {
			return "", err
		}
		return cfg.History.Path, nil
	}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded ranking runs",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "",
		"history database (default: history.path from config)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePath(cmd)
			if err != nil {
				return err
			}
			return runHistoryList(historyParams{path: p, stdout: cmd.OutOrStdout()})
		},
	}

	var (
		format string
		top    int
	)
	show := &cobra.Command{
		Use:   "show <id|latest>",
		Short: "Show the composite ranking of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePath(cmd)
			if err != nil {
				return err
			}
			return runHistoryShow(historyParams{
				path:   p,
				id:     args[0],
				format: format,
				top:    top,
				stdout: cmd.OutOrStdout(),
			})
		},
	}
	show.Flags().StringVar(&format, "format", "text",
		"output format: text or json")
	show.Flags().IntVar(&top, "top", 10,
		"rows to show (0 = all)")

	cmd.AddCommand(list, show)
	return cmd
}
