package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/simonkoeck/branchdiff/pkg/compare"
	"github.com/simonkoeck/branchdiff/pkg/config"
	"github.com/simonkoeck/branchdiff/pkg/exitcode"
	"github.com/simonkoeck/branchdiff/pkg/git"
	"github.com/simonkoeck/branchdiff/pkg/logging"
	"github.com/simonkoeck/branchdiff/pkg/model"
	"github.com/simonkoeck/branchdiff/pkg/output"
	"github.com/simonkoeck/branchdiff/pkg/report"
	"github.com/simonkoeck/branchdiff/pkg/tui"
	"github.com/simonkoeck/branchdiff/pkg/ui"
)

// Package-level executor factory (replaceable for testing)
var newExecutor = func(dir string, timeout time.Duration) git.Executor {
	return git.NewExecutorWithTimeout(dir, timeout)
}

const previewWidth = 100

// exitError carries the exit code for a failure that ends the run.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fail(code int, err error) error {
	return &exitError{code: code, err: err}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the exit code to use.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ui.SetOutput(stdout)
	defer ui.SetOutput(nil)

	code := exitcode.Success
	root := newRootCmd(&code)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		ui.Error(err.Error())
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		// flag parsing and argument errors
		return exitcode.ConfigError
	}
	return code
}

func newRootCmd(code *int) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "branchdiff",
		Short: "Compare git branches by simulating merges",
		Long: `branchdiff simulates merging each configured branch pair on a temporary
branch, classifies every changed file as a semantic or formatting-only
change, and writes a report. The repository is always restored to the
branch it was on, even when a comparison fails.`,
		Example: `  branchdiff -r ./service -p development:master -p preprod:master
  branchdiff --pairs-file pairs.txt --bidirectional --format md
  branchdiff render results.json --format ipynb`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(config.New(), cmd.Flags(), configFile)
			if err != nil {
				return fail(exitcode.ConfigError, err)
			}
			c, err := runCompare(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			*code = c
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringP("repo", "r", ".", "path to the git repository")
	fs.StringSliceP("pairs", "p", nil, "branch pairs to compare as from:to (repeatable)")
	fs.String("pairs-file", "", "file with one from:to pair per line; wins over --pairs")
	fs.StringVarP(&configFile, "config", "c", "", "config file (default .branchdiff.yaml in the repository)")
	fs.StringP("output", "o", "", "report path, or - for stdout (default {repo}_comparison_report.{format})")
	fs.String("format", config.FormatNotebook, "report format: ipynb, md or json")
	fs.BoolP("bidirectional", "b", false, "also compare every pair in reverse")
	fs.BoolP("no-pull", "n", false, "do not pull branches from origin before comparing")
	fs.StringSlice("exclude", nil, "glob patterns of paths to leave out of the analysis")
	fs.Duration("timeout", 2*time.Minute, "timeout for each git command (0 disables it)")
	fs.String("log-level", "warn", "log level: debug, info, warn or error")
	fs.Bool("json-logs", false, "write logs as JSON")
	fs.String("log-file", "", "also write logs to this rotating file")
	fs.Bool("preview", false, "render the report in the terminal when done")
	fs.Bool("browse", false, "browse the results interactively when done")

	cmd.AddCommand(newRenderCmd(), newBrowseCmd())
	return cmd
}

func loadConfig(v *viper.Viper, fs *pflag.FlagSet, file string) (*config.Config, error) {
	if err := config.BindFlags(v, fs); err != nil {
		return nil, err
	}
	return config.Load(v, file)
}

func initLogging(cfg *config.Config, stderr io.Writer) {
	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLevel(cfg.LogLevel)
	lc.JSONFormat = cfg.LogJSON
	lc.Output = stderr
	lc.FilePath = cfg.LogFile
	logging.Init(lc)
}

// runCompare performs every configured comparison and writes the report.
// It returns the exit code for the run.
func runCompare(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) (int, error) {
	initLogging(cfg, stderr)
	if cfg.Output == "-" {
		// keep stdout for the report itself
		ui.SetOutput(stderr)
	}

	client, err := git.Open(ctx, cfg.Repo, newExecutor(cfg.Repo, cfg.Timeout))
	if err != nil {
		return exitcode.NotGitRepo, fail(exitcode.NotGitRepo, fmt.Errorf("%s is not inside a git repository", cfg.Repo))
	}

	pairs, err := cfg.BranchPairs()
	if err != nil {
		return exitcode.ConfigError, fail(exitcode.ConfigError, err)
	}

	ui.Header("Branch Comparison")
	ui.Step("Repository: " + client.Root())
	ui.PairList(pairs)
	if cfg.NoPull {
		ui.Step("Skipping remote sync (--no-pull)")
	}

	engine := compare.NewEngine(client, compare.Options{NoPull: cfg.NoPull, Exclude: cfg.Exclude})
	records := engine.CompareAll(ctx, pairs)
	for _, rec := range records {
		ui.ComparisonResult(rec)
	}
	ui.ComparisonTable(records)

	summary := output.Summarize(records)
	ui.Summary(summary)

	opts := report.Options{RunID: uuid.NewString(), Now: time.Now()}
	path := cfg.OutputPath(client.Root())
	if err := writeReport(path, cfg.Format, records, opts, stdout); err != nil {
		return exitcode.ReportError, fail(exitcode.ReportError, err)
	}
	if path != "-" {
		ui.Success("Report written to " + path)
	}

	if cfg.Preview {
		preview(records, opts, stdout)
	}
	if cfg.Browse {
		browse(records)
	}

	if ctx.Err() != nil {
		ui.Warning("Interrupted; remaining comparisons were not run")
		return exitcode.Interrupted, nil
	}
	return exitcode.FromSummary(summary), nil
}

// writeReport writes the report to path, creating parent directories.
// A path of "-" writes to stdout.
func writeReport(path, format string, records []*model.ComparisonRecord, opts report.Options, stdout io.Writer) (err error) {
	if path == "-" {
		return report.Generate(stdout, format, records, opts)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	if err := report.Generate(f, format, records, opts); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func preview(records []*model.ComparisonRecord, opts report.Options, stdout io.Writer) {
	rendered, err := report.Preview(report.Build(records, opts).Markdown(), "", previewWidth)
	if err != nil {
		ui.Warning(fmt.Sprintf("Could not render preview: %v", err))
		return
	}
	fmt.Fprint(stdout, rendered)
}

// browse opens the interactive browser when stdout is a terminal.
func browse(records []*model.ComparisonRecord) {
	if !tui.IsTerminal() {
		ui.Warning("Not a terminal; skipping the results browser")
		return
	}
	if err := tui.Run(records); err != nil {
		ui.Warning(err.Error())
	}
}

func readResults(path string) ([]*model.ComparisonRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := output.ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <results.json>",
		Short: "Browse a JSON result file interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readResults(args[0])
			if err != nil {
				return fail(exitcode.ConfigError, err)
			}
			if !tui.IsTerminal() {
				return fail(exitcode.ConfigError, errors.New("browse needs an interactive terminal"))
			}
			if err := tui.Run(records, tea.WithContext(cmd.Context())); err != nil {
				return fail(exitcode.ConfigError, err)
			}
			return nil
		},
	}
}

// renderOutputPath swaps the input's extension for the format's. It never
// returns the input path itself.
func renderOutputPath(in, format string) string {
	base := strings.TrimSuffix(in, filepath.Ext(in))
	out := base + "." + format
	if filepath.Clean(out) == filepath.Clean(in) {
		out = base + ".report." + format
	}
	return out
}

func newRenderCmd() *cobra.Command {
	var format, outPath string
	var showPreview bool

	cmd := &cobra.Command{
		Use:   "render <results.json>",
		Short: "Render a JSON result file as a Markdown or notebook report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			formats := []string{config.FormatNotebook, config.FormatMarkdown, config.FormatJSON}
			if !lo.Contains(formats, format) {
				return fail(exitcode.ConfigError, fmt.Errorf("unknown report format %q (expected one of %s)",
					format, strings.Join(formats, ", ")))
			}

			records, err := readResults(args[0])
			if err != nil {
				return fail(exitcode.ConfigError, err)
			}

			if outPath == "" {
				outPath = renderOutputPath(args[0], format)
			}
			opts := report.Options{RunID: uuid.NewString(), Now: time.Now()}
			if err := writeReport(outPath, format, records, opts, cmd.OutOrStdout()); err != nil {
				return fail(exitcode.ReportError, err)
			}
			if outPath != "-" {
				ui.Success("Report written to " + outPath)
			}
			if showPreview {
				preview(records, opts, cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", config.FormatMarkdown, "report format: ipynb, md or json")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "report path, or - for stdout (default: input name with the format's extension)")
	cmd.Flags().BoolVar(&showPreview, "preview", false, "render the report in the terminal")
	return cmd
}
