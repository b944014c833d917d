package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/olehluchkiv/bugtree/internal/analyzer"
	"github.com/olehluchkiv/bugtree/internal/config"
	"github.com/olehluchkiv/bugtree/internal/diagram"
	"github.com/olehluchkiv/bugtree/internal/pipeline"
	"github.com/olehluchkiv/bugtree/internal/report"
)

// addAnalysisFlags registers the flags shared by commands that run an
// analysis. Their values reach the command through the config, see flagKeys.
func addAnalysisFlags(cmd *cobra.Command) {
	defaults := config.Default()
	cmd.Flags().StringP("group-by", "g", defaults.Analysis.GroupBy, "grouping preset (category, package, file, type, priority), one flat level (e.g. category!) or comma separated criteria")
	cmd.Flags().StringSliceP("analyzers", "a", nil, "bug patterns to run (default all, see 'bugtree patterns')")
	cmd.Flags().Bool("include-tests", false, "analyze _test.go files too")
	cmd.Flags().String("filter", "", "keep only packages whose import path has this prefix")
	cmd.Flags().String("min-priority", "", "drop findings below this priority (high, normal, low)")
	cmd.Flags().Bool("no-store", false, "do not save the run")
}

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions

	Format         string
	Output         string
	Color          bool
	HideBugs       bool
	FailOnFindings bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze [path | github-url]",
		Short: "Analyze a Go module and print its bug tree",
		Long: `Analyze runs the selected bug patterns over a Go module and groups every
finding into a tree as it is produced. The input defaults to the current
directory; GitHub URLs are cloned into a local cache first.

Unless --no-store is given the run is saved and can be regrouped later
with 'bugtree show'.`,
		Example: `  bugtree analyze
  bugtree analyze ./service --group-by package
  bugtree analyze https://github.com/user/repo --format mermaid -o tree.md
  bugtree analyze --group-by priority,package --min-priority normal`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args)
		},
	}

	addAnalysisFlags(cmd)
	cmd.Flags().StringVarP(&opts.Format, "format", "f", report.FormatText, "output format (text, json, yaml, mermaid)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.Color, "color", false, "color text output")
	cmd.Flags().BoolVar(&opts.HideBugs, "hide-bugs", false, "print group counts only")
	cmd.Flags().BoolVar(&opts.FailOnFindings, "fail-on-findings", false, "exit with status 1 when any finding remains")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *AnalyzeOptions, args []string) error {
	if !report.ValidFormat(opts.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown format %q", opts.Format))
	}

	res, err := opts.run(cmd, inputArg(args))
	if err != nil {
		return err
	}

	err = writeReport(cmd.OutOrStdout(), opts.Output, func(w io.Writer) error {
		return report.Write(w, opts.Format, res.Model.Snapshot(), report.Options{
			Text:    report.TextOptions{Color: opts.Color, HideBugs: opts.HideBugs},
			Diagram: diagram.DefaultDiagramOptions(),
		})
	})
	if err != nil {
		return err
	}
	if opts.Output != "" {
		opts.Logger.Info("report written", "path", opts.Output, "format", opts.Format)
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s report to %s\n", opts.Format, opts.Output)
	}

	if opts.FailOnFindings && res.Model.Len() > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d findings", res.Model.Len()))
	}
	return nil
}

// run analyzes input with the configured options and saves the result unless
// the store is disabled.
func (o *RootOptions) run(cmd *cobra.Command, input string) (*pipeline.Result, error) {
	cfg, err := o.pipelineConfig(input)
	if err != nil {
		return nil, err
	}

	res, err := pipeline.Run(cmd.Context(), cfg, o.Logger)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "analysis failed", err)
	}

	if o.Config.Store.Enabled {
		s, err := o.openStore()
		if err != nil {
			return nil, err
		}
		defer s.Close()
		if err := pipeline.Save(s, res); err != nil {
			return nil, WrapExitError(ExitFailure, "failed to save run", err)
		}
		o.Logger.Info("run saved", "run_id", res.RunID, "store", s.Path())
	}
	return res, nil
}

// pipelineConfig turns the loaded configuration into a pipeline.Config.
func (o *RootOptions) pipelineConfig(input string) (pipeline.Config, error) {
	a := o.Config.Analysis
	groupBy, err := a.GroupByLevels()
	if err != nil {
		return pipeline.Config{}, WrapExitError(ExitCommandError, "invalid --group-by", err)
	}
	priority, err := a.Priority()
	if err != nil {
		return pipeline.Config{}, WrapExitError(ExitCommandError, "invalid --min-priority", err)
	}
	return pipeline.Config{
		Input:   input,
		GroupBy: groupBy,
		Options: analyzer.Options{
			Scope: analyzer.Scope{
				Patterns:     a.Patterns,
				IncludeTests: a.IncludeTests,
			},
			Analyzers:   a.Analyzers,
			Filter:      a.Filter,
			MinPriority: priority,
		},
	}, nil
}

func inputArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// writeReport runs render against path, or against stdout when path is empty.
func writeReport(stdout io.Writer, path string, render func(io.Writer) error) error {
	if path == "" {
		if err := render(stdout); err != nil {
			return WrapExitError(ExitFailure, "failed to render report", err)
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WrapExitError(ExitFailure, "failed to create output directory", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to create output file", err)
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return WrapExitError(ExitFailure, "failed to render report", err)
	}
	if err := f.Close(); err != nil {
		return WrapExitError(ExitFailure, "failed to write output file", err)
	}
	return nil
}
