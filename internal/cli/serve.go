package cli

import (
	"github.com/spf13/cobra"

	"github.com/olehluchkiv/bugtree/internal/bug"
	"github.com/olehluchkiv/bugtree/internal/config"
	"github.com/olehluchkiv/bugtree/internal/pipeline"
	"github.com/olehluchkiv/bugtree/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions

	NoBrowser bool
	Run       string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve [path | github-url]",
		Short: "Analyze a Go module and browse its bug tree in the browser",
		Long: `Serve analyzes a module, or loads a stored run with --run, and serves the
bug tree as an expandable HTML page. The page can regroup the findings
with any preset, and offers the tree as JSON and Mermaid.`,
		Example: `  bugtree serve
  bugtree serve ./service --port 9090 --no-browser
  bugtree serve --run latest --group-by package`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, args)
		},
	}

	addAnalysisFlags(cmd)
	cmd.Flags().Int("port", config.Default().Server.Port, "HTTP server port")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "do not open the browser")
	cmd.Flags().StringVar(&opts.Run, "run", "", "serve a stored run (ID or \"latest\") instead of analyzing")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions, args []string) error {
	var (
		res *pipeline.Result
		err error
	)
	if opts.Run != "" {
		if len(args) > 0 {
			return NewExitError(ExitCommandError, "--run cannot be combined with a path")
		}
		res, err = opts.load(cmd, opts.Run)
	} else {
		res, err = opts.run(cmd, inputArg(args))
	}
	if err != nil {
		return err
	}

	src := server.Source{Title: res.Input, RunID: res.RunID, Model: res.Model}
	openBrowser := opts.Config.Server.OpenBrowser && !opts.NoBrowser
	if err := server.Serve(cmd.Context(), src, opts.Config.Server.Port, openBrowser, opts.Logger); err != nil {
		return WrapExitError(ExitFailure, "server failed", err)
	}
	return nil
}

// load reads a stored run. The grouping it was saved with is kept unless
// --group-by was given.
func (o *RootOptions) load(cmd *cobra.Command, id string) (*pipeline.Result, error) {
	var groupBy []bug.GroupBy
	if cmd.Flags().Changed("group-by") {
		levels, err := o.Config.Analysis.GroupByLevels()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --group-by", err)
		}
		groupBy = levels
	}

	s, err := o.openStore()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	res, err := pipeline.Load(s, id, groupBy, o.Logger)
	if err != nil {
		return nil, storeError("failed to load run "+id, err)
	}
	return res, nil
}
