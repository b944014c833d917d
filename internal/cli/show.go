package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/olehluchkiv/bugtree/internal/diagram"
	"github.com/olehluchkiv/bugtree/internal/report"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions

	Format   string
	Output   string
	Color    bool
	HideBugs bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id | latest>",
		Short: "Print a stored run, optionally regrouped",
		Example: `  bugtree show latest
  bugtree show 0199f1c2-6d3e-7a41-9b1e-2f7c5d8a9e10 --group-by package --format json`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringP("group-by", "g", "", "regroup with this preset or criteria list (default: the run's own grouping)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", report.FormatText, "output format (text, json, yaml, mermaid)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.Color, "color", false, "color text output")
	cmd.Flags().BoolVar(&opts.HideBugs, "hide-bugs", false, "print group counts only")

	return cmd
}

func runShow(cmd *cobra.Command, opts *ShowOptions, id string) error {
	if !report.ValidFormat(opts.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown format %q", opts.Format))
	}

	res, err := opts.load(cmd, id)
	if err != nil {
		return err
	}

	return writeReport(cmd.OutOrStdout(), opts.Output, func(w io.Writer) error {
		return report.Write(w, opts.Format, res.Model.Snapshot(), report.Options{
			Text:    report.TextOptions{Color: opts.Color, HideBugs: opts.HideBugs},
			Diagram: diagram.DefaultDiagramOptions(),
		})
	})
}
