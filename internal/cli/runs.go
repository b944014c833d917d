package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/olehluchkiv/bugtree/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions

	Format string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "output format (text, json, yaml)")

	return cmd
}

func runRuns(cmd *cobra.Command, opts *RunsOptions) error {
	switch opts.Format {
	case "text", "json", "yaml":
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown format %q: must be one of text, json, yaml", opts.Format))
	}

	s, err := opts.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.Runs()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list runs", err)
	}

	out := cmd.OutOrStdout()
	switch opts.Format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if runs == nil {
			runs = []store.Run{}
		}
		err = enc.Encode(runs)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		err = enc.Encode(runs)
		if err == nil {
			err = enc.Close()
		}
	default:
		err = runsTable(out, runs)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to write runs", err)
	}
	return nil
}

func runsTable(w io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No stored runs.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STARTED", "INPUT", "GROUP BY", "FINDINGS", "DURATION")
	for _, r := range runs {
		t.Row(
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Input,
			r.GroupBy,
			strconv.Itoa(r.Findings),
			r.Duration.Round(time.Millisecond).String(),
		)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}
