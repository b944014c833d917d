// Package cli implements the bugtree command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/olehluchkiv/bugtree/internal/config"
	"github.com/olehluchkiv/bugtree/internal/logging"
	"github.com/olehluchkiv/bugtree/internal/store"
)

// RootOptions holds global flags and the state they produce for subcommands.
type RootOptions struct {
	ConfigFile string
	LogFile    string
	LogLevel   string
	StorePath  string

	Config *config.Config
	Logger *slog.Logger

	closeLog func()
}

// flagKeys maps flag names to the config keys they override. Flags a command
// does not define are skipped.
var flagKeys = map[string]string{
	"log-file":      "logging.file",
	"log-level":     "logging.level",
	"store":         "store.path",
	"group-by":      "analysis.group_by",
	"analyzers":     "analysis.analyzers",
	"include-tests": "analysis.include_tests",
	"filter":        "analysis.filter",
	"min-priority":  "analysis.min_priority",
	"port":          "server.port",
}

// NewRootCommand creates the root command for the bugtree CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "bugtree",
		Short: "Group static analysis findings into an expandable tree",
		Long: `bugtree runs Go static analyzers over a module and classifies every
finding, one at a time, into a multi-level group tree (for example
category > bug type, or package > file > category > type).

Trees are printed, written as JSON, YAML or Mermaid, served over HTTP,
and stored so earlier runs can be regrouped later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default is ./.bugtree.yaml, then $HOME/.config/bugtree/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", defaults.Logging.File, "log file path")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", defaults.Logging.Level, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.StorePath, "store", defaults.Store.Path, "run store file")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewRmCommand(opts))
	cmd.AddCommand(NewPatternsCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	defer opts.Close()

	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return GetExitCode(err)
}

// setup loads the configuration, applies the flags of cmd on top of it and
// starts logging.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	v := config.New(o.ConfigFile)
	if err := config.Read(v); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Unmarshal(v)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.Config = cfg
	if f := cmd.Flags().Lookup("no-store"); f != nil && f.Changed {
		o.Config.Store.Enabled = f.Value.String() != "true"
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	logger, cleanup, err := logging.Setup(cfg.Logging.File, level)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to set up logging", err)
	}
	o.Logger = logger.With("command", cmd.Name())
	o.closeLog = cleanup
	return nil
}

// bindFlags lets changed flags override config file and environment values.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// Close flushes and closes the log file opened by setup.
func (o *RootOptions) Close() {
	if o.closeLog != nil {
		o.closeLog()
		o.closeLog = nil
	}
}

// openStore opens the configured run store.
func (o *RootOptions) openStore() (*store.Store, error) {
	s, err := store.Open(o.Config.Store.Path)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to open run store", err)
	}
	return s, nil
}

// storeError maps unknown runs to a command error.
func storeError(message string, err error) error {
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

// exactArgs is cobra.ExactArgs reporting a command error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}

// maxArgs is cobra.MaximumNArgs reporting a command error.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}

// minArgs is cobra.MinimumNArgs reporting a command error.
func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}
