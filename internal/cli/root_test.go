package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "bugtree", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	for _, name := range []string{"config", "log-file", "log-level", "store"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing persistent flag --%s", name)
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"analyze", "serve", "runs", "show", "rm", "patterns"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	cmd := NewRootCommand()
	analyze, _, err := cmd.Find([]string{"analyze"})
	require.NoError(t, err)

	for _, name := range []string{
		"group-by", "analyzers", "include-tests", "filter", "min-priority",
		"no-store", "format", "output", "color", "hide-bugs", "fail-on-findings",
	} {
		assert.NotNil(t, analyze.Flags().Lookup(name), "missing flag --%s", name)
	}
	assert.Equal(t, "g", analyze.Flags().Lookup("group-by").Shorthand)
	assert.Equal(t, "category", analyze.Flags().Lookup("group-by").DefValue)
	assert.Equal(t, "text", analyze.Flags().Lookup("format").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	cmd := NewRootCommand()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	for _, name := range []string{"group-by", "port", "no-browser", "run", "no-store"} {
		assert.NotNil(t, serve.Flags().Lookup(name), "missing flag --%s", name)
	}
	assert.Equal(t, "8080", serve.Flags().Lookup("port").DefValue)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))

	wrapped := WrapExitError(ExitFailure, "analysis failed", assert.AnError)
	assert.Equal(t, "analysis failed: "+assert.AnError.Error(), wrapped.Error())
	assert.ErrorIs(t, wrapped, assert.AnError)
}
