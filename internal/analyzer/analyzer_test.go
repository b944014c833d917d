package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/bugtree/internal/bug"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testdataDir(t *testing.T, name string) string {
	t.Helper()
	// go test sets cwd to the package directory.
	dir, err := filepath.Abs(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return dir
}

func collect(t *testing.T, dir string, opts Options) ([]bug.Bug, Stats) {
	t.Helper()
	var bugs []bug.Bug
	stats, err := Analyze(context.Background(), dir, opts, testLogger(), func(b bug.Bug) error {
		bugs = append(bugs, b)
		return nil
	})
	require.NoError(t, err)
	return bugs, stats
}

func TestAnalyze_Printf(t *testing.T) {
	bugs, stats := collect(t, testdataDir(t, "01_printf"), Options{})

	require.Len(t, bugs, 1)
	b := bugs[0]
	assert.Equal(t, "printf", b.Type)
	assert.Equal(t, bug.Correctness, b.Category)
	assert.Equal(t, "main.go", b.File)
	assert.Equal(t, 7, b.Line)
	assert.Equal(t, "example.com/printfbug", b.PkgPath)
	assert.Contains(t, b.Message, "wrong type")
	assert.Equal(t, bug.ComputeID(b), b.ID)
	assert.Equal(t, 1, stats.Findings)
	assert.Equal(t, len(registry), stats.Patterns)
}

func TestAnalyze_MultiPackage(t *testing.T) {
	bugs, _ := collect(t, testdataDir(t, "02_multi_package"), Options{})

	var got []string
	for _, b := range bugs {
		got = append(got, b.File+":"+b.Type)
	}
	// Ordered by file, then line.
	assert.Equal(t, []string{
		"api/api.go:bools",
		"api/api.go:unreachable",
		"store/store.go:assign",
	}, got)
}

func TestAnalyze_IncludeTests(t *testing.T) {
	opts := Options{Scope: Scope{IncludeTests: true}}
	bugs, _ := collect(t, testdataDir(t, "02_multi_package"), opts)

	var files []string
	for _, b := range bugs {
		files = append(files, b.File)
	}
	assert.Contains(t, files, "api/api_test.go")
	assert.Len(t, bugs, 4, "test variants must not duplicate findings")
}

func TestAnalyze_SelectedAnalyzersAndFilter(t *testing.T) {
	dir := testdataDir(t, "02_multi_package")

	bugs, stats := collect(t, dir, Options{Analyzers: []string{"assign", "bools"}})
	assert.Len(t, bugs, 2)
	assert.Equal(t, 2, stats.Patterns)

	bugs, stats = collect(t, dir, Options{Filter: "example.com/multi/store"})
	require.Len(t, bugs, 1)
	assert.Equal(t, "assign", bugs[0].Type)
	assert.Equal(t, 2, stats.Dropped)
}

func TestAnalyze_CleanModule(t *testing.T) {
	bugs, stats := collect(t, testdataDir(t, "03_clean"), Options{})
	assert.Empty(t, bugs)
	assert.Equal(t, 1, stats.Packages)
}

func TestAnalyze_UnknownAnalyzer(t *testing.T) {
	_, err := Analyze(context.Background(), testdataDir(t, "03_clean"), Options{Analyzers: []string{"nope"}}, testLogger(), func(bug.Bug) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown bug pattern")
}

func TestAnalyze_EmitErrorStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	_, err := Analyze(context.Background(), testdataDir(t, "02_multi_package"), Options{}, testLogger(), func(bug.Bug) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}
