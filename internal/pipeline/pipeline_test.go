package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/bugtree/internal/analyzer"
	"github.com/olehluchkiv/bugtree/internal/bug"
	"github.com/olehluchkiv/bugtree/internal/store"
	"github.com/olehluchkiv/bugtree/internal/tree"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testdataDir(t *testing.T, name string) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return dir
}

func labelsAt(v tree.View, depth int) []string {
	var out []string
	v.Walk(func(d int, g tree.GroupView) bool {
		if d == depth {
			out = append(out, g.Label)
		}
		return true
	})
	return out
}

func TestRun_BuildsTree(t *testing.T) {
	res, err := Run(context.Background(), Config{
		Input:  testdataDir(t, "02_multi_package"),
		Buffer: 1,
	}, testLogger())
	require.NoError(t, err)

	id, err := uuid.Parse(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, testdataDir(t, "02_multi_package"), res.Dir)
	assert.Equal(t, 3, res.Stats.Findings)
	assert.Equal(t, 3, res.Model.Len())

	view := res.Model.Snapshot()
	assert.Equal(t, bug.DefaultGroupBy, view.GroupBy)
	assert.Equal(t, []string{"Correctness", "Style"}, labelsAt(view, 0))
	require.Len(t, view.Groups, 2)
	assert.Equal(t, 1, view.Groups[0].Count)
	assert.Equal(t, 2, view.Groups[1].Count)
	assert.Len(t, labelsAt(view, 1), 3)
}

func TestRun_CustomGroupingAndOptions(t *testing.T) {
	res, err := Run(context.Background(), Config{
		Input:   testdataDir(t, "02_multi_package"),
		GroupBy: []bug.GroupBy{bug.ByPackage, bug.ByType},
		Options: analyzer.Options{Scope: analyzer.Scope{IncludeTests: true}},
	}, testLogger())
	require.NoError(t, err)

	view := res.Model.Snapshot()
	assert.Equal(t, []string{"example.com/multi/api", "example.com/multi/store"}, labelsAt(view, 0))
	assert.Equal(t, 4, view.Total)
	assert.Equal(t, 3, view.Groups[0].Count)
}

func TestRun_ResolveError(t *testing.T) {
	_, err := Run(context.Background(), Config{Input: filepath.Join(t.TempDir(), "missing")}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolving")
}

func TestRun_InvalidGroupBy(t *testing.T) {
	_, err := Run(context.Background(), Config{
		Input:   testdataDir(t, "03_clean"),
		GroupBy: []bug.GroupBy{"class"},
	}, testLogger())
	require.ErrorIs(t, err, bug.ErrUnknownGroupBy)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Config{Input: testdataDir(t, "02_multi_package")}, testLogger())
	require.ErrorIs(t, err, context.Canceled)
}

func TestSaveAndLoad(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()

	res, err := Run(context.Background(), Config{Input: testdataDir(t, "02_multi_package")}, testLogger())
	require.NoError(t, err)
	require.NoError(t, Save(s, res))

	// Same grouping as saved.
	loaded, err := Load(s, "latest", nil, testLogger())
	require.NoError(t, err)
	assert.Equal(t, res.RunID, loaded.RunID)
	assert.Equal(t, res.Stats, loaded.Stats)
	assert.Equal(t, res.Model.Snapshot(), loaded.Model.Snapshot())

	// Regrouped on load.
	byFile, err := Load(s, res.RunID, []bug.GroupBy{bug.ByFile}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"api.go", "store.go"}, labelsAt(byFile.Model.Snapshot(), 0))
}

func TestSaveAndLoad_FlatGrouping(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()

	res, err := Run(context.Background(), Config{
		Input:   testdataDir(t, "02_multi_package"),
		GroupBy: []bug.GroupBy{bug.ByPackage},
	}, testLogger())
	require.NoError(t, err)
	require.NoError(t, Save(s, res))

	run, err := s.LoadRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "package!", run.GroupBy)

	loaded, err := Load(s, res.RunID, nil, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []bug.GroupBy{bug.ByPackage}, loaded.Model.GroupBy())
	assert.Equal(t, res.Model.Snapshot(), loaded.Model.Snapshot())
}

func TestLoad_Unknown(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = Load(s, "latest", nil, testLogger())
	require.ErrorIs(t, err, store.ErrRunNotFound)
	_, err = Load(s, "nope", nil, testLogger())
	require.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestFromStore_BadSavedGrouping(t *testing.T) {
	_, err := FromStore(store.Run{ID: "r", GroupBy: "class"}, nil, nil, testLogger())
	require.ErrorIs(t, err, bug.ErrUnknownGroupBy)
}
