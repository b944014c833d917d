package internal_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/bugtree/internal/analyzer"
	"github.com/olehluchkiv/bugtree/internal/bug"
	"github.com/olehluchkiv/bugtree/internal/diagram"
	"github.com/olehluchkiv/bugtree/internal/pipeline"
	"github.com/olehluchkiv/bugtree/internal/report"
	"github.com/olehluchkiv/bugtree/internal/store"
	"github.com/olehluchkiv/bugtree/internal/tree"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testdataDir(t *testing.T, name string) string {
	t.Helper()
	// go test sets cwd to the package directory (internal/).
	dir, err := filepath.Abs(filepath.Join("..", "testdata", name))
	require.NoError(t, err)
	return dir
}

// leafBugs collects every finding in the view, in tree order.
func leafBugs(v tree.View) []string {
	var out []string
	v.Walk(func(_ int, g tree.GroupView) bool {
		for _, b := range g.Bugs {
			out = append(out, b.Position()+" "+b.Type)
		}
		return true
	})
	return out
}

func TestIntegration_AllGroupingsHoldEveryFinding(t *testing.T) {
	dir := testdataDir(t, "02_multi_package")
	opts := analyzer.Options{Scope: analyzer.Scope{IncludeTests: true}}

	for _, primary := range bug.AllGroupBy {
		t.Run(string(primary), func(t *testing.T) {
			res, err := pipeline.Run(context.Background(), pipeline.Config{
				Input:   dir,
				GroupBy: bug.SortOrder(primary),
				Options: opts,
				Buffer:  1,
			}, testLogger())
			require.NoError(t, err)

			view := res.Model.Snapshot()
			assert.Equal(t, 4, view.Total)
			assert.Len(t, leafBugs(view), 4)

			sum := 0
			for _, g := range view.Groups {
				sum += g.Count
			}
			assert.Equal(t, view.Total, sum, "top-level counts must add up")

			view.Walk(func(depth int, g tree.GroupView) bool {
				assert.Equal(t, primary, view.GroupBy[0])
				if depth == len(view.GroupBy)-1 {
					assert.Len(t, g.Bugs, g.Count, g.Label)
				} else {
					assert.Empty(t, g.Bugs, g.Label)
				}
				return true
			})
		})
	}
}

func TestIntegration_StoredRunRegroupsLikeFreshRun(t *testing.T) {
	dir := testdataDir(t, "02_multi_package")
	ctx := context.Background()

	res, err := pipeline.Run(ctx, pipeline.Config{Input: dir}, testLogger())
	require.NoError(t, err)

	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, pipeline.Save(s, res))

	groupBy := bug.SortOrder(bug.ByPackage)
	loaded, err := pipeline.Load(s, "latest", groupBy, testLogger())
	require.NoError(t, err)

	fresh, err := pipeline.Run(ctx, pipeline.Config{Input: dir, GroupBy: groupBy}, testLogger())
	require.NoError(t, err)

	var a, b bytes.Buffer
	require.NoError(t, report.Text(&a, loaded.Model.Snapshot(), report.TextOptions{}))
	require.NoError(t, report.Text(&b, fresh.Model.Snapshot(), report.TextOptions{}))
	assert.Equal(t, b.String(), a.String())
}

func TestIntegration_DiagramAndSlides(t *testing.T) {
	res, err := pipeline.Run(context.Background(), pipeline.Config{
		Input: testdataDir(t, "02_multi_package"),
	}, testLogger())
	require.NoError(t, err)
	view := res.Model.Snapshot()

	out := diagram.GenerateMermaid(view, diagram.DefaultDiagramOptions())
	assert.True(t, strings.HasPrefix(out, "flowchart LR\n"))
	assert.Contains(t, out, `["Correctness (1)"]`)
	assert.Contains(t, out, `["Style (2)"]`)
	assert.Contains(t, out, "store/store.go:5:2")

	slides := diagram.BuildSlides(view, diagram.DefaultDiagramOptions(), diagram.SlideOptions{Threshold: 1})
	require.Len(t, slides, 3)
	assert.Equal(t, "Overview", slides[0].Title)
	assert.Equal(t, "Correctness (1)", slides[1].Title)
	assert.Equal(t, "Style (2)", slides[2].Title)
}

func TestIntegration_CleanModule(t *testing.T) {
	res, err := pipeline.Run(context.Background(), pipeline.Config{
		Input: testdataDir(t, "03_clean"),
	}, testLogger())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, report.FormatText, res.Model.Snapshot(), report.Options{}))
	assert.Equal(t, "0 findings grouped by category > type\nNo findings.\n", buf.String())
}
