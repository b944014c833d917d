// Package treetest provides fixture findings and trees for tests of packages
// that render or serve bug trees.
package treetest

import (
	"io"
	"log/slog"
	"testing"

	"github.com/olehluchkiv/bugtree/internal/bug"
	"github.com/olehluchkiv/bugtree/internal/tree"
)

// Bugs returns four findings over two packages, three files and two
// categories, in a fixed arrival order.
func Bugs() []bug.Bug {
	bugs := []bug.Bug{
		{
			PkgPath: "example.com/m/store", PkgName: "store",
			File: "store/store.go", Line: 4, Column: 2,
			Category: bug.Correctness, Type: "assign",
			ShortDescription: "check for useless assignments",
			Message:          "self-assignment of x to x",
			Priority:         bug.Normal,
		},
		{
			PkgPath: "example.com/m/api", PkgName: "api",
			File: "api/api.go", Line: 5, Column: 5,
			Category: bug.Style, Type: "bools",
			ShortDescription: "check for common mistakes involving boolean operators",
			Message:          "redundant or: ok || ok",
			Priority:         bug.Normal,
		},
		{
			PkgPath: "example.com/m/api", PkgName: "api",
			File: "api/api.go", Line: 7, Column: 3,
			Category: bug.Style, Type: "unreachable",
			ShortDescription: "check for unreachable code",
			Message:          "unreachable code",
			Priority:         bug.Low,
		},
		{
			PkgPath: "example.com/m/api", PkgName: "api",
			File: "api/handler.go", Line: 12, Column: 2,
			Category: bug.Correctness, Type: "printf",
			ShortDescription: "check consistency of Printf format strings and arguments",
			Message:          "fmt.Printf format %d has arg name of wrong type string",
			Priority:         bug.Normal,
		},
	}
	for i := range bugs {
		bugs[i].ID = bug.ComputeID(bugs[i])
	}
	return bugs
}

// Model classifies bugs into a new model grouped by groupBy.
func Model(t testing.TB, groupBy []bug.GroupBy, bugs []bug.Bug) *tree.Model {
	t.Helper()
	m, err := tree.NewModel(groupBy, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	for _, b := range bugs {
		if err := m.Add(b); err != nil {
			t.Fatalf("add %s: %v", b.Position(), err)
		}
	}
	return m
}

// View is Model(...).Snapshot().
func View(t testing.TB, groupBy []bug.GroupBy, bugs []bug.Bug) tree.View {
	t.Helper()
	return Model(t, groupBy, bugs).Snapshot()
}
