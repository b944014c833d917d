package tree

import (
	"slices"

	"github.com/olehluchkiv/bugtree/internal/bug"
)

// View is an immutable copy of the tree, safe to render while the model keeps
// changing.
type View struct {
	GroupBy []bug.GroupBy `json:"group_by" yaml:"group_by"`
	Total   int           `json:"total" yaml:"total"`
	Groups  []GroupView   `json:"groups" yaml:"groups"`
}

// GroupView is one group of a View.
type GroupView struct {
	Criterion bug.GroupBy `json:"criterion" yaml:"criterion"`
	Label     string      `json:"label" yaml:"label"`
	Count     int         `json:"count" yaml:"count"`
	Groups    []GroupView `json:"groups,omitempty" yaml:"groups,omitempty"`
	Bugs      []bug.Bug   `json:"bugs,omitempty" yaml:"bugs,omitempty"`
}

// Snapshot copies the current tree.
func (m *Model) Snapshot() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return View{
		GroupBy: slices.Clone(m.groupBy),
		Total:   len(m.bugs),
		Groups:  viewNodes(m.roots),
	}
}

func viewNodes(nodes []*Node) []GroupView {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]GroupView, len(nodes))
	for i, n := range nodes {
		out[i] = GroupView{
			Criterion: n.Criterion,
			Label:     n.Label(),
			Count:     n.count,
			Groups:    viewNodes(n.Children),
			Bugs:      slices.Clone(n.Bugs),
		}
	}
	return out
}

// Walk visits the groups of v depth first. depth starts at 0.
func (v View) Walk(fn func(depth int, g GroupView) bool) {
	var walk func(depth int, groups []GroupView)
	walk = func(depth int, groups []GroupView) {
		for _, g := range groups {
			if fn(depth, g) {
				walk(depth+1, g.Groups)
			}
		}
	}
	walk(0, v.Groups)
}
