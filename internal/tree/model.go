package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/olehluchkiv/bugtree/internal/bug"
	"github.com/olehluchkiv/bugtree/internal/grouper"
)

// Node is one group of the bug tree. Groups at the deepest level hold the
// findings; all others hold subgroups.
type Node struct {
	Depth          int
	Criterion      bug.GroupBy
	Representative bug.Bug // first finding classified into the group
	Parent         *Node
	Children       []*Node   // sorted by the comparator of level Depth+1
	Bugs           []bug.Bug // arrival order; deepest level only
	count          int
}

// Count returns the number of findings below n.
func (n *Node) Count() int { return n.count }

// Label returns the display name of the group.
func (n *Node) Label() string { return n.Criterion.Label(n.Representative) }

// Model is the bug tree. Findings are classified into it one at a time by a
// grouper; Model is the grouper's callback and owns every node. All methods
// are safe for concurrent use, and additions are serialized.
type Model struct {
	mu          sync.Mutex
	groupBy     []bug.GroupBy
	comparators []grouper.Comparator[bug.Bug]
	chains      []grouper.Comparator[bug.Bug]
	grouper     *grouper.Grouper[bug.Bug]
	roots       []*Node
	bugs        []bug.Bug
	placeErr    error
	logger      *slog.Logger
}

// NewModel creates an empty tree with one level per criterion.
func NewModel(groupBy []bug.GroupBy, logger *slog.Logger) (*Model, error) {
	m := &Model{logger: logger.With("component", "tree")}
	m.grouper = grouper.New[bug.Bug](sink{m})
	if err := m.reset(groupBy); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) reset(groupBy []bug.GroupBy) error {
	if len(groupBy) == 0 {
		return fmt.Errorf("tree: %w", grouper.ErrNoComparators)
	}
	for _, g := range groupBy {
		if !g.Valid() {
			return fmt.Errorf("tree: %w: %s", bug.ErrUnknownGroupBy, g)
		}
	}
	m.groupBy = slices.Clone(groupBy)
	m.comparators = bug.Comparators(groupBy)
	m.chains = make([]grouper.Comparator[bug.Bug], len(groupBy))
	for d := range groupBy {
		m.chains[d] = grouper.Chain(m.comparators[:d+1]...)
	}
	m.roots = nil
	return nil
}

// Add classifies one finding into the tree.
func (m *Model) Add(b bug.Bug) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(b)
}

func (m *Model) add(b bug.Bug) error {
	m.placeErr = nil
	if err := m.grouper.Group(b, m.comparators); err != nil {
		return fmt.Errorf("classifying %s at %s: %w", b.Type, b.Position(), err)
	}
	if m.placeErr != nil {
		return fmt.Errorf("classifying %s at %s: %w", b.Type, b.Position(), m.placeErr)
	}
	m.bugs = append(m.bugs, b)
	return nil
}

// Consume adds findings from ch until it is closed or ctx is done. It is the
// single writer for the tree while it runs.
func (m *Model) Consume(ctx context.Context, ch <-chan bug.Bug) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-ch:
			if !ok {
				return nil
			}
			if err := m.Add(b); err != nil {
				return err
			}
		}
	}
}

// Regroup rebuilds the tree with new criteria, replaying every finding in
// arrival order.
func (m *Model) Regroup(groupBy []bug.GroupBy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.groupBy
	bugs := m.bugs
	if err := m.reset(groupBy); err != nil {
		return err
	}
	m.bugs = nil
	var errs []error
	for _, b := range bugs {
		if err := m.add(b); err != nil {
			errs = append(errs, err)
		}
	}
	m.logger.Info("tree regrouped",
		"from", bug.FormatGroupBy(prev),
		"to", bug.FormatGroupBy(groupBy),
		"findings", len(m.bugs))
	return errors.Join(errs...)
}

// GroupBy returns the criteria of the tree levels.
func (m *Model) GroupBy() []bug.GroupBy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.groupBy)
}

// Len returns the number of findings in the tree.
func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bugs)
}

// Bugs returns the findings in arrival order.
func (m *Model) Bugs() []bug.Bug {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.bugs)
}

// Roots returns the top-level groups, sorted by the first criterion.
func (m *Model) Roots() []*Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.roots)
}

// Walk visits groups depth first in display order. Returning false from fn
// skips the children of the visited group.
func (m *Model) Walk(fn func(n *Node) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if fn(n) {
				walk(n.Children)
			}
		}
	}
	walk(m.roots)
}

// find follows the groups member belongs to down to depth.
func (m *Model) find(depth int, member bug.Bug) *Node {
	nodes := m.roots
	var n *Node
	for d := 0; d <= depth; d++ {
		i, ok := searchNodes(nodes, member, m.comparators[d])
		if !ok {
			return nil
		}
		n = nodes[i]
		nodes = n.Children
	}
	return n
}

// open creates the group for member at depth under parent (nil for a top
// level group) and the chain of subgroups below it, then files member in the
// deepest one.
func (m *Model) open(parent *Node, depth int, member bug.Bug) {
	last := len(m.comparators) - 1
	var n *Node
	for d := depth; d <= last; d++ {
		n = &Node{
			Depth:          d,
			Criterion:      m.groupBy[d],
			Representative: member,
			Parent:         parent,
		}
		if parent == nil {
			m.roots = insertNode(m.roots, n, m.comparators[d])
		} else {
			parent.Children = insertNode(parent.Children, n, m.comparators[d])
		}
		parent = n
	}
	m.file(n, member)
}

// file appends member to the deepest group n and updates the counts up to the root.
func (m *Model) file(n *Node, member bug.Bug) {
	n.Bugs = append(n.Bugs, member)
	for p := n; p != nil; p = p.Parent {
		p.count++
	}
}

func searchNodes(nodes []*Node, member bug.Bug, cmp grouper.Comparator[bug.Bug]) (int, bool) {
	return slices.BinarySearchFunc(nodes, member, func(n *Node, b bug.Bug) int {
		return cmp(n.Representative, b)
	})
}

func insertNode(nodes []*Node, n *Node, cmp grouper.Comparator[bug.Bug]) []*Node {
	i, _ := searchNodes(nodes, n.Representative, cmp)
	return slices.Insert(nodes, i, n)
}

// sink adapts Model to grouper.Callback without exporting the callback
// methods. It runs with m.mu held.
type sink struct {
	m *Model
}

func (s sink) AvailableGroups(depth int, member bug.Bug) []bug.Bug {
	nodes := s.m.roots
	if depth > 0 {
		parent := s.m.find(depth-1, member)
		if parent == nil {
			return nil
		}
		nodes = parent.Children
	}
	reps := make([]bug.Bug, len(nodes))
	for i, n := range nodes {
		reps[i] = n.Representative
	}
	return reps
}

func (s sink) CurrentGroupComparatorChain(depth int) grouper.Comparator[bug.Bug] {
	return s.m.chains[depth]
}

func (s sink) StartGroup(first bug.Bug, depth int) {
	s.m.logger.Debug("start group", "depth", depth, "group", s.m.groupBy[depth].Label(first), "bug", first.ID)
	s.m.open(nil, depth, first)
}

func (s sink) StartSubGroup(depth int, member, parent bug.Bug) {
	p := s.m.find(depth-1, parent)
	if p == nil {
		s.m.placeErr = fmt.Errorf("no group at depth %d for parent %s", depth-1, parent.ID)
		return
	}
	s.m.logger.Debug("start subgroup", "depth", depth, "group", s.m.groupBy[depth].Label(member), "parent", p.Label(), "bug", member.ID)
	s.m.open(p, depth, member)
}

func (s sink) AddToGroup(depth int, member, parent bug.Bug) {
	n := s.m.find(depth, parent)
	if n == nil {
		s.m.placeErr = fmt.Errorf("no group at depth %d for parent %s", depth, parent.ID)
		return
	}
	s.m.logger.Debug("add to group", "depth", depth, "group", n.Label(), "bug", member.ID)
	s.m.file(n, member)
}
