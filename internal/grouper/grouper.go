// Package grouper places records, one at a time, into a tree of nested groups.
// Each level of the tree has its own comparator; the tree itself lives in a
// Callback implementation and is only mutated through it.
package grouper

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrNoComparators is returned when Group is called without any grouping level.
	ErrNoComparators = errors.New("grouper: at least one comparator is required")

	// ErrParentNotFound means the callback's sibling set does not contain the
	// parent the comparator chain points at. The callback or the comparators
	// break the ordering contract; the tree is left untouched.
	ErrParentNotFound = errors.New("grouper: parent group not found")
)

// Comparator orders records. Two records belong to the same group at a level
// iff the level's comparator returns 0 for them. Every comparator must be a
// consistent total order over the records it sees, since lookups use binary
// search.
type Comparator[T any] func(a, b T) int

// Callback is implemented by the owner of the tree. It supplies sibling sets
// and chain comparators, and receives exactly one placement decision per
// Group call.
type Callback[T any] interface {
	// StartGroup creates a new top-level group whose representative is firstMember.
	StartGroup(firstMember T, depth int)

	// StartSubGroup creates a new group at depth under the group at depth-1
	// represented by parent.
	StartSubGroup(depth int, member, parent T)

	// AddToGroup appends member to the existing group at depth represented by parent.
	AddToGroup(depth int, member, parent T)

	// AvailableGroups returns the representatives of the groups at depth that
	// share member's ancestor chain. The returned slice is sorted in place by
	// the caller, so implementations must hand out a copy.
	AvailableGroups(depth int, member T) []T

	// CurrentGroupComparatorChain returns the lexicographic composite of the
	// comparators for levels 0..depth.
	CurrentGroupComparatorChain(depth int) Comparator[T]
}

// Grouper places records into a multi-level group tree owned by its callback.
// It keeps no state of its own. Calls must be serialized by the caller: each
// call mutates the sibling sets the next call reads.
type Grouper[T any] struct {
	callback Callback[T]
}

// New creates a Grouper reporting to cb.
func New[T any](cb Callback[T]) *Grouper[T] {
	return &Grouper[T]{callback: cb}
}

// Group classifies member against the ordered comparators, one per level, and
// reports the placement through exactly one of StartGroup, StartSubGroup or
// AddToGroup.
//
// The levels are scanned left to right. The first level at which no existing
// sibling matches is the divergence depth: at depth 0 a new top-level group is
// started, deeper down a subgroup is started under the parent found through
// the cumulative comparator chain. A record matching at every level is added to
// the deepest group.
func (g *Grouper[T]) Group(member T, comparators []Comparator[T]) error {
	if len(comparators) == 0 {
		return ErrNoComparators
	}

	divergence := len(comparators)
	for depth, cmp := range comparators {
		if !g.contains(depth, member, cmp) {
			divergence = depth
			break
		}
	}

	switch {
	case divergence == 0:
		g.callback.StartGroup(member, 0)
	case divergence < len(comparators):
		parent, err := g.parent(divergence-1, member)
		if err != nil {
			return err
		}
		g.callback.StartSubGroup(divergence, member, parent)
	default:
		last := len(comparators) - 1
		parent, err := g.parent(last, member)
		if err != nil {
			return err
		}
		g.callback.AddToGroup(last, member, parent)
	}
	return nil
}

// contains reports whether a group equivalent to member exists at depth.
func (g *Grouper[T]) contains(depth int, member T, cmp Comparator[T]) bool {
	_, found := search(g.callback.AvailableGroups(depth, member), member, cmp)
	return found
}

// parent resolves the representative of the group at depth that member
// belongs to under the comparator chain 0..depth.
func (g *Grouper[T]) parent(depth int, member T) (T, error) {
	chain := g.callback.CurrentGroupComparatorChain(depth)
	groups := g.callback.AvailableGroups(depth, member)
	i, found := search(groups, member, chain)
	if !found {
		var zero T
		return zero, fmt.Errorf("%w at depth %d among %d siblings", ErrParentNotFound, depth, len(groups))
	}
	return groups[i], nil
}

func search[T any](groups []T, member T, cmp Comparator[T]) (int, bool) {
	f := (func(a, b T) int)(cmp)
	slices.SortFunc(groups, f)
	return slices.BinarySearchFunc(groups, member, f)
}

// Chain combines comparators lexicographically: the first non-zero result wins.
func Chain[T any](comparators ...Comparator[T]) Comparator[T] {
	cmps := slices.Clone(comparators)
	return func(a, b T) int {
		for _, cmp := range cmps {
			if c := cmp(a, b); c != 0 {
				return c
			}
		}
		return 0
	}
}
