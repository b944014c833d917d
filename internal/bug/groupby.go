package bug

import (
	"cmp"
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/olehluchkiv/bugtree/internal/grouper"
)

// ErrUnknownGroupBy is returned for grouping criteria names that do not exist.
var ErrUnknownGroupBy = errors.New("unknown group-by criterion")

// GroupBy is one grouping criterion of the bug tree.
type GroupBy string

const (
	ByPackage  GroupBy = "package"
	ByFile     GroupBy = "file"
	ByCategory GroupBy = "category"
	ByType     GroupBy = "type"
	ByPriority GroupBy = "priority"
)

// AllGroupBy lists every criterion in menu order.
var AllGroupBy = []GroupBy{ByCategory, ByPackage, ByFile, ByType, ByPriority}

var sortOrders = map[GroupBy][]GroupBy{
	ByCategory: {ByCategory, ByType},
	ByPackage:  {ByPackage, ByFile, ByCategory, ByType},
	ByFile:     {ByFile, ByCategory, ByType},
	ByPriority: {ByPriority, ByCategory, ByType},
	ByType:     {ByType, ByPackage},
}

// DefaultGroupBy is the grouping used when nothing is configured.
var DefaultGroupBy = SortOrder(ByCategory)

// SortOrder returns the preset level list that starts with primary.
func SortOrder(primary GroupBy) []GroupBy {
	order, ok := sortOrders[primary]
	if !ok {
		return nil
	}
	return append([]GroupBy(nil), order...)
}

// FlatSuffix marks a single criterion as one flat level ("package!") instead
// of its preset.
const FlatSuffix = "!"

// ParseGroupBy accepts a preset name ("package"), a single flat level
// ("package!") or an explicit comma separated list of criteria
// ("package,category,type"). A single name without FlatSuffix expands to its
// preset.
func ParseGroupBy(s string) ([]GroupBy, error) {
	parts := strings.Split(s, ",")
	if len(parts) == 1 {
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		if flat, ok := strings.CutSuffix(name, FlatSuffix); ok {
			g := GroupBy(strings.TrimSpace(flat))
			if !g.Valid() {
				return nil, fmt.Errorf("%w: %s", ErrUnknownGroupBy, g)
			}
			return []GroupBy{g}, nil
		}
		if order := SortOrder(GroupBy(name)); order != nil {
			return order, nil
		}
	}

	seen := make(map[GroupBy]bool, len(parts))
	out := make([]GroupBy, 0, len(parts))
	for _, p := range parts {
		g := GroupBy(strings.ToLower(strings.TrimSpace(p)))
		if g == "" {
			return nil, fmt.Errorf("empty group-by criterion in %q", s)
		}
		if !g.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownGroupBy, g)
		}
		if seen[g] {
			return nil, fmt.Errorf("duplicate group-by criterion: %s", g)
		}
		seen[g] = true
		out = append(out, g)
	}
	return out, nil
}

// FormatGroupBy joins criteria into the form accepted by ParseGroupBy. A
// single level carries FlatSuffix so it does not read back as a preset.
func FormatGroupBy(groupBy []GroupBy) string {
	if len(groupBy) == 1 {
		return string(groupBy[0]) + FlatSuffix
	}
	names := make([]string, len(groupBy))
	for i, g := range groupBy {
		names[i] = string(g)
	}
	return strings.Join(names, ",")
}

// Valid reports whether g names a known criterion.
func (g GroupBy) Valid() bool {
	_, ok := sortOrders[g]
	return ok
}

// Comparator orders bugs by this criterion. Equal keys mean same group.
func (g GroupBy) Comparator() grouper.Comparator[Bug] {
	if g == ByPriority {
		return func(a, b Bug) int { return cmp.Compare(a.Priority, b.Priority) }
	}
	key := g.key
	return func(a, b Bug) int { return strings.Compare(key(a), key(b)) }
}

// Label returns the display name of the group b represents under g.
func (g GroupBy) Label(b Bug) string {
	switch g {
	case ByPackage:
		if b.PkgPath == "" {
			return "(no package)"
		}
		return b.PkgPath
	case ByFile:
		if b.File == "" {
			return "(no file)"
		}
		return path.Base(b.File)
	case ByCategory:
		return b.Category.Label()
	case ByType:
		if b.ShortDescription != "" {
			return b.Type + ": " + b.ShortDescription
		}
		return b.Type
	case ByPriority:
		return b.Priority.Label()
	default:
		return string(g)
	}
}

func (g GroupBy) key(b Bug) string {
	var k string
	switch g {
	case ByPackage:
		k = b.PkgPath
	case ByFile:
		k = b.File
	case ByCategory:
		k = string(b.Category)
	case ByType:
		k = b.Type
	}
	return norm.NFC.String(k)
}

// Comparators maps criteria to the per-level comparators used by the grouper.
func Comparators(groupBy []GroupBy) []grouper.Comparator[Bug] {
	out := make([]grouper.Comparator[Bug], len(groupBy))
	for i, g := range groupBy {
		out[i] = g.Comparator()
	}
	return out
}

// Compare orders bugs by location, then pattern, for stable listings.
func Compare(a, b Bug) int {
	return cmp.Or(
		strings.Compare(a.File, b.File),
		cmp.Compare(a.Line, b.Line),
		cmp.Compare(a.Column, b.Column),
		strings.Compare(a.Type, b.Type),
		strings.Compare(a.Message, b.Message),
	)
}
