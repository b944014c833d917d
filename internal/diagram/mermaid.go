package diagram

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/olehluchkiv/bugtree/internal/bug"
	"github.com/olehluchkiv/bugtree/internal/tree"
)

// DiagramOptions controls Mermaid diagram generation.
type DiagramOptions struct {
	ShowBugs        bool // draw one node per finding under its group
	MaxBugsPerGroup int  // default 5, 0 means unlimited
	MaxDepth        int  // group levels drawn; 0 means all
	IncludeInit     bool // include %%{init:}%% directive (for standalone .mmd files)
}

// DefaultDiagramOptions returns sensible defaults for diagram generation.
func DefaultDiagramOptions() DiagramOptions {
	return DiagramOptions{ShowBugs: true, MaxBugsPerGroup: 5}
}

const initDirective = "%%{init: {'theme': 'base', 'themeVariables': {'primaryColor': '#ffffff', 'primaryBorderColor': '#cccccc', 'primaryTextColor': '#000000', 'lineColor': '#555555'}}%%\n"

const groupClassDef = "classDef groupStyle fill:#2374ab,stroke:#1a5a8a,color:#fff,stroke-width:2px,font-weight:bold"

// categoryFills colors finding nodes by category.
var categoryFills = map[bug.Category]string{
	bug.Correctness:   "fill:#d9534f,stroke:#b52b27,color:#fff",
	bug.MTCorrectness: "fill:#a94442,stroke:#843534,color:#fff",
	bug.BadPractice:   "fill:#f0ad4e,stroke:#d58512,color:#000",
	bug.Style:         "fill:#5bc0de,stroke:#31b0d5,color:#000",
	bug.Performance:   "fill:#9b59b6,stroke:#7d3c98,color:#fff",
	bug.Security:      "fill:#333333,stroke:#000000,color:#fff",
}

const otherFill = "fill:#eeeeee,stroke:#999999,color:#000"

// GenerateMermaid produces a left-to-right Mermaid flowchart of the tree: one
// node per group, linked to its subgroups, and optionally one node per finding.
func GenerateMermaid(view tree.View, opts DiagramOptions) string {
	var b strings.Builder
	if opts.IncludeInit {
		b.WriteString(initDirective)
	}
	b.WriteString("flowchart LR")
	if len(view.Groups) == 0 {
		return b.String()
	}

	w := &writer{b: &b, opts: opts, byCategory: map[bug.Category][]string{}}
	b.WriteString("\n    " + groupClassDef)
	for i, g := range view.Groups {
		w.group(g, "", []int{i}, 1)
	}

	b.WriteString("\n")
	b.WriteString("\n    class " + strings.Join(w.groups, ",") + " groupStyle")
	cats := make([]bug.Category, 0, len(w.byCategory))
	for c := range w.byCategory {
		cats = append(cats, c)
	}
	slices.Sort(cats)
	for _, c := range cats {
		name := styleName(c)
		fill, ok := categoryFills[c]
		if !ok {
			fill = otherFill
		}
		b.WriteString(fmt.Sprintf("\n    classDef %s %s", name, fill))
		b.WriteString(fmt.Sprintf("\n    class %s %s", strings.Join(w.byCategory[c], ","), name))
	}
	return b.String()
}

type writer struct {
	b          *strings.Builder
	opts       DiagramOptions
	groups     []string
	byCategory map[bug.Category][]string
}

func (w *writer) group(g tree.GroupView, parentID string, path []int, depth int) {
	id := NodeID(path)
	w.groups = append(w.groups, id)
	w.b.WriteString(fmt.Sprintf("\n    %s[\"%s (%d)\"]", id, escapeLabel(g.Label), g.Count))
	if parentID != "" {
		w.b.WriteString(fmt.Sprintf("\n    %s --> %s", parentID, id))
	}

	if w.opts.MaxDepth > 0 && depth >= w.opts.MaxDepth {
		return
	}
	for i, child := range g.Groups {
		w.group(child, id, append(slices.Clone(path), i), depth+1)
	}
	if w.opts.ShowBugs {
		w.bugs(g.Bugs, id)
	}
}

func (w *writer) bugs(bugs []bug.Bug, parentID string) {
	limit := len(bugs)
	if w.opts.MaxBugsPerGroup > 0 && limit > w.opts.MaxBugsPerGroup {
		limit = w.opts.MaxBugsPerGroup
	}
	for i := 0; i < limit; i++ {
		b := bugs[i]
		id := parentID + "_b" + strconv.Itoa(i)
		w.b.WriteString(fmt.Sprintf("\n    %s[\"%s<br/>%s\"]", id, escapeLabel(b.Position()), escapeLabel(b.Message)))
		w.b.WriteString(fmt.Sprintf("\n    %s --> %s", parentID, id))
		w.byCategory[b.Category] = append(w.byCategory[b.Category], id)
	}
	if rest := len(bugs) - limit; rest > 0 {
		id := parentID + "_more"
		w.b.WriteString(fmt.Sprintf("\n    %s[\"... %d more\"]", id, rest))
		w.b.WriteString(fmt.Sprintf("\n    %s -.-> %s", parentID, id))
	}
}

// NodeID builds the node ID of the group at path, e.g. g0_2_1 for the second
// child of the third child of the first root.
func NodeID(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return "g" + strings.Join(parts, "_")
}

// escapeLabel replaces characters that end or break a quoted Mermaid label
// with their entity codes.
func escapeLabel(s string) string {
	r := strings.NewReplacer(
		`"`, "#quot;",
		"<", "#lt;",
		">", "#gt;",
		"\n", " ",
	)
	return r.Replace(s)
}

// styleName returns the classDef name for a category, e.g. badPracticeStyle.
func styleName(c bug.Category) string {
	if c == "" {
		return "uncategorizedStyle"
	}
	words := strings.Split(strings.ToLower(string(c)), "_")
	for i := 1; i < len(words); i++ {
		if words[i] != "" {
			words[i] = strings.ToUpper(words[i][:1]) + words[i][1:]
		}
	}
	return strings.Join(words, "") + "Style"
}
