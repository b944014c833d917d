package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/olehluchkiv/bugtree/internal/bug"
	"github.com/olehluchkiv/bugtree/internal/tree"
)

// TextOptions controls the indented text tree.
type TextOptions struct {
	Color    bool // style output for a terminal
	HideBugs bool // list groups only
}

type textStyles struct {
	enabled  bool
	header   lipgloss.Style
	root     lipgloss.Style
	group    lipgloss.Style
	count    lipgloss.Style
	position lipgloss.Style
	priority map[bug.Priority]lipgloss.Style
}

func newTextStyles(w io.Writer, color bool) textStyles {
	r := lipgloss.NewRenderer(w)
	return textStyles{
		enabled:  color,
		header:   r.NewStyle().Bold(true),
		root:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		group:    r.NewStyle().Foreground(lipgloss.Color("14")),
		count:    r.NewStyle().Faint(true),
		position: r.NewStyle().Foreground(lipgloss.Color("8")),
		priority: map[bug.Priority]lipgloss.Style{
			bug.High:   r.NewStyle().Foreground(lipgloss.Color("9")),
			bug.Normal: r.NewStyle().Foreground(lipgloss.Color("11")),
		},
	}
}

func (st textStyles) render(s lipgloss.Style, text string) string {
	if !st.enabled {
		return text
	}
	return s.Render(text)
}

// Text writes view as an indented tree, two spaces per level, with the
// finding count after every group.
func Text(w io.Writer, view tree.View, opts TextOptions) error {
	st := newTextStyles(w, opts.Color)
	var b strings.Builder

	b.WriteString(st.render(st.header, summary(view)))
	b.WriteString("\n")
	if len(view.Groups) == 0 {
		b.WriteString("No findings.\n")
	}

	view.Walk(func(depth int, g tree.GroupView) bool {
		label := st.group
		if depth == 0 {
			label = st.root
		}
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(&b, "%s%s %s\n", indent, st.render(label, g.Label), st.render(st.count, fmt.Sprintf("(%d)", g.Count)))
		if !opts.HideBugs {
			for _, f := range g.Bugs {
				msg := f.Message
				if s, ok := st.priority[f.Priority]; ok {
					msg = st.render(s, msg)
				}
				fmt.Fprintf(&b, "%s  - %s %s\n", indent, st.render(st.position, f.Position()), msg)
			}
		}
		return true
	})

	_, err := io.WriteString(w, b.String())
	return err
}

// summary is the header line, e.g. "4 findings grouped by category > type".
func summary(view tree.View) string {
	noun := "findings"
	if view.Total == 1 {
		noun = "finding"
	}
	levels := make([]string, len(view.GroupBy))
	for i, g := range view.GroupBy {
		levels[i] = string(g)
	}
	return fmt.Sprintf("%d %s grouped by %s", view.Total, noun, strings.Join(levels, " > "))
}
