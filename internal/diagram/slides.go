package diagram

import (
	"fmt"

	"github.com/olehluchkiv/bugtree/internal/tree"
)

// Slide represents one navigable page in the slide deck.
type Slide struct {
	Title   string `json:"title"`
	Mermaid string `json:"mermaid"`
}

// SlideOptions controls slide deck generation.
type SlideOptions struct {
	Threshold int // node count above which slides activate; 0 = always split
}

// DefaultSlideOptions returns sensible defaults.
func DefaultSlideOptions() SlideOptions {
	return SlideOptions{Threshold: 40}
}

// BuildSlides renders view as one slide when it is small, or as an overview
// of the top-level groups followed by one slide per top-level group.
func BuildSlides(view tree.View, diagOpts DiagramOptions, opts SlideOptions) []Slide {
	if len(view.Groups) == 0 || (opts.Threshold > 0 && countNodes(view, diagOpts) < opts.Threshold) {
		return []Slide{{
			Title:   "Full Diagram",
			Mermaid: GenerateMermaid(view, diagOpts),
		}}
	}

	overview := diagOpts
	overview.MaxDepth = 1
	overview.ShowBugs = false
	slides := []Slide{{
		Title:   "Overview",
		Mermaid: GenerateMermaid(view, overview),
	}}
	return append(slides, SplitByTopGroup(view, diagOpts)...)
}

// SplitByTopGroup renders one slide per top-level group.
func SplitByTopGroup(view tree.View, opts DiagramOptions) []Slide {
	slides := make([]Slide, 0, len(view.Groups))
	for i, g := range view.Groups {
		sub, _ := Subview(view, i)
		slides = append(slides, Slide{
			Title:   fmt.Sprintf("%s (%d)", g.Label, g.Count),
			Mermaid: GenerateMermaid(sub, opts),
		})
	}
	return slides
}

// Subview returns a view holding only the i-th top-level group.
func Subview(view tree.View, i int) (tree.View, bool) {
	if i < 0 || i >= len(view.Groups) {
		return tree.View{}, false
	}
	g := view.Groups[i]
	return tree.View{
		GroupBy: view.GroupBy,
		Total:   g.Count,
		Groups:  []tree.GroupView{g},
	}, true
}

// countNodes counts the nodes GenerateMermaid would draw for view.
func countNodes(view tree.View, opts DiagramOptions) int {
	n := 0
	view.Walk(func(depth int, g tree.GroupView) bool {
		n++
		within := opts.MaxDepth == 0 || depth+1 < opts.MaxDepth
		if opts.ShowBugs && within {
			bugs := len(g.Bugs)
			if opts.MaxBugsPerGroup > 0 && bugs > opts.MaxBugsPerGroup {
				bugs = opts.MaxBugsPerGroup + 1
			}
			n += bugs
		}
		return within
	})
	return n
}
