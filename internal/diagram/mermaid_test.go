package diagram

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/bugtree/internal/bug"
	"github.com/olehluchkiv/bugtree/internal/tree"
	"github.com/olehluchkiv/bugtree/internal/tree/treetest"
)

func TestGenerateMermaid_Golden(t *testing.T) {
	view := treetest.View(t, bug.DefaultGroupBy, treetest.Bugs())

	g := goldie.New(t)
	g.Assert(t, "category", []byte(GenerateMermaid(view, DefaultDiagramOptions())))
}

func TestGenerateMermaid_Empty(t *testing.T) {
	assert.Equal(t, "flowchart LR", GenerateMermaid(tree.View{}, DefaultDiagramOptions()))

	opts := DefaultDiagramOptions()
	opts.IncludeInit = true
	out := GenerateMermaid(tree.View{}, opts)
	assert.True(t, strings.HasPrefix(out, "%%{init:"))
	assert.True(t, strings.HasSuffix(out, "\nflowchart LR"))
}

func TestGenerateMermaid_WithoutBugs(t *testing.T) {
	view := treetest.View(t, bug.DefaultGroupBy, treetest.Bugs())
	out := GenerateMermaid(view, DiagramOptions{})

	assert.NotContains(t, out, "_b0")
	assert.NotContains(t, out, "correctnessStyle")
	assert.Contains(t, out, "class g0,g0_0,g0_1,g1,g1_0,g1_1 groupStyle")
}

func TestGenerateMermaid_MaxDepth(t *testing.T) {
	view := treetest.View(t, bug.SortOrder(bug.ByPackage), treetest.Bugs())
	out := GenerateMermaid(view, DiagramOptions{ShowBugs: true, MaxDepth: 1})

	assert.Contains(t, out, `g0["example.com/m/api (3)"]`)
	assert.Contains(t, out, `g1["example.com/m/store (1)"]`)
	assert.NotContains(t, out, "g0_0")
	assert.NotContains(t, out, "-->")
}

func TestGenerateMermaid_TruncatesBugs(t *testing.T) {
	var bugs []bug.Bug
	for i := 1; i <= 4; i++ {
		b := treetest.Bugs()[0]
		b.Line = i
		b.ID = bug.ComputeID(b)
		bugs = append(bugs, b)
	}
	view := treetest.View(t, []bug.GroupBy{bug.ByType}, bugs)

	out := GenerateMermaid(view, DiagramOptions{ShowBugs: true, MaxBugsPerGroup: 2})
	assert.Contains(t, out, "g0_b1[")
	assert.NotContains(t, out, "g0_b2[")
	assert.Contains(t, out, `g0_more["... 2 more"]`)
	assert.Contains(t, out, "g0 -.-> g0_more")
}

func TestEscapeLabel(t *testing.T) {
	assert.Equal(t, "#quot;x#quot; #lt;-chan#gt; a b", escapeLabel("\"x\" <-chan> a\nb"))
}

func TestNodeID(t *testing.T) {
	assert.Equal(t, "g0", NodeID([]int{0}))
	assert.Equal(t, "g0_2_1", NodeID([]int{0, 2, 1}))
}

func TestStyleName(t *testing.T) {
	assert.Equal(t, "correctnessStyle", styleName(bug.Correctness))
	assert.Equal(t, "badPracticeStyle", styleName(bug.BadPractice))
	assert.Equal(t, "mtCorrectnessStyle", styleName(bug.MTCorrectness))
	assert.Equal(t, "uncategorizedStyle", styleName(""))
}

func TestBuildSlides(t *testing.T) {
	view := treetest.View(t, bug.DefaultGroupBy, treetest.Bugs())

	single := BuildSlides(view, DefaultDiagramOptions(), DefaultSlideOptions())
	require.Len(t, single, 1)
	assert.Equal(t, "Full Diagram", single[0].Title)

	deck := BuildSlides(view, DefaultDiagramOptions(), SlideOptions{Threshold: 5})
	require.Len(t, deck, 3)
	assert.Equal(t, "Overview", deck[0].Title)
	assert.NotContains(t, deck[0].Mermaid, "g0_0")
	assert.Equal(t, "Correctness (2)", deck[1].Title)
	assert.Equal(t, "Style (2)", deck[2].Title)
	assert.Contains(t, deck[2].Mermaid, `g0["Style (2)"]`)
}

func TestSubview(t *testing.T) {
	view := treetest.View(t, bug.DefaultGroupBy, treetest.Bugs())

	sub, ok := Subview(view, 1)
	require.True(t, ok)
	assert.Equal(t, 2, sub.Total)
	require.Len(t, sub.Groups, 1)
	assert.Equal(t, "Style", sub.Groups[0].Label)

	_, ok = Subview(view, 2)
	assert.False(t, ok)
	_, ok = Subview(view, -1)
	assert.False(t, ok)
}

func TestCountNodes(t *testing.T) {
	view := treetest.View(t, bug.DefaultGroupBy, treetest.Bugs())
	assert.Equal(t, 10, countNodes(view, DefaultDiagramOptions()))
	assert.Equal(t, 6, countNodes(view, DiagramOptions{}))
	assert.Equal(t, 2, countNodes(view, DiagramOptions{ShowBugs: true, MaxDepth: 1}))
}
