package analyzer

import "github.com/olehluchkiv/bugtree/internal/bug"

// Scope selects what gets analyzed.
type Scope struct {
	Patterns     []string // go/packages patterns relative to the module root; default ./...
	IncludeTests bool     // analyze _test.go files too
}

// Options controls analysis behavior.
type Options struct {
	Scope       Scope
	Analyzers   []string     // bug pattern names; empty means all
	Filter      string       // package path prefix filter
	MinPriority bug.Priority // drop findings less severe than this; 0 keeps all
}

// Stats summarizes one analysis run.
type Stats struct {
	Packages int // root packages analyzed
	Patterns int // bug patterns run
	Findings int // findings emitted
	Dropped  int // findings removed by filters
	Failures int // analyzer actions that returned an error
}

// DefaultPatterns is the package pattern used when a scope names none.
var DefaultPatterns = []string{"./..."}
