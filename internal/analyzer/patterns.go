package analyzer

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/appends"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/deepequalerrors"
	"golang.org/x/tools/go/analysis/passes/defers"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/ifaceassert"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/shift"
	"golang.org/x/tools/go/analysis/passes/sigchanyzer"
	"golang.org/x/tools/go/analysis/passes/sortslice"
	"golang.org/x/tools/go/analysis/passes/stdmethods"
	"golang.org/x/tools/go/analysis/passes/stringintconv"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/testinggoroutine"
	"golang.org/x/tools/go/analysis/passes/timeformat"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unsafeptr"
	"golang.org/x/tools/go/analysis/passes/unusedresult"

	"github.com/olehluchkiv/bugtree/internal/bug"
)

// Pattern is a bug pattern: an analyzer plus the category and priority its
// findings are filed under.
type Pattern struct {
	Analyzer *analysis.Analyzer
	Category bug.Category
	Priority bug.Priority
}

// Name is the bug type reported for the pattern's findings.
func (p Pattern) Name() string { return p.Analyzer.Name }

// ShortDescription is the first line of the analyzer documentation.
func (p Pattern) ShortDescription() string {
	doc := strings.TrimSpace(p.Analyzer.Doc)
	if i := strings.IndexByte(doc, '\n'); i >= 0 {
		doc = doc[:i]
	}
	return strings.TrimSuffix(doc, ".")
}

var registry = []Pattern{
	{appends.Analyzer, bug.Correctness, bug.Normal},
	{assign.Analyzer, bug.Correctness, bug.Normal},
	{atomic.Analyzer, bug.MTCorrectness, bug.High},
	{bools.Analyzer, bug.Style, bug.Normal},
	{copylock.Analyzer, bug.MTCorrectness, bug.High},
	{deepequalerrors.Analyzer, bug.Correctness, bug.Normal},
	{defers.Analyzer, bug.Correctness, bug.Normal},
	{errorsas.Analyzer, bug.Correctness, bug.High},
	{httpresponse.Analyzer, bug.BadPractice, bug.High},
	{ifaceassert.Analyzer, bug.Correctness, bug.High},
	{lostcancel.Analyzer, bug.BadPractice, bug.Normal},
	{nilfunc.Analyzer, bug.Correctness, bug.Normal},
	{nilness.Analyzer, bug.Correctness, bug.High},
	{printf.Analyzer, bug.Correctness, bug.Normal},
	{shadow.Analyzer, bug.Style, bug.Low},
	{shift.Analyzer, bug.Correctness, bug.Normal},
	{sigchanyzer.Analyzer, bug.MTCorrectness, bug.Normal},
	{sortslice.Analyzer, bug.Correctness, bug.Normal},
	{stdmethods.Analyzer, bug.BadPractice, bug.Normal},
	{stringintconv.Analyzer, bug.Correctness, bug.Normal},
	{structtag.Analyzer, bug.BadPractice, bug.Normal},
	{testinggoroutine.Analyzer, bug.MTCorrectness, bug.Normal},
	{timeformat.Analyzer, bug.Correctness, bug.Low},
	{unmarshal.Analyzer, bug.Correctness, bug.High},
	{unreachable.Analyzer, bug.Style, bug.Low},
	{unsafeptr.Analyzer, bug.Security, bug.Normal},
	{unusedresult.Analyzer, bug.BadPractice, bug.Normal},
}

// Patterns returns every registered bug pattern, sorted by name.
func Patterns() []Pattern {
	out := slices.Clone(registry)
	slices.SortFunc(out, func(a, b Pattern) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}

// Lookup finds a pattern by analyzer name.
func Lookup(name string) (Pattern, bool) {
	for _, p := range registry {
		if p.Name() == name {
			return p, true
		}
	}
	return Pattern{}, false
}

// Select returns the patterns with the given names, or all patterns when
// names is empty.
func Select(names []string) ([]Pattern, error) {
	if len(names) == 0 {
		return Patterns(), nil
	}
	out := make([]Pattern, 0, len(names))
	for _, name := range names {
		p, ok := Lookup(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown bug pattern: %s", name)
		}
		if !slices.ContainsFunc(out, func(q Pattern) bool { return q.Name() == p.Name() }) {
			out = append(out, p)
		}
	}
	return out, nil
}
