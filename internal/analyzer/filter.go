package analyzer

import (
	"strings"

	"github.com/olehluchkiv/bugtree/internal/bug"
)

// Filter applies the filtering options to a list of findings.
func Filter(bugs []bug.Bug, opts Options) []bug.Bug {
	var filtered []bug.Bug
	for _, b := range bugs {
		if keep(b, opts) {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

func keep(b bug.Bug, opts Options) bool {
	// Filter by package prefix
	if opts.Filter != "" && !strings.HasPrefix(b.PkgPath, opts.Filter) {
		return false
	}

	// Lower priority values are more severe
	if opts.MinPriority > 0 && b.Priority > opts.MinPriority {
		return false
	}

	if !opts.Scope.IncludeTests && isTestFile(b.File) {
		return false
	}
	return true
}

func isTestFile(file string) bool {
	return strings.HasSuffix(file, "_test.go")
}
