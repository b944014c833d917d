package analyzer

import (
	"context"
	"fmt"
	"go/token"
	"log/slog"
	"path/filepath"
	"slices"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/checker"
	"golang.org/x/tools/go/packages"

	"github.com/olehluchkiv/bugtree/internal/bug"
)

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedDeps | packages.NeedTypes | packages.NeedTypesSizes |
	packages.NeedSyntax | packages.NeedTypesInfo | packages.NeedModule

// Analyze loads the packages in scope under dir, runs the selected bug
// patterns over them and hands every finding that survives the filters to
// emit, ordered by file and position. Analysis stops at the first emit error.
func Analyze(ctx context.Context, dir string, opts Options, logger *slog.Logger, emit func(bug.Bug) error) (Stats, error) {
	var stats Stats

	selected, err := Select(opts.Analyzers)
	if err != nil {
		return stats, err
	}
	stats.Patterns = len(selected)

	patterns := opts.Scope.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	cfg := &packages.Config{
		Mode:    loadMode,
		Dir:     dir,
		Context: ctx,
		Tests:   opts.Scope.IncludeTests,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return stats, fmt.Errorf("loading packages: %w", err)
	}
	stats.Packages = len(pkgs)

	logger.Info("packages loaded", "packages_count", len(pkgs), "patterns", patterns)

	// Log packages with errors but continue
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			logger.Warn("package load error", "package", pkg.PkgPath, "error", e.Msg)
		}
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	analyzers := make([]*analysis.Analyzer, len(selected))
	byName := make(map[string]Pattern, len(selected))
	for i, p := range selected {
		analyzers[i] = p.Analyzer
		byName[p.Name()] = p
	}

	graph, err := checker.Analyze(analyzers, pkgs, &checker.Options{})
	if err != nil {
		return stats, fmt.Errorf("running analyzers: %w", err)
	}

	var bugs []bug.Bug
	seen := make(map[string]bool)
	for _, act := range graph.Roots {
		if act.Err != nil {
			stats.Failures++
			logger.Warn("analyzer failed", "analyzer", act.Analyzer.Name, "package", act.Package.PkgPath, "error", act.Err)
			continue
		}
		pattern := byName[act.Analyzer.Name]
		for _, d := range act.Diagnostics {
			b := toBug(pattern, act.Package, d, dir)
			// Test variants of a package repeat the findings of its regular files.
			if seen[b.ID] {
				continue
			}
			seen[b.ID] = true
			bugs = append(bugs, b)
			logger.Debug("finding", "type", b.Type, "position", b.Position())
		}
	}

	slices.SortFunc(bugs, bug.Compare)
	kept := Filter(bugs, opts)
	stats.Dropped = len(bugs) - len(kept)

	for _, b := range kept {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := emit(b); err != nil {
			return stats, err
		}
		stats.Findings++
	}

	logger.Info("analysis complete", "findings", stats.Findings, "dropped", stats.Dropped, "failures", stats.Failures)
	return stats, nil
}

func toBug(p Pattern, pkg *packages.Package, d analysis.Diagnostic, moduleRoot string) bug.Bug {
	pos := pkg.Fset.Position(d.Pos)
	b := bug.Bug{
		PkgPath:          pkg.PkgPath,
		PkgName:          pkg.Name,
		File:             relativeFile(pos, moduleRoot),
		Line:             pos.Line,
		Column:           pos.Column,
		Category:         p.Category,
		Type:             p.Name(),
		ShortDescription: p.ShortDescription(),
		Message:          d.Message,
		Priority:         p.Priority,
	}
	b.ID = bug.ComputeID(b)
	return b
}

// relativeFile resolves a position's file to a slash separated path relative
// to moduleRoot.
func relativeFile(pos token.Position, moduleRoot string) string {
	if !pos.IsValid() || pos.Filename == "" {
		return ""
	}
	rel, err := filepath.Rel(moduleRoot, pos.Filename)
	if err != nil {
		return filepath.ToSlash(pos.Filename)
	}
	return filepath.ToSlash(rel)
}
