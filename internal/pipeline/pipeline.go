// Package pipeline runs one analysis end to end: resolve the input, analyze
// it and classify every finding into a tree as it is produced.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/olehluchkiv/bugtree/internal/analyzer"
	"github.com/olehluchkiv/bugtree/internal/bug"
	"github.com/olehluchkiv/bugtree/internal/resolver"
	"github.com/olehluchkiv/bugtree/internal/store"
	"github.com/olehluchkiv/bugtree/internal/tree"
)

// defaultBuffer is the findings channel capacity between analyzer and tree.
const defaultBuffer = 64

// Config describes one run.
type Config struct {
	Input   string          // local path or GitHub URL
	GroupBy []bug.GroupBy   // tree levels; empty means bug.DefaultGroupBy
	Options analyzer.Options
	Buffer  int // findings channel capacity; 0 means default
}

// Result is a finished run.
type Result struct {
	RunID     string
	Input     string
	Dir       string
	Model     *tree.Model
	Stats     analyzer.Stats
	StartedAt time.Time
	Duration  time.Duration
}

// Run resolves cfg.Input, analyzes it and builds the tree. The analyzer is
// the producer and the tree the only consumer, so findings reach the grouper
// one at a time.
func Run(ctx context.Context, cfg Config, logger *slog.Logger) (*Result, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating run ID: %w", err)
	}
	res := &Result{
		RunID:     id.String(),
		Input:     cfg.Input,
		StartedAt: time.Now(),
	}
	logger = logger.With("run_id", res.RunID)

	groupBy := cfg.GroupBy
	if len(groupBy) == 0 {
		groupBy = bug.DefaultGroupBy
	}
	res.Model, err = tree.NewModel(groupBy, logger)
	if err != nil {
		return nil, err
	}

	dir, cleanup, err := resolver.Resolve(ctx, cfg.Input, logger)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", cfg.Input, err)
	}
	defer cleanup()
	res.Dir = dir

	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	findings := make(chan bug.Bug, buffer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(findings)
		stats, err := analyzer.Analyze(gctx, dir, cfg.Options, logger, func(b bug.Bug) error {
			select {
			case findings <- b:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		res.Stats = stats
		return err
	})
	g.Go(func() error {
		return res.Model.Consume(gctx, findings)
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	res.Duration = time.Since(res.StartedAt)
	logger.Info("run complete",
		"dir", dir,
		"group_by", bug.FormatGroupBy(groupBy),
		"findings", res.Model.Len(),
		"duration", res.Duration)
	return res, nil
}

// Record converts the result into its stored form.
func (r *Result) Record() store.Run {
	return store.Run{
		ID:        r.RunID,
		Input:     r.Input,
		Dir:       r.Dir,
		GroupBy:   bug.FormatGroupBy(r.Model.GroupBy()),
		StartedAt: r.StartedAt,
		Duration:  r.Duration,
		Packages:  r.Stats.Packages,
		Patterns:  r.Stats.Patterns,
		Findings:  r.Stats.Findings,
		Dropped:   r.Stats.Dropped,
		Failures:  r.Stats.Failures,
	}
}

// Save persists the result and its findings.
func Save(s *store.Store, r *Result) error {
	if err := s.SaveRun(r.Record(), r.Model.Bugs()); err != nil {
		return fmt.Errorf("saving run %s: %w", r.RunID, err)
	}
	return nil
}

// FromStore rebuilds a result from a stored run. An empty groupBy reuses the
// grouping the run was saved with.
func FromStore(run store.Run, bugs []bug.Bug, groupBy []bug.GroupBy, logger *slog.Logger) (*Result, error) {
	if len(groupBy) == 0 {
		parsed, err := bug.ParseGroupBy(run.GroupBy)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", run.ID, err)
		}
		groupBy = parsed
	}

	model, err := tree.NewModel(groupBy, logger.With("run_id", run.ID))
	if err != nil {
		return nil, err
	}
	for _, b := range bugs {
		if err := model.Add(b); err != nil {
			return nil, err
		}
	}

	return &Result{
		RunID:     run.ID,
		Input:     run.Input,
		Dir:       run.Dir,
		Model:     model,
		StartedAt: run.StartedAt,
		Duration:  run.Duration,
		Stats: analyzer.Stats{
			Packages: run.Packages,
			Patterns: run.Patterns,
			Findings: run.Findings,
			Dropped:  run.Dropped,
			Failures: run.Failures,
		},
	}, nil
}

// Load reads run id (or the newest run for "latest") from s and rebuilds it.
func Load(s *store.Store, id string, groupBy []bug.GroupBy, logger *slog.Logger) (*Result, error) {
	var (
		run store.Run
		err error
	)
	if id == "" || id == "latest" {
		run, err = s.Latest()
	} else {
		run, err = s.LoadRun(id)
	}
	if err != nil {
		return nil, err
	}

	bugs, err := s.LoadFindings(run.ID)
	if err != nil {
		return nil, err
	}
	return FromStore(run, bugs, groupBy, logger)
}
