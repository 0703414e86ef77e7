package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"tasklang/internal/hostio"
	"tasklang/internal/runner"
	"tasklang/internal/store"
	"tasklang/internal/util/future"
	"time"
)

type Script struct {
	Name   string
	Source string
	Input  []string // answers served to ask, in order
}

type Options struct {
	Workers int           // parallel interpreters; <= 0 means one
	Timeout time.Duration // per script; 0 means no limit
	Strict  bool
	Store   *store.Store // optional run history
}

type Result struct {
	Script    string
	Output    []string
	Err       error
	StartedAt time.Time
	Duration  time.Duration
	RunID     int64 // id in the history store, 0 when not recorded
}

// LoadScripts reads every file matching pattern, sorted by path.
func LoadScripts(pattern string) ([]Script, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("batch: bad pattern %q: %w", pattern, err)
	}
	sort.Strings(paths)

	scripts := make([]Script, 0, len(paths))
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("batch: read %s: %w", path, err)
		}
		scripts = append(scripts, Script{Name: path, Source: string(src)})
	}
	return scripts, nil
}

// Run evaluates each script in its own interpreter, at most opts.Workers at
// a time. Results come back in input order. A store failure is logged and
// does not change the script's result.
func Run(ctx context.Context, scripts []Script, opts Options) []Result {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	futures := make([]*future.Future[Result], len(scripts))
	for i, script := range scripts {
		script := script
		futures[i] = future.New(func() (Result, error) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
			}
			if err := ctx.Err(); err != nil {
				return Result{Script: script.Name, Err: err, StartedAt: time.Now()}, nil
			}
			return runOne(ctx, script, opts), nil
		})
	}

	// script failures travel in Result.Err, so the futures never fail
	results, _ := future.All(futures...)

	if opts.Store != nil {
		for i := range results {
			record(ctx, opts.Store, scripts[i], &results[i])
		}
	}
	return results
}

func runOne(ctx context.Context, script Script, opts Options) Result {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	buf := hostio.NewBuffer(script.Input...)
	r := &runner.Runner{Name: script.Name, IO: buf, Strict: opts.Strict}

	started := time.Now()
	_, err := r.Exec(ctx, script.Source)
	result := Result{
		Script:    script.Name,
		Output:    buf.Output(),
		Err:       err,
		StartedAt: started,
		Duration:  time.Since(started),
	}

	if err != nil {
		slog.Warn("script failed", slog.String("script", script.Name), slog.Any("error", err))
	}
	return result
}

func record(ctx context.Context, s *store.Store, script Script, result *Result) {
	run := store.NewRun(script.Name, script.Source, result.Output, result.Err, result.StartedAt, result.Duration)
	id, err := s.Record(ctx, run)
	if err != nil {
		slog.Error("failed to record run", slog.String("script", script.Name), slog.Any("error", err))
		return
	}
	result.RunID = id
}
