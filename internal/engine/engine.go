// Package engine orchestrates fleet synchronization runs: it resolves
// the working set of repositories and drives the per-repo workflow
// across a bounded worker pool, coordinating the discovery, cache,
// gitx and config packages.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/skaphos/fleetpull/internal/cache"
	"github.com/skaphos/fleetpull/internal/config"
	"github.com/skaphos/fleetpull/internal/discovery"
	"github.com/skaphos/fleetpull/internal/gitx"
	"github.com/skaphos/fleetpull/internal/model"
	"github.com/skaphos/fleetpull/internal/sortutil"
)

const maxWorkerChannelBuffer = 100

// maxWorkers bounds the worker count accepted from flags and config.
const maxWorkers = 64

// defaultBackoff is the pause between fetch attempts.
const defaultBackoff = 2 * time.Second

// Engine is the core orchestrator for FleetPull operations. It holds
// no mutable run state; all aggregation happens on the coordinator
// goroutine inside Sync.
type Engine struct {
	cfg    *config.Config
	runner gitx.Runner

	// backoff is the pause between fetch retries. Tests shorten it.
	backoff time.Duration
}

// New creates a new Engine with the given configuration. A nil runner
// selects the default exec-backed runner, whose per-command timeout is
// resolved per run.
func New(cfg *config.Config, runner gitx.Runner) *Engine {
	return &Engine{
		cfg:     cfg,
		runner:  runner,
		backoff: defaultBackoff,
	}
}

// Config returns the engine configuration reference.
func (e *Engine) Config() *config.Config { return e.cfg }

// SyncOptions configures a sync run.
type SyncOptions struct {
	// Root is the directory tree holding the repositories. Empty means
	// the current directory.
	Root string
	// Workers caps concurrently processed repositories. 0 falls back to
	// the configured default.
	Workers int
	// TimeoutSeconds bounds each git command. 0 falls back to the
	// configured default.
	TimeoutSeconds int
	// Refresh discards the cached repository list and rescans.
	Refresh bool
	// FetchOnly skips every working-tree update.
	FetchOnly bool
	// ForceSync discards local changes and resets each repository onto
	// its remote default branch.
	ForceSync bool
	// CleanUntracked removes untracked files around a force sync.
	CleanUntracked bool
	// NoInit leaves uninitialized submodules alone.
	NoInit bool
	// Exclude holds extra glob patterns applied during discovery, on
	// top of the configured ones.
	Exclude []string
}

// RunProgress carries completion counts to the progress callback.
type RunProgress struct {
	Done  int
	Total int
}

// ResultCallback observes each completed repository during Sync.
// Callbacks run on the coordinator goroutine, so callers can safely
// write terminal output without additional synchronization.
type ResultCallback func(res model.RepoResult, progress RunProgress)

// RepoSet is the resolved working set for one run.
type RepoSet struct {
	// Root is the absolute scan root.
	Root string
	// Paths holds the absolute repository paths, sorted.
	Paths []string
	// FromCache is true when the set was served from the path cache.
	FromCache bool
	// CacheErr records a cache write failure after a scan.
	// Informational; never fatal to the run.
	CacheErr error
}

// Repos resolves the run's working set. The cached list is used when
// it exists and every entry still validates; any cache problem falls
// back to a scan, and a scan always rewrites the cache.
func (e *Engine) Repos(opts SyncOptions) (RepoSet, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return RepoSet{}, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return RepoSet{}, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return RepoSet{}, fmt.Errorf("scan root %s is not a directory", absRoot)
	}

	if !opts.Refresh {
		if paths, err := cache.Load(absRoot); err == nil {
			return RepoSet{Root: absRoot, Paths: dedupePaths(paths), FromCache: true}, nil
		}
		// Missing, stale or unreadable cache: fall through to a scan.
	}

	paths, err := discovery.FindRepos(absRoot, e.excludes(opts))
	if err != nil {
		return RepoSet{}, err
	}
	set := RepoSet{Root: absRoot, Paths: dedupePaths(paths)}
	set.CacheErr = cache.Save(absRoot, set.Paths)
	return set, nil
}

func (e *Engine) excludes(opts SyncOptions) []string {
	var patterns []string
	if e.cfg != nil {
		patterns = append(patterns, e.cfg.Exclude...)
	}
	return append(patterns, opts.Exclude...)
}

// dedupePaths sorts the paths and drops duplicates. Cached lists may
// be hand-edited, so duplicates are tolerated rather than rejected.
func dedupePaths(paths []string) []string {
	sort.Strings(paths)
	out := paths[:0]
	for _, p := range paths {
		if len(out) > 0 && sortutil.SamePath(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sync runs the per-repo workflow for every repository in the set.
// Per-repo failures are folded into the results; the returned error
// covers only setup problems such as an out-of-range worker count.
func (e *Engine) Sync(ctx context.Context, set RepoSet, opts SyncOptions, onDone ResultCallback) ([]model.RepoResult, model.RunSummary, error) {
	workers, timeoutSeconds, err := e.syncRuntime(opts)
	if err != nil {
		return nil, model.RunSummary{}, err
	}
	runner := e.syncRunner(timeoutSeconds)

	summary := model.RunSummary{
		RunID:   uuid.NewString(),
		Root:    set.Root,
		Started: time.Now(),
	}

	// Snapshot paths so a caller mutating the set cannot race the pool.
	paths := append([]string(nil), set.Paths...)

	sem := make(chan struct{}, workers)
	out := make(chan model.RepoResult, workerChannelBufferSize(len(paths)))
	// Spawn from a separate goroutine so results are drained while
	// workers are still being admitted; with the spawn loop and the
	// collect loop on one goroutine, fleets larger than the channel
	// buffer would wedge. Every path yields exactly one result.
	go func() {
		for _, path := range paths {
			sem <- struct{}{}
			go func(path string) {
				defer func() { <-sem }()
				out <- e.syncRepo(ctx, runner, set.Root, path, opts)
			}(path)
		}
	}()

	// Single aggregation point: counters, the result list and the
	// progress callback are only touched here, on the coordinator
	// goroutine.
	results := make([]model.RepoResult, 0, len(paths))
	for i := 0; i < len(paths); i++ {
		res := <-out
		results = append(results, res)
		summary.Processed++
		if res.Failed {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
		summary.NewCommits += res.NewCommits
		if onDone != nil {
			onDone(res, RunProgress{Done: i + 1, Total: len(paths)})
		}
	}

	sortutil.SortRepoResults(results)
	summary.Elapsed = time.Since(summary.Started)
	return results, summary, nil
}

func workerChannelBufferSize(repoCount int) int {
	if repoCount <= 0 {
		return 1
	}
	if repoCount > maxWorkerChannelBuffer {
		return maxWorkerChannelBuffer
	}
	return repoCount
}

func (e *Engine) syncRuntime(opts SyncOptions) (int, int, error) {
	defaults := config.DefaultConfig().Defaults

	workers := opts.Workers
	if workers == 0 {
		if e.cfg != nil && e.cfg.Defaults.Workers > 0 {
			workers = e.cfg.Defaults.Workers
		} else {
			workers = defaults.Workers
		}
	}
	if workers < 1 || workers > maxWorkers {
		return 0, 0, fmt.Errorf("workers must be between 1 and %d, got %d", maxWorkers, workers)
	}

	timeoutSeconds := opts.TimeoutSeconds
	if timeoutSeconds <= 0 {
		if e.cfg != nil && e.cfg.Defaults.TimeoutSeconds > 0 {
			timeoutSeconds = e.cfg.Defaults.TimeoutSeconds
		} else {
			timeoutSeconds = defaults.TimeoutSeconds
		}
	}
	return workers, timeoutSeconds, nil
}

// syncRunner returns the runner for one run, wrapped with the one-shot
// HTTPS fallback. An injected runner is kept as-is underneath the
// wrapper; otherwise a fresh exec runner carries the run's per-command
// timeout.
func (e *Engine) syncRunner(timeoutSeconds int) gitx.Runner {
	inner := e.runner
	if inner == nil {
		inner = &gitx.ExecRunner{Timeout: time.Duration(timeoutSeconds) * time.Second}
	}
	return &gitx.FallbackRunner{Inner: inner}
}
