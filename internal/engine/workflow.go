// SPDX-License-Identifier: MIT
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/skaphos/fleetpull/internal/discovery"
	"github.com/skaphos/fleetpull/internal/gitx"
	"github.com/skaphos/fleetpull/internal/model"
)

// fetchAttempts caps transient fetch retries per repository.
const fetchAttempts = 3

// syncRepo runs the full per-repository workflow: validate, fetch with
// retries, diff remote refs, update the working tree, reconcile
// submodules. Every failure is folded into the result; nothing escapes
// to the pool.
func (e *Engine) syncRepo(ctx context.Context, runner gitx.Runner, root, repoPath string, opts SyncOptions) model.RepoResult {
	res := model.RepoResult{
		Path: repoPath,
		Name: DisplayName(root, repoPath),
	}

	if err := discovery.Validate(repoPath); err != nil {
		failRepo(&res, err.Error())
		return res
	}

	before := gitx.CaptureSnapshot(ctx, runner, repoPath)

	fetchRes, ok := e.fetchWithRetry(ctx, runner, repoPath)
	if !ok {
		failRepo(&res, fetchRes.Output)
		return res
	}

	after := gitx.CaptureSnapshot(ctx, runner, repoPath)
	collectCommits(ctx, runner, repoPath, gitx.DiffSnapshots(before, after), &res)

	if !opts.FetchOnly {
		if opts.ForceSync {
			if !e.forceSync(ctx, runner, repoPath, opts, &res) {
				return res
			}
		} else if pullRes := gitx.PullFFOnly(ctx, runner, repoPath); !pullRes.OK() {
			failRepo(&res, pullRes.Output)
			return res
		} else if out := strings.TrimSpace(pullRes.Output); out != "" && !alreadyUpToDate(out) {
			logEntry(&res, model.EntryPlain, out)
		}
	}

	if gitx.HasSubmodules(ctx, runner, repoPath) {
		e.reconcileSubmodules(ctx, runner, repoPath, opts, &res)
	}
	return res
}

// fetchWithRetry fetches with a bounded number of attempts. After the
// first failure the origin remote is pruned once, clearing tracking
// refs whose objects the remote dropped, and each retry waits out a
// fixed pause. The final attempt's result is returned on exhaustion.
func (e *Engine) fetchWithRetry(ctx context.Context, runner gitx.Runner, repoPath string) (gitx.Result, bool) {
	var res gitx.Result
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		res = gitx.FetchAll(ctx, runner, repoPath)
		if res.OK() {
			return res, true
		}
		if attempt == fetchAttempts {
			break
		}
		if attempt == 1 {
			gitx.PruneRemote(ctx, runner, repoPath, "origin")
		}
		if !e.sleepBackoff(ctx) {
			break
		}
	}
	return res, false
}

// sleepBackoff pauses between fetch attempts, honoring cancellation.
func (e *Engine) sleepBackoff(ctx context.Context) bool {
	if e.backoff <= 0 {
		return true
	}
	timer := time.NewTimer(e.backoff)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// collectCommits turns ref deltas into per-commit log entries. A commit
// reachable from several updated refs is counted once per repository.
func collectCommits(ctx context.Context, runner gitx.Runner, repoPath string, deltas []model.RefDelta, res *model.RepoResult) {
	seen := map[string]bool{}
	for _, delta := range deltas {
		var logRes gitx.Result
		switch delta.Kind {
		case model.DeltaAdded:
			logRes = gitx.LogSingle(ctx, runner, repoPath, delta.NewCommit)
		case model.DeltaAdvanced:
			logRes = gitx.LogRange(ctx, runner, repoPath, delta.OldCommit, delta.NewCommit)
		case model.DeltaDeleted:
			logEntry(res, model.EntryPlain, "remote branch deleted: "+strings.TrimPrefix(delta.Name, "refs/remotes/"))
			continue
		default:
			continue
		}
		if !logRes.OK() {
			logEntry(res, model.EntryWarning, fmt.Sprintf("could not list commits for %s: %s", delta.Name, logRes.Output))
			continue
		}
		for _, commit := range gitx.ParseCommitLines(logRes.Output) {
			if seen[commit.Hash] {
				continue
			}
			seen[commit.Hash] = true
			logEntry(res, model.EntryCommit, commit.String())
			res.NewCommits++
		}
	}
}

// forceSync discards local state and pins the working tree to the
// remote default branch. The branch pointer is resolved once up front;
// each repository has a single writer for the duration of the run.
func (e *Engine) forceSync(ctx context.Context, runner gitx.Runner, repoPath string, opts SyncOptions, res *model.RepoResult) bool {
	remoteRef, headRes := gitx.RemoteDefaultBranch(ctx, runner, repoPath, "origin")
	if remoteRef == "" {
		failRepo(res, "cannot resolve remote default branch: "+headRes.Output)
		return false
	}
	if opts.CleanUntracked {
		if cleanRes := gitx.CleanForce(ctx, runner, repoPath); !cleanRes.OK() {
			failRepo(res, cleanRes.Output)
			return false
		}
	}
	if coRes := gitx.CheckoutForceBranch(ctx, runner, repoPath, gitx.ShortBranch(remoteRef), remoteRef); !coRes.OK() {
		failRepo(res, coRes.Output)
		return false
	}
	if resetRes := gitx.ResetHard(ctx, runner, repoPath, remoteRef); !resetRes.OK() {
		failRepo(res, resetRes.Output)
		return false
	}
	if opts.CleanUntracked {
		if cleanRes := gitx.CleanForce(ctx, runner, repoPath); !cleanRes.OK() {
			failRepo(res, cleanRes.Output)
			return false
		}
	}
	logEntry(res, model.EntryPlain, "reset onto "+remoteRef)
	return true
}

// alreadyUpToDate matches both spellings git has used for the no-op
// pull message.
func alreadyUpToDate(out string) bool {
	return strings.Contains(out, "Already up to date") || strings.Contains(out, "Already up-to-date")
}

// DisplayName renders the repository path relative to the scan root,
// with forward slashes on every platform.
func DisplayName(root, repoPath string) string {
	rel, err := filepath.Rel(root, repoPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(repoPath)
	}
	if rel == "." {
		return filepath.Base(repoPath)
	}
	return filepath.ToSlash(rel)
}

func logEntry(res *model.RepoResult, kind model.EntryKind, text string) {
	res.Entries = append(res.Entries, model.LogEntry{Kind: kind, Text: text})
}

// failRepo marks the result failed with an error entry. The first
// error entry is what summaries surface.
func failRepo(res *model.RepoResult, text string) {
	res.Failed = true
	logEntry(res, model.EntryError, text)
}
