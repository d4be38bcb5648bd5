package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/skaphos/fleetpull/internal/gitx"
	"github.com/skaphos/fleetpull/internal/model"
)

// reconcileSubmodules brings recorded submodule checkouts in line with
// the superproject. URL sync and per-submodule fetches degrade to
// warnings; a failed update is fatal, because the checked-out commits
// then no longer match what the superproject records.
func (e *Engine) reconcileSubmodules(ctx context.Context, runner gitx.Runner, repoPath string, opts SyncOptions, res *model.RepoResult) {
	if syncRes := gitx.SubmoduleSync(ctx, runner, repoPath); !syncRes.OK() {
		logEntry(res, model.EntryWarning, "submodule sync failed: "+syncRes.Output)
	}

	if updRes := gitx.SubmoduleUpdate(ctx, runner, repoPath, !opts.NoInit, opts.ForceSync); !updRes.OK() {
		failRepo(res, "submodule update failed: "+updRes.Output)
		return
	}

	statusRes := gitx.SubmoduleStatus(ctx, runner, repoPath)
	if !statusRes.OK() {
		logEntry(res, model.EntryWarning, "submodule status failed: "+statusRes.Output)
		return
	}
	for _, sub := range gitx.ParseSubmoduleStatus(statusRes.Output) {
		if !sub.Initialized() {
			logEntry(res, model.EntryWarning, "submodule not initialized: "+sub.Path)
			continue
		}
		subDir := filepath.Join(repoPath, filepath.FromSlash(sub.Path))
		if fetchRes := gitx.FetchAll(ctx, runner, subDir); !fetchRes.OK() {
			logEntry(res, model.EntryWarning, fmt.Sprintf("submodule fetch failed for %s: %s", sub.Path, fetchRes.Output))
		}
		if opts.ForceSync && opts.CleanUntracked {
			if cleanRes := gitx.CleanForce(ctx, runner, subDir); !cleanRes.OK() {
				logEntry(res, model.EntryWarning, fmt.Sprintf("submodule clean failed for %s: %s", sub.Path, cleanRes.Output))
			}
		}
	}
}
