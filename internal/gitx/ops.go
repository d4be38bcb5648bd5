package gitx

import (
	"context"
	"strings"
)

// commitLogFormat yields one tab-separated line per commit:
// short hash, subject, author name.
const commitLogFormat = "--format=%h%x09%s%x09%an"

// FetchAll fetches every remote, pruning stale tracking refs and forcing
// tag updates.
func FetchAll(ctx context.Context, r Runner, dir string) Result {
	return r.Run(ctx, dir, "fetch", "--all", "--prune", "--tags", "--force")
}

// PruneRemote drops tracking refs the named remote no longer serves.
func PruneRemote(ctx context.Context, r Runner, dir, remote string) Result {
	return r.Run(ctx, dir, "remote", "prune", remote)
}

// LogRange lists commits in the exclusive range old..new, one line each.
func LogRange(ctx context.Context, r Runner, dir, old, new string) Result {
	return r.Run(ctx, dir, "log", commitLogFormat, old+".."+new)
}

// LogSingle lists the single commit at ref in the same line format.
func LogSingle(ctx context.Context, r Runner, dir, ref string) Result {
	return r.Run(ctx, dir, "log", "-1", commitLogFormat, ref)
}

// PullFFOnly fast-forwards the current branch. Submodule recursion is
// disabled; checkouts of recorded submodules are reconciled separately.
func PullFFOnly(ctx context.Context, r Runner, dir string) Result {
	return r.Run(ctx, dir, "pull", "--ff-only", "--no-recurse-submodules")
}

// RemoteDefaultBranch resolves the remote's default branch pointer,
// returning the short remote-tracking name (for example, "origin/main").
func RemoteDefaultBranch(ctx context.Context, r Runner, dir, remote string) (string, Result) {
	res := r.Run(ctx, dir, "symbolic-ref", "--short", "refs/remotes/"+remote+"/HEAD")
	if !res.OK() {
		return "", res
	}
	return strings.TrimSpace(res.Output), res
}

// CheckoutForceBranch force-creates the local branch at ref and checks
// it out, discarding conflicting local changes.
func CheckoutForceBranch(ctx context.Context, r Runner, dir, branch, ref string) Result {
	return r.Run(ctx, dir, "checkout", "-B", branch, ref, "--force")
}

// ResetHard resets the working tree and index to ref.
func ResetHard(ctx context.Context, r Runner, dir, ref string) Result {
	return r.Run(ctx, dir, "reset", "--hard", ref)
}

// CleanForce removes untracked files, untracked directories and ignored
// files from the working tree.
func CleanForce(ctx context.Context, r Runner, dir string) Result {
	return r.Run(ctx, dir, "clean", "-fdx")
}

// SubmoduleSync rewrites each submodule's recorded URL from .gitmodules.
func SubmoduleSync(ctx context.Context, r Runner, dir string) Result {
	return r.Run(ctx, dir, "submodule", "sync", "--recursive")
}

// SubmoduleUpdate checks out the superproject-recorded submodule commits.
func SubmoduleUpdate(ctx context.Context, r Runner, dir string, init, force bool) Result {
	args := []string{"submodule", "update", "--recursive"}
	if init {
		args = append(args, "--init")
	}
	if force {
		args = append(args, "--force")
	}
	return r.Run(ctx, dir, args...)
}

// SubmoduleStatus lists the state of every submodule recursively.
func SubmoduleStatus(ctx context.Context, r Runner, dir string) Result {
	return r.Run(ctx, dir, "submodule", "status", "--recursive")
}

// ListRemotes returns the raw `git remote -v` listing.
func ListRemotes(ctx context.Context, r Runner, dir string) Result {
	return r.Run(ctx, dir, "remote", "-v")
}

// HasSubmodules checks whether the repository records submodules,
// without touching their checkouts.
func HasSubmodules(ctx context.Context, r Runner, dir string) bool {
	res := r.Run(ctx, dir, "config", "--file", ".gitmodules", "--get-regexp", "submodule")
	return res.OK() && strings.TrimSpace(res.Output) != ""
}
