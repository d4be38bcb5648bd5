// Package discovery walks a root directory to find git repositories.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ignoreDirs are directory names never descended into during a scan.
var ignoreDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"vendor":       {},
	"dist":         {},
	"build":        {},
	"target":       {},
	"__pycache__":  {},
	".terraform":   {},
	".venv":        {},
}

// FindRepos walks root and returns the absolute paths of every repository
// root beneath it, in lexical walk order. A directory containing a .git
// entry is a repository root and is not descended into; sub-repositories
// are reached only through their superproject. Nested submodule checkouts
// are skipped entirely.
func FindRepos(root string, excludes []string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var repos []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != absRoot {
			if _, ok := ignoreDirs[d.Name()]; ok {
				return fs.SkipDir
			}
			if MatchesExclude(path, excludes) {
				return fs.SkipDir
			}
		}

		isRepo, nested := detectRepo(path)
		if !isRepo {
			return nil
		}
		if !nested {
			repos = append(repos, path)
		}
		return fs.SkipDir
	})
	if err != nil {
		return nil, err
	}
	return repos, nil
}

// Validate reports whether path still hosts a top-level repository. It is
// used both for cache re-validation and as the first step of a sync pass.
func Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", path)
	}
	isRepo, nested := detectRepo(path)
	if !isRepo {
		return fmt.Errorf("%s: not a git repository", path)
	}
	if nested {
		return fmt.Errorf("%s: submodule checkout, managed through its superproject", path)
	}
	return nil
}

// IsNestedCheckout reports whether dir is a submodule working tree, that
// is, a directory whose .git pointer file targets a superproject's
// .git/modules store.
func IsNestedCheckout(dir string) bool {
	_, nested := detectRepo(dir)
	return nested
}

// MatchesExclude checks whether a path matches any of the given exclude
// glob patterns.
func MatchesExclude(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	slashPath := filepath.ToSlash(path)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		match, err := doublestar.Match(pattern, slashPath)
		if err != nil {
			continue
		}
		if match {
			return true
		}
	}
	return false
}

// detectRepo classifies dir. A .git directory marks a normal repository
// root. A .git regular file is a gitdir pointer: targets under a
// .git/modules store mark a nested submodule checkout, any other target
// (a linked worktree, for example) counts as a top-level repository.
func detectRepo(dir string) (isRepo, nested bool) {
	gitPath := filepath.Join(dir, ".git")
	info, err := os.Stat(gitPath)
	if err != nil {
		return false, false
	}
	if info.IsDir() {
		return true, false
	}
	if !info.Mode().IsRegular() {
		return false, false
	}
	target, ok := gitdirFromFile(gitPath)
	if !ok {
		return false, false
	}
	return true, strings.Contains(filepath.ToSlash(target), ".git/modules")
}

func gitdirFromFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	content := strings.TrimSpace(string(data))
	if !strings.HasPrefix(content, "gitdir:") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(content, "gitdir:"))
	if raw == "" {
		return "", false
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw), true
	}
	return filepath.Clean(filepath.Join(filepath.Dir(path), raw)), true
}
