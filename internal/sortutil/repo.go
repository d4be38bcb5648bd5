package sortutil

import (
	"runtime"
	"sort"
	"strings"

	"github.com/skaphos/fleetpull/internal/model"
)

// LessNamePath provides deterministic ordering by display name first,
// then by path when names collide.
func LessNamePath(nameI, pathI, nameJ, pathJ string) bool {
	if nameI == nameJ {
		return pathI < pathJ
	}
	return nameI < nameJ
}

// SortRepoResults orders sync results by Name, then Path.
func SortRepoResults(results []model.RepoResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return LessNamePath(results[i].Name, results[i].Path, results[j].Name, results[j].Path)
	})
}

// SamePath reports whether two paths denote the same repository.
// Comparison is case-insensitive on platforms whose filesystems are.
func SamePath(a, b string) bool {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
