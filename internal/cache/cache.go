// SPDX-License-Identifier: MIT
// Package cache persists the discovered repository list between runs.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/skaphos/fleetpull/internal/discovery"
)

// FileName is the cache file kept inside the scan root.
const FileName = ".fleetpull-cache.json"

// ErrStale marks a cache rejected because an entry no longer validates.
var ErrStale = errors.New("repository cache is stale")

// Path returns the cache file location for a scan root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Load reads the cached repository list for root. Every entry is
// re-validated; a single invalid entry rejects the whole cache so the
// caller rescans instead of repairing the file piecemeal.
func Load(root string) ([]string, error) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		return nil, err
	}
	var repos []string
	if err := json.Unmarshal(data, &repos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStale, err)
	}
	for _, repo := range repos {
		if err := discovery.Validate(repo); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStale, err)
		}
	}
	return repos, nil
}

// Save writes the repository list for root, sorted for determinism.
func Save(root string, repos []string) error {
	sorted := append([]string(nil), repos...)
	sort.Strings(sorted)
	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(root), append(data, '\n'), 0o644)
}
