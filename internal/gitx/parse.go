package gitx

import (
	"strings"

	"github.com/skaphos/fleetpull/internal/model"
)

// ParseRefLines parses the output of:
//
//	git for-each-ref refs/remotes --format="%(refname) %(objectname)"
//
// into a Snapshot. Refs ending in /HEAD are excluded: they are symbolic
// pointers aliasing another ref, not commit history of their own.
func ParseRefLines(output string) Snapshot {
	snap := Snapshot{}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		name := fields[0]
		if strings.HasSuffix(name, "/HEAD") {
			continue
		}
		snap[name] = fields[1]
	}
	return snap
}

// ParseCommitLines parses tab-separated `git log` output produced with
// the short-hash/subject/author format into CommitRecords.
func ParseCommitLines(output string) []model.CommitRecord {
	var commits []model.CommitRecord
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		rec := model.CommitRecord{Hash: strings.TrimSpace(parts[0])}
		if rec.Hash == "" {
			continue
		}
		if len(parts) > 1 {
			rec.Subject = parts[1]
		}
		if len(parts) > 2 {
			rec.Author = parts[2]
		}
		commits = append(commits, rec)
	}
	return commits
}

// SubmoduleEntry represents a single line from `git submodule status`.
type SubmoduleEntry struct {
	// State is the leading status byte: ' ' clean, '-' uninitialized,
	// '+' checked-out commit differs from the recorded one, 'U' conflicts.
	State byte
	// Commit is the submodule commit id reported by git.
	Commit string
	// Path is the submodule path relative to the superproject root.
	Path string
}

// Initialized reports whether the entry denotes an initialized checkout.
func (s SubmoduleEntry) Initialized() bool { return s.State != '-' }

// ParseSubmoduleStatus parses `git submodule status --recursive` output.
func ParseSubmoduleStatus(output string) []SubmoduleEntry {
	var entries []SubmoduleEntry
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		state := byte(' ')
		switch line[0] {
		case '-', '+', 'U', ' ':
			state = line[0]
			line = line[1:]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		entries = append(entries, SubmoduleEntry{
			State:  state,
			Commit: fields[0],
			Path:   fields[1],
		})
	}
	return entries
}

// ShortBranch strips the remote prefix from a remote-tracking name:
// "origin/main" → "main".
func ShortBranch(remoteRef string) string {
	if i := strings.Index(remoteRef, "/"); i >= 0 {
		return remoteRef[i+1:]
	}
	return remoteRef
}
