// Package model defines the core data types used throughout FleetPull.
package model

import (
	"fmt"
	"time"
)

// RefDeltaKind enumerates how a remote-tracking ref changed across a fetch.
type RefDeltaKind string

const (
	DeltaAdded     RefDeltaKind = "added"
	DeltaAdvanced  RefDeltaKind = "advanced"
	DeltaDeleted   RefDeltaKind = "deleted"
	DeltaUnchanged RefDeltaKind = "unchanged"
)

// RefDelta describes the before/after state of a single remote-tracking ref.
type RefDelta struct {
	// Name is the full ref name (for example, "refs/remotes/origin/main").
	Name string `json:"name" yaml:"name"`
	// OldCommit is the commit id before the fetch. Empty for added refs.
	OldCommit string `json:"old_commit,omitempty" yaml:"old_commit,omitempty"`
	// NewCommit is the commit id after the fetch. Empty for deleted refs.
	NewCommit string `json:"new_commit,omitempty" yaml:"new_commit,omitempty"`
	// Kind classifies the change.
	Kind RefDeltaKind `json:"kind" yaml:"kind"`
}

// EntryKind enumerates the kinds of per-repository log entries.
type EntryKind string

const (
	EntryPlain   EntryKind = "plain"
	EntryWarning EntryKind = "warning"
	EntryError   EntryKind = "error"
	EntryCommit  EntryKind = "commit"
)

// LogEntry is one line of recorded activity for a repository during a run.
type LogEntry struct {
	// Kind classifies the entry for rendering and counting.
	Kind EntryKind `json:"kind" yaml:"kind"`
	// Text is the display text without any severity prefix.
	Text string `json:"text" yaml:"text"`
}

// CommitRecord is one commit observed to be new during a run.
type CommitRecord struct {
	// Hash is the abbreviated commit id.
	Hash string `json:"hash" yaml:"hash"`
	// Subject is the first line of the commit message.
	Subject string `json:"subject" yaml:"subject"`
	// Author is the commit author name.
	Author string `json:"author" yaml:"author"`
}

// String renders the commit in the single-line display form.
func (c CommitRecord) String() string {
	return fmt.Sprintf("%s %s (%s)", c.Hash, c.Subject, c.Author)
}

// RepoResult is the full outcome for a single repository in one run.
type RepoResult struct {
	// Path is the absolute local filesystem path to the repository.
	Path string `json:"path" yaml:"path"`
	// Name is the repository path relative to the scan root, used for display.
	Name string `json:"name" yaml:"name"`
	// Failed is true when the repository could not be brought up to date.
	Failed bool `json:"failed" yaml:"failed"`
	// NewCommits is the number of distinct new commits observed across all refs.
	NewCommits int `json:"new_commits" yaml:"new_commits"`
	// Entries is the ordered activity log recorded while processing the repository.
	Entries []LogEntry `json:"entries,omitempty" yaml:"entries,omitempty"`
}

// FirstError returns the text of the first error entry, or "" when none exists.
func (r RepoResult) FirstError() string {
	for _, e := range r.Entries {
		if e.Kind == EntryError {
			return e.Text
		}
	}
	return ""
}

// Warnings counts the warning entries recorded for the repository.
func (r RepoResult) Warnings() int {
	n := 0
	for _, e := range r.Entries {
		if e.Kind == EntryWarning {
			n++
		}
	}
	return n
}

// RunSummary is the aggregate outcome of a whole fleet run.
type RunSummary struct {
	// RunID uniquely identifies the run. Stamped into the persisted report.
	RunID string `json:"run_id" yaml:"run_id"`
	// Root is the absolute scan root the run operated on.
	Root string `json:"root" yaml:"root"`
	// Started is the wall-clock start of the run.
	Started time.Time `json:"started" yaml:"started"`
	// Elapsed is the total run duration. Marshals as nanoseconds.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	// Processed is the number of repositories the run attempted.
	Processed int `json:"processed" yaml:"processed"`
	// Succeeded is the number of repositories that completed without failure.
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	// Failed is the number of repositories that ended in a failed state.
	Failed int `json:"failed" yaml:"failed"`
	// NewCommits is the total count of distinct new commits across the fleet.
	NewCommits int `json:"new_commits" yaml:"new_commits"`
}
