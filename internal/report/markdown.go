// SPDX-License-Identifier: MIT

// Package report renders run output: the in-place progress meter, the
// end-of-run terminal summary and the persisted Markdown report.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skaphos/fleetpull/internal/model"
)

// elapsedPrecision keeps rendered durations short without hiding
// sub-second runs.
const elapsedPrecision = 100 * time.Millisecond

// WriteMarkdown renders the run report. The layout is deterministic
// for a given input: results are expected in name order, as returned
// by the engine.
func WriteMarkdown(w io.Writer, results []model.RepoResult, summary model.RunSummary) error {
	var b strings.Builder

	b.WriteString("# FleetPull run report\n\n")
	fmt.Fprintf(&b, "- Run ID: `%s`\n", summary.RunID)
	fmt.Fprintf(&b, "- Root: `%s`\n", summary.Root)
	fmt.Fprintf(&b, "- Started: %s\n", summary.Started.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Elapsed: %s\n\n", summary.Elapsed.Round(elapsedPrecision))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Processed | Succeeded | Failed | New commits |\n")
	b.WriteString("| ---: | ---: | ---: | ---: |\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n",
		summary.Processed, summary.Succeeded, summary.Failed, summary.NewCommits)

	active := false
	for _, res := range results {
		if !hasActivity(res) {
			continue
		}
		if !active {
			b.WriteString("\n## Activity\n")
			active = true
		}
		fmt.Fprintf(&b, "\n### %s\n\n", res.Name)
		writeEntries(&b, res.Entries)
	}

	failed := false
	for _, res := range results {
		if !res.Failed {
			continue
		}
		if !failed {
			b.WriteString("\n## Failures\n")
			failed = true
		}
		fmt.Fprintf(&b, "\n### %s\n\n", res.Name)
		for _, entry := range res.Entries {
			if entry.Kind != model.EntryError {
				continue
			}
			writeBlockquote(&b, "Error", entry.Text)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// SaveMarkdown writes the rendered report to path.
func SaveMarkdown(path string, results []model.RepoResult, summary model.RunSummary) error {
	var buf strings.Builder
	if err := WriteMarkdown(&buf, results, summary); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(buf.String()), 0o644)
}

// FilePath resolves the report location: relative names land in the
// scan root, absolute paths are kept as given.
func FilePath(root, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(root, name)
}

// hasActivity reports whether res contributes to the Activity section.
// Error entries render under Failures instead.
func hasActivity(res model.RepoResult) bool {
	for _, entry := range res.Entries {
		if entry.Kind != model.EntryError {
			return true
		}
	}
	return false
}

func writeEntries(b *strings.Builder, entries []model.LogEntry) {
	var prev model.EntryKind
	for _, entry := range entries {
		switch entry.Kind {
		case model.EntryCommit:
			if prev != "" && prev != model.EntryCommit {
				b.WriteString("\n")
			}
			fmt.Fprintf(b, "- `%s`\n", entry.Text)
		case model.EntryPlain:
			if prev != "" {
				b.WriteString("\n")
			}
			b.WriteString(entry.Text + "\n")
		case model.EntryWarning:
			if prev != "" {
				b.WriteString("\n")
			}
			writeBlockquote(b, "Warning", entry.Text)
		default:
			continue
		}
		prev = entry.Kind
	}
}

func writeBlockquote(b *strings.Builder, label, text string) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	fmt.Fprintf(b, "> **%s:** %s\n", label, lines[0])
	for _, line := range lines[1:] {
		fmt.Fprintf(b, "> %s\n", line)
	}
}
