package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/skaphos/fleetpull/internal/model"
	"github.com/skaphos/fleetpull/internal/termstyle"
)

// WriteSummary prints the end-of-run totals followed by the failed and
// updated repositories. Multi-line git output is reduced to its first
// line here; the Markdown report keeps the full text.
func WriteSummary(out io.Writer, results []model.RepoResult, summary model.RunSummary, colorize bool) {
	succeeded := fmt.Sprintf("%d succeeded", summary.Succeeded)
	if summary.Succeeded > 0 {
		succeeded = termstyle.Wrap(colorize, succeeded, termstyle.Healthy)
	}
	failed := fmt.Sprintf("%d failed", summary.Failed)
	if summary.Failed > 0 {
		failed = termstyle.Wrap(colorize, failed, termstyle.Error)
	}
	fmt.Fprintf(out, "Processed %d repositories in %s: %s, %s, %s.\n",
		summary.Processed,
		summary.Elapsed.Round(elapsedPrecision),
		succeeded,
		failed,
		commitCount(summary.NewCommits))

	if summary.Failed > 0 {
		fmt.Fprintf(out, "\nFailed repositories:\n")
		for _, res := range results {
			if !res.Failed {
				continue
			}
			fmt.Fprintf(out, "  %s: %s\n",
				termstyle.Wrap(colorize, res.Name, termstyle.Error),
				firstLine(res.FirstError()))
		}
	}

	updated := false
	for _, res := range results {
		if res.NewCommits == 0 {
			continue
		}
		if !updated {
			fmt.Fprintf(out, "\nUpdated repositories:\n")
			updated = true
		}
		fmt.Fprintf(out, "  %s: %s\n",
			termstyle.Wrap(colorize, res.Name, termstyle.Healthy),
			commitCount(res.NewCommits))
	}
}

func commitCount(n int) string {
	if n == 1 {
		return "1 new commit"
	}
	return fmt.Sprintf("%d new commits", n)
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "failed"
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}
