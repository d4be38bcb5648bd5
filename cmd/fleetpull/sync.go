// SPDX-License-Identifier: MIT
package fleetpull

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skaphos/fleetpull/internal/cliio"
	"github.com/skaphos/fleetpull/internal/config"
	"github.com/skaphos/fleetpull/internal/engine"
	"github.com/skaphos/fleetpull/internal/gitx"
	"github.com/skaphos/fleetpull/internal/model"
	"github.com/skaphos/fleetpull/internal/report"
	"github.com/skaphos/fleetpull/internal/strutil"
	"github.com/skaphos/fleetpull/internal/termstyle"
)

// engineRunner overrides the git runner wired into the engine. Tests
// inject a scripted runner; production leaves it nil so the engine
// builds its exec runner per run.
var engineRunner gitx.Runner

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch every repository under the root and bring checkouts up to date",
	RunE: func(cmd *cobra.Command, args []string) error {
		debugf(cmd, "starting sync")
		cfg, cfgPath, cwd, err := loadRunConfig(cmd)
		if err != nil {
			return err
		}

		workers, _ := cmd.Flags().GetInt("workers")
		refresh, _ := cmd.Flags().GetBool("refresh")
		root, _ := cmd.Flags().GetString("root")
		timeout, _ := cmd.Flags().GetInt("timeout")
		fetchOnly, _ := cmd.Flags().GetBool("fetch-only")
		forceSync, _ := cmd.Flags().GetBool("force-sync")
		clean, _ := cmd.Flags().GetBool("clean")
		noInit, _ := cmd.Flags().GetBool("no-init")
		exclude, _ := cmd.Flags().GetString("exclude")
		reportFile, _ := cmd.Flags().GetString("report")
		noReport, _ := cmd.Flags().GetBool("no-report")
		noProgress, _ := cmd.Flags().GetBool("no-progress")
		yes, _ := cmd.Flags().GetBool("yes")
		format, _ := cmd.Flags().GetString("format")
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		if clean && !forceSync {
			return fmt.Errorf("--clean requires --force-sync")
		}
		if fetchOnly && forceSync {
			return fmt.Errorf("--fetch-only and --force-sync are mutually exclusive")
		}
		if root == "" {
			root = config.EffectiveRoot(cfgPath, cwd)
		}

		if forceSync && !yes {
			confirmed, err := cliio.Confirm(cmd.ErrOrStderr(), cmd.InOrStdin(),
				"Force sync discards local commits and resets working trees onto the remote default branch. Continue?")
			if err != nil {
				return err
			}
			if !confirmed {
				infof(cmd, "sync cancelled")
				return nil
			}
		}

		opts := engine.SyncOptions{
			Root:           root,
			Workers:        workers,
			TimeoutSeconds: timeout,
			Refresh:        refresh,
			FetchOnly:      fetchOnly,
			ForceSync:      forceSync,
			CleanUntracked: clean,
			NoInit:         noInit,
			Exclude:        strutil.SplitCSV(exclude),
		}

		eng := engine.New(cfg, engineRunner)
		set, err := eng.Repos(opts)
		if err != nil {
			return err
		}
		if set.CacheErr != nil {
			infof(cmd, "warning: could not write repository cache: %v", set.CacheErr)
		}
		if set.FromCache {
			debugf(cmd, "using cached repository list (%d repositories)", len(set.Paths))
		}
		if len(set.Paths) == 0 {
			infof(cmd, "no repositories found under %s", set.Root)
			return nil
		}

		meter := report.NewMeter(cmd.ErrOrStderr(), progressEnabled(cmd, noProgress))
		results, summary, err := eng.Sync(cmd.Context(), set, opts,
			func(res model.RepoResult, progress engine.RunProgress) {
				meter.Update(progress.Done, progress.Total, res.Name)
			})
		meter.Done()
		if err != nil {
			return err
		}

		switch strings.ToLower(format) {
		case "json":
			setColorOutputMode(cmd, format)
			doc := struct {
				Summary model.RunSummary   `json:"summary"`
				Results []model.RepoResult `json:"results"`
			}{Summary: summary, Results: results}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		case "table":
			setColorOutputMode(cmd, format)
			writeSyncTable(cmd, results, noHeaders)
		default:
			return fmt.Errorf("unsupported format %q", format)
		}

		if !flagQuiet {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr())
			report.WriteSummary(cmd.ErrOrStderr(), results, summary, colorOutputEnabled)
		}

		if !noReport {
			name := reportFile
			if name == "" {
				name = cfg.Defaults.ReportFile
			}
			path := report.FilePath(set.Root, name)
			if err := report.SaveMarkdown(path, results, summary); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			infof(cmd, "report written to %s", path)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().IntP("workers", "w", 0, "concurrent repositories, 1-64 (default from config)")
	syncCmd.Flags().BoolP("refresh", "r", false, "rescan the root instead of trusting the cached repository list")
	syncCmd.Flags().Int("timeout", 0, "timeout in seconds per git command (default from config)")
	syncCmd.Flags().Bool("fetch-only", false, "fetch and report without touching working trees")
	syncCmd.Flags().Bool("force-sync", false, "discard local commits and reset working trees onto the remote default branch")
	syncCmd.Flags().Bool("clean", false, "with --force-sync, remove untracked files and directories")
	syncCmd.Flags().Bool("no-init", false, "skip initializing missing submodules")
	syncCmd.Flags().String("report", "", "report file name or path (default from config)")
	syncCmd.Flags().Bool("no-report", false, "skip writing the Markdown run report")
	syncCmd.Flags().Bool("no-progress", false, "disable the progress meter")
	syncCmd.Flags().Bool("yes", false, "run force sync without confirmation")
	addRootFlags(syncCmd)
	addFormatFlag(syncCmd, formatUsage)
	addNoHeadersFlag(syncCmd)

	rootCmd.AddCommand(syncCmd)
}

// progressEnabled gates the meter the same way color output is gated:
// interactive stderr only, and never in quiet mode.
func progressEnabled(cmd *cobra.Command, noProgress bool) bool {
	if noProgress || flagQuiet {
		return false
	}
	file, ok := cmd.ErrOrStderr().(*os.File)
	if !ok {
		return false
	}
	return isTerminalFD(int(file.Fd()))
}

func writeSyncTable(cmd *cobra.Command, results []model.RepoResult, noHeaders bool) {
	limit := adaptiveCellLimit(cmd, 64, 48, 32)
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := termstyle.Colorize(colorOutputEnabled, "ok", termstyle.Healthy)
		if res.Failed {
			status = termstyle.Colorize(colorOutputEnabled, "failed", termstyle.Error)
		}
		rows = append(rows, []string{
			res.Name,
			status,
			fmt.Sprintf("%d", res.NewCommits),
			fmt.Sprintf("%d", res.Warnings()),
			errorCell(res, limit),
		})
	}
	logOutputWriteFailure(cmd, "sync table",
		cliio.WriteTable(cmd.OutOrStdout(), colorOutputEnabled, noHeaders,
			[]string{"NAME", "STATUS", "COMMITS", "WARNINGS", "ERROR"}, rows))
}

// errorCell reduces a captured git failure to a single truncated table
// cell. The Markdown report keeps the full text.
func errorCell(res model.RepoResult, limit int) string {
	text := res.FirstError()
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return formatCell(text, limit)
}
