package fleetpull

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skaphos/fleetpull/internal/cliio"
	"github.com/skaphos/fleetpull/internal/config"
	"github.com/skaphos/fleetpull/internal/engine"
	"github.com/skaphos/fleetpull/internal/strutil"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rescan the root for git repositories and rewrite the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		debugf(cmd, "starting scan")
		cfg, cfgPath, cwd, err := loadRunConfig(cmd)
		if err != nil {
			return err
		}

		root, _ := cmd.Flags().GetString("root")
		exclude, _ := cmd.Flags().GetString("exclude")
		format, _ := cmd.Flags().GetString("format")
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		if root == "" {
			root = config.EffectiveRoot(cfgPath, cwd)
		}

		eng := engine.New(cfg, engineRunner)
		set, err := eng.Repos(engine.SyncOptions{
			Root:    root,
			Refresh: true,
			Exclude: strutil.SplitCSV(exclude),
		})
		if err != nil {
			return err
		}
		if set.CacheErr != nil {
			// The scan still reports its findings; only persistence failed.
			infof(cmd, "warning: could not write repository cache: %v", set.CacheErr)
			raiseExitCode(1)
		}

		if err := writeRepoList(cmd, format, noHeaders, set.Root, set.Paths); err != nil {
			return err
		}
		infof(cmd, "scan completed: %d repositories", len(set.Paths))
		return nil
	},
}

func init() {
	addRootFlags(scanCmd)
	addFormatFlag(scanCmd, formatUsage)
	addNoHeadersFlag(scanCmd)

	rootCmd.AddCommand(scanCmd)
}

// writeRepoList renders a repository listing for the scan and list commands.
func writeRepoList(cmd *cobra.Command, format string, noHeaders bool, root string, paths []string) error {
	switch strings.ToLower(format) {
	case "json":
		doc := struct {
			Root  string   `json:"root"`
			Repos []string `json:"repos"`
		}{Root: root, Repos: paths}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	case "table":
		rows := make([][]string, 0, len(paths))
		for _, path := range paths {
			rows = append(rows, []string{engine.DisplayName(root, path), path})
		}
		logOutputWriteFailure(cmd, "repo list",
			cliio.WriteTable(cmd.OutOrStdout(), false, noHeaders, []string{"NAME", "PATH"}, rows))
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
