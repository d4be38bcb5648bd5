package fleetpull

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skaphos/fleetpull/internal/cache"
	"github.com/skaphos/fleetpull/internal/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the cached repository list without syncing",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfgPath, cwd, err := loadRunConfig(cmd)
		if err != nil {
			return err
		}

		root, _ := cmd.Flags().GetString("root")
		format, _ := cmd.Flags().GetString("format")
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		if root == "" {
			root = config.EffectiveRoot(cfgPath, cwd)
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return err
		}

		paths, err := cache.Load(absRoot)
		if err != nil {
			infof(cmd, "no usable repository cache for %s (run fleetpull scan): %v", absRoot, err)
			raiseExitCode(1)
			return nil
		}

		if err := writeRepoList(cmd, format, noHeaders, absRoot, paths); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	listCmd.Flags().String("root", "", rootUsage)
	addFormatFlag(listCmd, formatUsage)
	addNoHeadersFlag(listCmd)

	rootCmd.AddCommand(listCmd)
}
