// SPDX-License-Identifier: MIT
package fleetpull

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skaphos/fleetpull/internal/config"
	"github.com/skaphos/fleetpull/internal/engine"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap a FleetPull configuration",
	Long:  "Creates a FleetPull config file in the current directory by default and seeds the repository cache.",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfgPath, err := config.InitConfigPath(flagConfig, cwd)
		if err != nil {
			return err
		}

		if _, err := os.Stat(cfgPath); err == nil && !force {
			return fmt.Errorf("config already exists at %q (use --force to overwrite)", cfgPath)
		}
		// A forced init starts from a clean file; stale keys from an
		// older config must not survive the rewrite.
		if force {
			if err := os.Remove(cfgPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove existing config %q: %w", cfgPath, err)
			}
		}

		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}

		// Seed the repository cache so list works before the first sync.
		eng := engine.New(&cfg, engineRunner)
		set, err := eng.Repos(engine.SyncOptions{
			Root:    config.EffectiveRoot(cfgPath, cwd),
			Refresh: true,
		})
		if err != nil {
			return err
		}
		if set.CacheErr != nil {
			infof(cmd, "warning: could not write repository cache: %v", set.CacheErr)
			raiseExitCode(1)
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote config to %s\n", cfgPath); err != nil {
			return err
		}
		infof(cmd, "cached %d repositories under %s", len(set.Paths), set.Root)
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite existing config without prompting")

	rootCmd.AddCommand(initCmd)
}
