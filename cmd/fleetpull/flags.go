package fleetpull

import "github.com/spf13/cobra"

const (
	formatUsage    = "output format: table or json"
	noHeadersUsage = "when using table format, do not print headers"
	rootUsage      = "scan root directory (default: config directory, else cwd)"
	excludeUsage   = "comma-separated glob patterns to exclude from discovery"
)

func addFormatFlag(cmd *cobra.Command, usage string) {
	cmd.Flags().StringP("format", "o", "table", usage)
}

func addNoHeadersFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("no-headers", false, noHeadersUsage)
}

func addRootFlags(cmd *cobra.Command) {
	cmd.Flags().String("root", "", rootUsage)
	cmd.Flags().String("exclude", "", excludeUsage)
}
