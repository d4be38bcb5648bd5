package fleetpull

import "github.com/spf13/cobra"

// logOutputWriteFailure records a non-fatal output write failure.
// Output is frequently piped into tools that close early (`head`), so
// a broken pipe is logged and ignored rather than failing the command.
func logOutputWriteFailure(cmd *cobra.Command, what string, err error) {
	if err == nil {
		return
	}
	debugf(cmd, "ignored output write failure (%s): %v", what, err)
}
