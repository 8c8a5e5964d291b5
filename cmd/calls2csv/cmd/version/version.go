package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// overridden at build time with -ldflags "-X call-transcriber/cmd/calls2csv/cmd/version.version=..."
var version = "v0.1.0"

// Cmd represents the version command
var Cmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of calls2csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	},
}
