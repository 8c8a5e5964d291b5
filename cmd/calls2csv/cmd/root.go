package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"call-transcriber/cmd/calls2csv/cmd/common"
	"call-transcriber/cmd/calls2csv/cmd/export"
	"call-transcriber/cmd/calls2csv/cmd/status"
	"call-transcriber/cmd/calls2csv/cmd/transcribe"
	"call-transcriber/cmd/calls2csv/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "calls2csv",
	Short: "Batch transcribe recorded calls into a CSV ledger",
	Long: `Batch transcribe recorded calls into a CSV ledger.

- Scans the input folder for .aac, .mp3, .wav and .m4a files
- Sends each new file to the speech-to-text service
- Checkpoints the ledger after every batch, so an interrupted run resumes
  where it stopped`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(export.Cmd)
	rootCmd.AddCommand(status.Cmd)
	rootCmd.AddCommand(version.Cmd)

	common.BindGlobalFlags(rootCmd)
}
