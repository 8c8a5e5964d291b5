package status

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"call-transcriber/cmd/calls2csv/cmd/common"
	"call-transcriber/internal/app"
	"call-transcriber/internal/app/api/provider"
	"call-transcriber/internal/app/converter"
	"call-transcriber/internal/app/util/files"
)

var listPending bool

func init() {
	common.BindLedgerFlags(Cmd)
	Cmd.Flags().BoolVar(&listPending, "list", false, "print the pending file names")
}

// Cmd represents the status command
var Cmd = &cobra.Command{
	Use:   "status",
	Short: "Show how much of the input folder is already in the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := common.LoadSettings(cmd)
		if err != nil {
			return err
		}
		if err := settings.ValidateFields(); err != nil {
			return err
		}
		logger, err := common.NewLogger(settings, "")
		if err != nil {
			return err
		}
		defer logger.Sync()

		store := app.InitializeStore(settings, logger)
		records, err := store.Load(settings.OutputCSV)
		if err != nil {
			return err
		}
		var failed int
		for _, r := range records {
			if r.Failed() {
				failed++
			}
		}

		items, err := files.GetAllAudioFiles(settings.InputFolder, files.SupportedAudioExtensions)
		if err != nil {
			return err
		}
		known, _ := store.LoadKnownKeys(settings.OutputCSV)
		pending := converter.SelectPending(items, known)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Input folder:  %s (%d audio files)\n", settings.InputFolder, len(items))
		fmt.Fprintf(out, "Ledger:        %s (%d rows, %d failed)\n", settings.OutputCSV, len(records), failed)
		fmt.Fprintf(out, "Pending:       %d\n", len(pending))
		fmt.Fprintf(out, "Provider:      %s (available: %s)\n",
			settings.Provider, strings.Join(provider.ListRegisteredProviders(), ", "))
		if listPending {
			for _, item := range pending {
				fmt.Fprintln(out, item.Name)
			}
		}
		return nil
	},
}
