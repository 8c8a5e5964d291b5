package export

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"call-transcriber/cmd/calls2csv/cmd/common"
	"call-transcriber/internal/app"
	"call-transcriber/internal/app/converter/export"
)

var outputFilePath string
var failuresOnly bool

func init() {
	common.BindLedgerFlags(Cmd)
	Cmd.Flags().StringVarP(&outputFilePath, "xlsx", "x", "", "spreadsheet to write")
	Cmd.Flags().BoolVar(&failuresOnly, "failures-only", false, "only export failed attempts")

	Cmd.MarkFlagRequired("xlsx")
}

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger to an Excel spreadsheet",
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

		records, err := app.InitializeStore(settings, logger).Load(settings.OutputCSV)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			logger.Warn("ledger is empty or missing", zap.String("path", settings.OutputCSV))
		}

		if err := export.ToExcel(records, outputFilePath, failuresOnly); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "export finished, exported file path: %v\n", outputFilePath)
		return nil
	},
}
