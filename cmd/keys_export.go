package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/exchange"
	"github.com/sable-health/medlock/internal/ui"
	"github.com/sable-health/medlock/internal/workflows"
)

var (
	exportOutput string
	exportQRSize int
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write the QR code as PNG to this path")
	exportCmd.Flags().IntVar(&exportQRSize, "size", 256, "PNG size in pixels")

	KeysCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <key-id>",
	Short: "Re-render the exchange code for an active key",
	Long: `Prints the exchange code for an existing active key so it can be scanned
onto a replacement device. Inactive and revoked keys cannot be exported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys export command")
		spinner, cleanup := startSpinner("Exporting exchange code...", verbose)
		defer cleanup()

		result, err := workflows.Export(cmd.Context(), args[0])
		if errors.Is(err, merrors.ErrKeyNotFound) {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " No key record with id " + ui.Highlight.Sprint(args[0])
			return nil
		}
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to export key: %v", err)
		}

		qr, err := exchange.TerminalString(result.EncodedPayload)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to render QR code: %v", err)
		}

		finalMessage := ui.Success.Sprint("✓") + " Exchange code for " + ui.Highlight.Sprint(result.KeyPair.ID) + "\n" +
			"\n" + qr + "\n" +
			ui.Warning.Sprint("!") + " Treat the code as the key itself: anyone who captures it can decrypt"

		if exportOutput != "" {
			if err := exchange.WritePNG(result.EncodedPayload, exportQRSize, exportOutput); err != nil {
				return Logger.ErrorfAndReturn("Failed to write QR PNG: %v", err)
			}
			finalMessage += "\n" + ui.Success.Sprint("✓") + " QR code written to " + ui.Path.Sprint(exportOutput)
		}

		spinner.FinalMSG = finalMessage
		return nil
	},
}
