package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sable-health/medlock/internal/connections"
	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/ui"
	"github.com/sable-health/medlock/internal/workflows"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show this device's identity, key cache, and connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")
		spinner, cleanup := startSpinner("Checking status...", verbose)
		defer cleanup()

		result, err := workflows.Status(cmd.Context())
		if errors.Is(err, merrors.ErrIdentityNotConfigured) {
			spinner.FinalMSG = ui.Muted.Sprint("no identity configured") + "\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("medlock identity --set <id>")
			return nil
		}
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read status: %v", err)
		}

		var b strings.Builder
		b.WriteString("User: " + ui.Highlight.Sprint(result.UserID))
		if result.Role != "" {
			b.WriteString(ui.Muted.Sprintf(" (%s)", result.Role))
		}
		b.WriteByte('\n')

		if result.HasCachedKey {
			b.WriteString(ui.Success.Sprint("✓") + " Relationship key cached on this device\n")
		} else {
			b.WriteString(ui.Warning.Sprint("!") + " No relationship key cached\n")
		}

		if len(result.Connections) == 0 {
			b.WriteString(ui.Muted.Sprint("no connections"))
			spinner.FinalMSG = b.String()
			return nil
		}

		b.WriteString("Connections:\n")
		for _, conn := range result.Connections {
			statusFmt := ui.Success
			if conn.Status != connections.StatusActive {
				statusFmt = ui.Muted
			}
			b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
				ui.Highlight.Sprint(conn.CounterpartID),
				statusFmt.Sprint(string(conn.Status)),
				ui.Muted.Sprint("key "+conn.KeyID)))
		}

		spinner.FinalMSG = strings.TrimRight(b.String(), "\n")
		return nil
	},
}
