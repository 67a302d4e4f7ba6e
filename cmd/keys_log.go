package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sable-health/medlock/internal/audit"
	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/ui"
	"github.com/sable-health/medlock/internal/workflows"
)

var (
	logLimit     int
	logReverse   bool
	logUser      string
	logOperation string
	logSince     string
	logUntil     string
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logUser, "user", "", "filter by user id")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation name (comma-separated)")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show entries before date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")

	KeysCmd.AddCommand(logCmd)
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the key operations audit log",
	Long: `Displays the audit log of key lifecycle events and decryption failures.

Examples:
  medlock keys log                               # View full log
  medlock keys log -n 10                         # Last 10 entries
  medlock keys log --operation decryption_failed # Only failed decryptions
  medlock keys log --user PT001                  # Filter by user
  medlock keys log --json                        # JSON output`,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting keys log command")

	spinner, cleanup := startSpinner("Loading audit log...", verbose)
	defer cleanup()

	result, err := workflows.Log(cmd.Context(), workflows.LogOptions{
		Limit:      logLimit,
		Reverse:    logReverse,
		User:       logUser,
		Operations: logOperation,
		Since:      logSince,
		Until:      logUntil,
	})
	if errors.Is(err, merrors.ErrNoFilesFound) {
		spinner.FinalMSG = ui.Muted.Sprint("no audit log entries yet")
		return nil
	}
	if errors.Is(err, merrors.ErrInvalidDateFormat) {
		spinner.FinalMSG = ui.Error.Sprint("✗ ") + err.Error()
		return nil
	}
	if err != nil {
		return Logger.ErrorfAndReturn("Failed to load audit log: %v", err)
	}

	if logJSON {
		data, err := json.MarshalIndent(result.Entries, "", "  ")
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to marshal entries: %v", err)
		}
		spinner.FinalMSG = string(data)
		return nil
	}

	if len(result.Entries) == 0 {
		spinner.FinalMSG = ui.Muted.Sprint("no entries match the given filters")
		return nil
	}

	var b strings.Builder
	for _, entry := range result.Entries {
		b.WriteString(formatLogEntry(entry))
		b.WriteByte('\n')
	}
	b.WriteString(ui.Muted.Sprintf("%d of %d entries", len(result.Entries), result.TotalEntriesBeforeFilter))

	spinner.FinalMSG = b.String()
	return nil
}

func formatLogEntry(entry audit.Entry) string {
	resultFmt := ui.Success
	if entry.Result == audit.ResultFailed {
		resultFmt = ui.Error
	}

	line := fmt.Sprintf("%s  %-18s %s  %s",
		ui.Muted.Sprint(entry.Timestamp),
		entry.Operation,
		resultFmt.Sprint(entry.Result),
		ui.Highlight.Sprint(entry.User))
	if entry.KeyID != "" {
		line += "  key=" + entry.KeyID
	}
	if len(entry.Files) > 0 {
		line += "  files=" + strings.Join(entry.Files, ",")
	}
	if entry.Detail != "" {
		line += "  " + ui.Muted.Sprint(entry.Detail)
	}
	return line
}
