package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"github.com/sable-health/medlock/internal/ui"
)

// startSpinner shows a progress spinner unless verbose output is active.
// The cleanup function stops the spinner and prints its FinalMSG.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	err := s.Color("cyan")
	if err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	if !verbose && !debug {
		Logger.Debugf("Starting spinner in non-verbose mode")
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		// Restore log output first.
		if !verbose && !debug {
			Logger.Debugf("Restoring log output")
			log.SetOutput(os.Stdout)
		}

		// Ensure final message ends with a newline.
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		// Stop the spinner first to clear the spinner line.
		if !verbose && !debug {
			Logger.Debugf("Stopping spinner")
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}
