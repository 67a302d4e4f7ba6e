package cmd

import (
	logger "github.com/sable-health/medlock/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger
)

// AddCommands attaches every medlock command to the root and wires the
// shared verbosity flags.
func AddCommands(root *cobra.Command) {
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	existing := root.PersistentPreRun
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		Logger = logger.Logger{
			Verbose: verbose,
			Debug:   debug,
		}
		Logger.Debugf("Initializing command with verbose=%t, debug=%t", verbose, debug)
		if existing != nil {
			existing(cmd, args)
		}
	}

	root.AddCommand(KeysCmd)
	root.AddCommand(identityCmd)
	root.AddCommand(scanCmd)
	root.AddCommand(encryptCmd)
	root.AddCommand(decryptCmd)
	root.AddCommand(recoverCmd)
	root.AddCommand(statusCmd)
	root.AddCommand(logoutCmd)
}
