// Package logger provides structured logging for medlock CLI commands.
//
// The logger supports multiple verbosity levels controlled by command-line
// flags. Output is formatted with semantic prefixes and colors.
//
// # Verbosity Levels
//
//   - --verbose: Shows info messages
//   - --debug: Shows all messages including debug details
//
// Without flags, only warnings and errors are shown.
//
// # Usage
//
// Create a logger with the desired verbosity:
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Cached key for %s", userID)
//
// Commands typically create a logger in their PersistentPreRun and use it
// throughout the RunE handler.
package logger
