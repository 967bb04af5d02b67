// Package logger provides leveled logging for fmp CLI commands.
//
// The logger supports two verbosity levels controlled by command-line
// flags. Output is prefixed with colored level tags from fatih/color.
//
// # Verbosity Levels
//
//   - --verbose: Shows info messages
//   - --debug: Shows info and debug messages
//
// Warnings and errors are always written to stderr. Cleanup warnings from
// the vault lifecycle (a purge that could not overwrite a file) go through
// Warnf so they are never silently dropped.
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Opened vault %s", name)
//
// Commands create a logger in the root PersistentPreRun and pass it to
// the workflows and the vault manager.
package logger
