// Package ui provides semantic text formatting for CLI output.
//
// This package defines formatters for different types of content (code,
// paths, account names, etc.) that render appropriately based on terminal
// capabilities. When colors are available, content is colorized. When
// NO_COLOR is set or the terminal doesn't support colors, text-based
// decorations (backticks, quotes, brackets) are used instead.
//
// # Semantic Formatters
//
//	ui.Code.Sprint("fmp create-vault")        // Commands
//	ui.Path.Sprint("~/.local/share/fmp")      // File paths
//	ui.Success.Sprint("✓")                     // Success indicators
//	ui.Error.Sprint("✗")                       // Error indicators
//	ui.Info.Sprint("→")                        // Informational hints
//	ui.Highlight.Sprint("alice@example.com")  // Recipients
//	ui.Account.Sprint("github")               // Account names
//	ui.Vault.Sprint("personal")               // Vault names
//	ui.Secret.Sprint(revealed)                // Revealed passwords
//
// Revealed passwords are converted to a string only at the moment they are
// printed, inside securemem.Secret.Use.
package ui
