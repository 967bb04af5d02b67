// Package utils provides shared helpers for fmp.
//
// # Names
//
// Account and vault names become path components inside the plaintext
// tree and the data directory:
//   - ValidateAccountName: rejects separators, "." and "..", and "accounts"
//   - ValidateVaultName: the same rules without the reserved index name
//
// # Terminal Utilities
//
// Functions for reading input without echoing it:
//   - ReadSecret: hidden prompt, returned as a securemem.Secret
//   - ReadSecretConfirm: hidden prompt entered twice
//   - ReadSecretStdin: secret piped on stdin
//   - IsTerminal: checks if stdin is a terminal
//
// # Filesystem Utilities
//
//   - EnsurePrivateDir: creates a directory with owner-only permissions
//   - FileExists: existence check that surfaces permission errors
package utils
