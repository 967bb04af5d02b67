// Package workflows provides high-level orchestration for fmp commands.
//
// Workflows coordinate multiple operations across packages (configs, vault,
// audit, keyring) to implement complete user-facing features. Each workflow
// handles a single command's business logic, independent of CLI concerns
// like flag parsing, spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Resolving the vault and its recipient from the registry
//   - Finding the private key passphrase
//   - Running the decrypt, edit, re-encrypt session
//   - Recording audit trail entries
//
// Every workflow runs against an Env, built once per command by Setup.
//
// # Available Workflows
//
// Account workflows open a session, change one account and commit:
//
//   - Add, Delete, ChangeUsername, ChangePassword, RenameAccount
//   - List: reads accounts and aborts; nothing is re-encrypted
//
// Vault workflows operate on sealed vault files and keep the registry in
// the config file in step:
//
//   - CreateVault, DeleteVault, RenameVault, ChangeRecipient
//   - Backup, Restore, ListVaults, SelectDefault
//
// KeyringSave, KeyringDelete and KeyringStatus manage passphrases in the OS
// keyring, and Log reads the audit trail.
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching. Use errors.Is() to check for specific error conditions:
//
//	result, err := workflows.Add(ctx, env, opts)
//	if errors.Is(err, kerrors.ErrDuplicate) {
//	    // Suggest change-password instead
//	}
//
// # Context Usage
//
// Workflow functions that touch a vault accept a context.Context as their
// first parameter. Cancelling it before the final rename leaves the vault
// file untouched.
package workflows
