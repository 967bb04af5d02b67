// Package errors provides typed error values for fmp.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. This makes
// error handling more robust and refactoring-safe.
//
// # Error Classes
//
// Every failure belongs to exactly one class:
//
//   - ErrUserInput: the request was invalid (ErrDuplicate, ErrInvalidName)
//   - ErrNotFound: a named account, vault or backup is absent
//   - ErrVaultBusy: another session holds the vault lock
//   - ErrDecryption, ErrEncryption, ErrRecipientNotFound: the encryption tool failed
//   - ErrCorruptArchive: the decrypted tree is malformed
//   - ErrIO: a filesystem operation failed
//
// Specific errors wrap their class, so both of these hold:
//
//	errors.Is(err, kerrors.ErrDuplicate)
//	errors.Is(err, kerrors.ErrUserInput)
//
// # Usage
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("adding %s: %w", name, errors.ErrDuplicate)
//
// Wrap a filesystem error so both the class and the cause stay inspectable:
//
//	return fmt.Errorf("%w: %w", errors.ErrIO, err)
//
// Map an error to a process exit status in main:
//
//	os.Exit(errors.ExitCode(err))
package errors
