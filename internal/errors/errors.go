package errors

import (
	"errors"
	"fmt"
)

// Class errors. Every error returned by the vault packages wraps exactly one
// of these, so callers can branch with errors.Is and ExitCode can map it.
var (
	// ErrUserInput indicates the request itself was invalid.
	ErrUserInput = errors.New("invalid input")

	// ErrNotFound indicates a named account, vault or backup does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVaultBusy indicates another session holds the vault lock.
	ErrVaultBusy = errors.New("vault is in use by another session")

	// ErrDecryption indicates the encryption capability could not decrypt the vault.
	ErrDecryption = errors.New("failed to decrypt vault")

	// ErrEncryption indicates the encryption capability could not encrypt the vault.
	ErrEncryption = errors.New("failed to encrypt vault")

	// ErrCorruptArchive indicates the decrypted vault is not a well-formed account tree.
	ErrCorruptArchive = errors.New("vault archive is corrupt")

	// ErrIO indicates a filesystem operation failed.
	ErrIO = errors.New("filesystem operation failed")

	// ErrRecipientNotFound indicates the recipient key is unknown to the encryption capability.
	ErrRecipientNotFound = errors.New("recipient key not found")
)

// Input errors.
var (
	// ErrDuplicate indicates an account with the same name is already indexed.
	ErrDuplicate = fmt.Errorf("%w: account already exists", ErrUserInput)

	// ErrInvalidName indicates an account or vault name is not usable as a path component.
	ErrInvalidName = fmt.Errorf("%w: invalid name", ErrUserInput)

	// ErrInvalidLength indicates a requested password length is out of range.
	ErrInvalidLength = fmt.Errorf("%w: invalid password length", ErrUserInput)

	// ErrNoClasses indicates no character classes were selected for generation.
	ErrNoClasses = fmt.Errorf("%w: no character classes selected", ErrUserInput)

	// ErrVaultExists indicates a vault with the target name already exists.
	ErrVaultExists = fmt.Errorf("%w: vault already exists", ErrUserInput)

	// ErrNoVaultSelected indicates neither --vault nor default_vault named a vault.
	ErrNoVaultSelected = fmt.Errorf("%w: no vault selected", ErrUserInput)

	// ErrNoRecipient indicates a vault has no recipient key registered.
	ErrNoRecipient = fmt.Errorf("%w: no recipient configured", ErrUserInput)

	// ErrPassphraseMismatch indicates a confirmation prompt did not match.
	ErrPassphraseMismatch = fmt.Errorf("%w: entries do not match", ErrUserInput)
)

// Two-factor errors.
var (
	// ErrCodeRequired indicates a vault needs a one-time code and none was given.
	ErrCodeRequired = fmt.Errorf("%w: one-time code required", ErrUserInput)

	// ErrInvalidCode indicates a one-time code was malformed or did not match.
	ErrInvalidCode = fmt.Errorf("%w: invalid one-time code", ErrUserInput)

	// ErrTOTPEnabled indicates two-factor is already enabled for the vault.
	ErrTOTPEnabled = fmt.Errorf("%w: two-factor already enabled", ErrUserInput)

	// ErrTOTPNotEnabled indicates two-factor is not enabled for the vault.
	ErrTOTPNotEnabled = fmt.Errorf("%w: two-factor not enabled", ErrUserInput)

	// ErrTOTPSecretNotFound indicates a vault requires a code but its sealed secret is gone.
	ErrTOTPSecretNotFound = fmt.Errorf("%w: two-factor secret", ErrNotFound)
)

// Lookup errors.
var (
	// ErrAccountNotFound indicates the account is not in the index.
	ErrAccountNotFound = fmt.Errorf("%w: account", ErrNotFound)

	// ErrVaultNotFound indicates the vault file does not exist.
	ErrVaultNotFound = fmt.Errorf("%w: vault", ErrNotFound)

	// ErrBackupNotFound indicates no backup copy exists for the vault.
	ErrBackupNotFound = fmt.Errorf("%w: backup", ErrNotFound)
)

// Session errors.
var (
	// ErrSessionClosed indicates Commit or an accessor was used after the session ended.
	ErrSessionClosed = errors.New("vault session is already closed")
)
