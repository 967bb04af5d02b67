package utils

import (
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
)

// MaxNameLength bounds account and vault names.
const MaxNameLength = 128

// ReservedAccountName is the file name of the account index inside a vault.
const ReservedAccountName = "accounts"

// ValidateName checks that name can be used as a single path component.
// kind ("account", "vault") only appears in the error message.
func ValidateName(kind, name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: %s name is empty", kerrors.ErrInvalidName, kind)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: %s name is longer than %d bytes", kerrors.ErrInvalidName, kind, MaxNameLength)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %s name %q is reserved", kerrors.ErrInvalidName, kind, name)
	case strings.ContainsAny(name, "/\\\x00\r\n"):
		return fmt.Errorf("%w: %s name %q contains a path separator or control character", kerrors.ErrInvalidName, kind, name)
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: %s name %q has leading or trailing whitespace", kerrors.ErrInvalidName, kind, name)
	}
	return nil
}

// ValidateAccountName is ValidateName plus the index file name.
func ValidateAccountName(name string) error {
	if err := ValidateName("account", name); err != nil {
		return err
	}
	if name == ReservedAccountName {
		return fmt.Errorf("%w: account name %q is reserved", kerrors.ErrInvalidName, name)
	}
	return nil
}

// ValidateVaultName validates a vault name.
func ValidateVaultName(name string) error {
	return ValidateName("vault", name)
}
