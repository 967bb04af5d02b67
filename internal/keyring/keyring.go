package keyring

import (
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/zalando/go-keyring"
)

const serviceName = "fmp"

// SavePassphrase stores the private key passphrase of recipient in the OS
// keyring.
func SavePassphrase(recipient string, passphrase *securemem.Secret) error {
	return passphrase.Use(func(b []byte) error {
		if err := keyring.Set(serviceName, recipient, string(b)); err != nil {
			return fmt.Errorf("failed to save to keyring: %w", err)
		}
		return nil
	})
}

// LoadPassphrase retrieves the passphrase of recipient. It fails with
// ErrNotFound when nothing is stored.
func LoadPassphrase(recipient string) (*securemem.Secret, error) {
	value, err := keyring.Get(serviceName, recipient)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("%w: no keyring entry for %s", kerrors.ErrNotFound, recipient)
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}
	return securemem.New([]byte(value)), nil
}

// DeletePassphrase removes the passphrase of recipient.
func DeletePassphrase(recipient string) error {
	if err := keyring.Delete(serviceName, recipient); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w: no keyring entry for %s", kerrors.ErrNotFound, recipient)
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// HasPassphrase checks if a passphrase is stored for recipient.
func HasPassphrase(recipient string) bool {
	_, err := keyring.Get(serviceName, recipient)
	return err == nil
}
