package workflows

import (
	"context"
	"fmt"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/keyring"
	"github.com/PolarWolf314/fmp/internal/securemem"
)

// KeyringOptions configures the keyring workflows.
type KeyringOptions struct {
	Vault string

	// Passphrase is the secret to store. KeyringSave does not destroy it.
	Passphrase *securemem.Secret
}

// KeyringResult reports the keyring state of a vault's recipient.
type KeyringResult struct {
	Vault     string
	Recipient string
	Stored    bool
}

// KeyringSave checks that Passphrase opens the vault, then stores it in the
// OS keyring under the vault's recipient.
//
// Returns ErrDecryption if the passphrase does not open the vault.
func KeyringSave(ctx context.Context, env *Env, opts KeyringOptions) (*KeyringResult, error) {
	if opts.Passphrase.Len() == 0 {
		return nil, fmt.Errorf("%w: empty passphrase", kerrors.ErrUserInput)
	}
	v, err := env.Vault(opts.Vault)
	if err != nil {
		return nil, err
	}
	if v.Recipient == "" {
		return nil, fmt.Errorf("%w for vault %q", kerrors.ErrNoRecipient, v.Name)
	}

	s, err := env.Manager.Open(ctx, v, opts.Passphrase)
	if err != nil {
		return nil, err
	}
	env.abort(s)

	if err := keyring.SavePassphrase(v.Recipient, opts.Passphrase); err != nil {
		return nil, err
	}
	env.Log.Debugf("Stored passphrase for %s in OS keyring", v.Recipient)
	return &KeyringResult{Vault: v.Name, Recipient: v.Recipient, Stored: true}, nil
}

// KeyringDelete removes the stored passphrase of the vault's recipient.
//
// Returns ErrNotFound if nothing is stored.
func KeyringDelete(env *Env, opts KeyringOptions) (*KeyringResult, error) {
	v, err := env.Vault(opts.Vault)
	if err != nil {
		return nil, err
	}
	if v.Recipient == "" {
		return nil, fmt.Errorf("%w for vault %q", kerrors.ErrNoRecipient, v.Name)
	}
	if err := keyring.DeletePassphrase(v.Recipient); err != nil {
		return nil, err
	}
	return &KeyringResult{Vault: v.Name, Recipient: v.Recipient}, nil
}

// KeyringStatus reports whether a passphrase is stored for the vault's
// recipient.
func KeyringStatus(env *Env, opts KeyringOptions) (*KeyringResult, error) {
	v, err := env.Vault(opts.Vault)
	if err != nil {
		return nil, err
	}
	if v.Recipient == "" {
		return nil, fmt.Errorf("%w for vault %q", kerrors.ErrNoRecipient, v.Name)
	}
	return &KeyringResult{
		Vault:     v.Name,
		Recipient: v.Recipient,
		Stored:    keyring.HasPassphrase(v.Recipient),
	}, nil
}
