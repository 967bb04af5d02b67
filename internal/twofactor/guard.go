package twofactor

import (
	"context"
	"fmt"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/vault"
)

// Guard is the vault.Gate that asks for a code on vaults that require one.
type Guard struct {
	Store *Store

	// Code returns the one-time code for a vault. Nil means no code can be
	// supplied.
	Code func(name string) (string, error)

	// Passphrase unlocks the recipient key when the vault operation itself
	// had no passphrase, as for Delete and Restore.
	Passphrase func(recipient string) (*securemem.Secret, error)
}

// Check implements vault.Gate.
func (g *Guard) Check(ctx context.Context, v vault.Vault, passphrase *securemem.Secret) error {
	required, err := g.Store.Required(v)
	if err != nil || !required {
		return err
	}
	if g.Code == nil {
		return fmt.Errorf("%w for vault %q", kerrors.ErrCodeRequired, v.Name)
	}
	code, err := g.Code(v.Name)
	if err != nil {
		return err
	}

	if passphrase == nil && g.Passphrase != nil {
		pass, err := g.Passphrase(v.Recipient)
		if err != nil {
			return err
		}
		defer pass.Destroy()
		passphrase = pass
	}
	return g.Store.Verify(ctx, v, code, passphrase)
}
