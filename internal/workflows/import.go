package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/fmp/internal/audit"
	"github.com/PolarWolf314/fmp/internal/configs"
)

// ImportOptions configures the import workflow.
type ImportOptions struct {
	// Path is the encrypted vault file to import.
	Path string

	// Name is the vault to create.
	Name string

	// Recipient is the key the file is encrypted to. It is recorded in the
	// registry and used for later commits.
	Recipient string
}

// ImportResult contains the outcome of an import operation.
type ImportResult struct {
	Vault    string
	Accounts int
}

// Import checks that Path decrypts to a well-formed vault, copies it into
// the vault directory as Name and registers it.
//
// Returns ErrVaultExists if Name is taken.
// Returns ErrDecryption or ErrCorruptArchive if the file is not a vault
// that can be opened.
func Import(ctx context.Context, env *Env, opts ImportOptions) (*ImportResult, error) {
	v, err := env.Manager.Ref(opts.Name, opts.Recipient)
	if err != nil {
		return nil, err
	}

	pass, err := env.Passphrase(v.Recipient)
	if err != nil {
		return nil, err
	}
	defer pass.Destroy()

	n, err := env.Manager.Import(ctx, v, opts.Path, pass)
	if err != nil {
		return nil, err
	}

	if err := env.updateRegistry(func(c *configs.Config) {
		c.SetVault(v.Name, v.Recipient)
		if c.DefaultVault == "" {
			c.DefaultVault = v.Name
		}
	}); err != nil {
		return nil, fmt.Errorf("vault imported but not registered: %w", err)
	}

	env.Audit.Log(audit.Entry{Operation: "import", Vault: v.Name, Target: opts.Path})
	return &ImportResult{Vault: v.Name, Accounts: n}, nil
}
