package workflows

import (
	"context"
	"fmt"
	"slices"

	"github.com/PolarWolf314/fmp/internal/audit"
	"github.com/PolarWolf314/fmp/internal/configs"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/utils"
)

// CreateVaultOptions configures the create-vault workflow.
type CreateVaultOptions struct {
	Name      string
	Recipient string

	// SetDefault makes the new vault default_vault. The first vault created
	// becomes the default regardless.
	SetDefault bool
}

// VaultResult contains the outcome of a vault-level operation.
type VaultResult struct {
	Vault     string
	Recipient string
	Path      string
	Default   bool
	Verified  bool
	Warnings  []string
}

// CreateVault seals a new empty vault encrypted to Recipient and registers
// it in the config file.
//
// Returns ErrVaultExists if the vault file already exists.
// Returns ErrRecipientNotFound if the recipient key is unknown.
func CreateVault(ctx context.Context, env *Env, opts CreateVaultOptions) (*VaultResult, error) {
	v, err := env.Manager.Ref(opts.Name, opts.Recipient)
	if err != nil {
		return nil, err
	}

	pass, err := env.Passphrase(v.Recipient)
	if err != nil {
		return nil, err
	}
	defer pass.Destroy()

	res, err := env.Manager.Create(ctx, v, pass)
	if err != nil {
		return nil, err
	}

	makeDefault := opts.SetDefault || env.Config.DefaultVault == ""
	if err := env.updateRegistry(func(c *configs.Config) {
		c.SetVault(v.Name, v.Recipient)
		if makeDefault {
			c.DefaultVault = v.Name
		}
	}); err != nil {
		return nil, fmt.Errorf("vault created but not registered: %w", err)
	}

	env.Audit.Log(audit.Entry{Operation: "create-vault", Vault: v.Name})
	return &VaultResult{
		Vault:     v.Name,
		Recipient: v.Recipient,
		Path:      v.Path,
		Default:   makeDefault,
		Verified:  res.Verified,
		Warnings:  res.Warnings,
	}, nil
}

// DeleteVaultOptions configures the delete-vault workflow.
type DeleteVaultOptions struct {
	Name       string
	WithBackup bool
}

// DeleteVault removes a vault file, its two-factor secret and its registry
// entry.
//
// Returns ErrVaultNotFound if the vault file does not exist.
func DeleteVault(ctx context.Context, env *Env, opts DeleteVaultOptions) (*VaultResult, error) {
	v, err := env.Manager.Ref(opts.Name, env.Config.Recipient(opts.Name))
	if err != nil {
		return nil, err
	}
	if err := env.Manager.Delete(ctx, v, opts.WithBackup); err != nil {
		return nil, err
	}
	if err := env.TwoFactor.Forget(v); err != nil {
		env.Log.Warnf("Failed to remove two-factor secret: %v", err)
	}
	if err := env.updateRegistry(func(c *configs.Config) { c.RemoveVault(v.Name) }); err != nil {
		return nil, fmt.Errorf("vault deleted but registry not updated: %w", err)
	}

	env.Audit.Log(audit.Entry{Operation: "delete-vault", Vault: v.Name})
	return &VaultResult{Vault: v.Name, Path: v.Path}, nil
}

// RenameVaultOptions configures the rename-vault workflow.
type RenameVaultOptions struct {
	Name    string
	NewName string
}

// RenameVault re-seals a vault under a new name and moves its registry
// entry and backup along.
//
// Returns ErrVaultExists if NewName is taken.
func RenameVault(ctx context.Context, env *Env, opts RenameVaultOptions) (*VaultResult, error) {
	v, err := env.Vault(opts.Name)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateVaultName(opts.NewName); err != nil {
		return nil, err
	}

	pass, err := env.Passphrase(v.Recipient)
	if err != nil {
		return nil, err
	}
	defer pass.Destroy()

	res, err := env.Manager.Rename(ctx, v, opts.NewName, pass)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		env.Log.Warnf("%s", w)
	}
	if err := env.TwoFactor.Rename(v, res.Vault); err != nil {
		return nil, fmt.Errorf("vault renamed but two-factor not moved: %w", err)
	}

	if err := env.updateRegistry(func(c *configs.Config) { c.RenameVault(v.Name, opts.NewName) }); err != nil {
		return nil, fmt.Errorf("vault renamed but registry not updated: %w", err)
	}

	env.Audit.Log(audit.Entry{Operation: "rename-vault", Vault: v.Name, Target: opts.NewName})
	return &VaultResult{
		Vault:     res.Vault.Name,
		Recipient: res.Vault.Recipient,
		Path:      res.Vault.Path,
		Default:   env.Config.DefaultVault == res.Vault.Name,
		Verified:  res.Verified,
		Warnings:  res.Warnings,
	}, nil
}

// ChangeRecipientOptions configures the change-recipient workflow.
type ChangeRecipientOptions struct {
	Vault     string
	Recipient string
}

// ChangeRecipient re-encrypts a vault to a new recipient and records it in
// the registry.
//
// Returns ErrRecipientNotFound, with the vault untouched, if the new
// recipient key is unknown.
func ChangeRecipient(ctx context.Context, env *Env, opts ChangeRecipientOptions) (*VaultResult, error) {
	v, err := env.Vault(opts.Vault)
	if err != nil {
		return nil, err
	}

	pass, err := env.Passphrase(v.Recipient)
	if err != nil {
		return nil, err
	}
	defer pass.Destroy()

	res, err := env.Manager.ChangeRecipient(ctx, v, opts.Recipient, pass)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		env.Log.Warnf("%s", w)
	}
	if err := env.TwoFactor.Reseal(ctx, v, res.Vault.Recipient, pass); err != nil {
		return nil, fmt.Errorf("vault re-encrypted but two-factor secret not resealed: %w", err)
	}

	if err := env.updateRegistry(func(c *configs.Config) { c.SetVault(v.Name, res.Vault.Recipient) }); err != nil {
		return nil, fmt.Errorf("vault re-encrypted but registry not updated: %w", err)
	}

	env.Audit.Log(audit.Entry{Operation: "change-recipient", Vault: v.Name, Target: res.Vault.Recipient})
	return &VaultResult{
		Vault:     v.Name,
		Recipient: res.Vault.Recipient,
		Path:      v.Path,
		Warnings:  res.Warnings,
	}, nil
}

// BackupOptions names the vault to back up or restore.
type BackupOptions struct {
	Vault string
}

// Backup copies the sealed vault to <vault>.bak.
func Backup(ctx context.Context, env *Env, opts BackupOptions) (*VaultResult, error) {
	v, err := env.Vault(opts.Vault)
	if err != nil {
		return nil, err
	}
	path, err := env.Manager.Backup(ctx, v)
	if err != nil {
		return nil, err
	}
	env.Audit.Log(audit.Entry{Operation: "backup", Vault: v.Name})
	return &VaultResult{Vault: v.Name, Path: path}, nil
}

// Restore replaces the vault with its backup.
//
// Returns ErrBackupNotFound if no backup exists.
func Restore(ctx context.Context, env *Env, opts BackupOptions) (*VaultResult, error) {
	v, err := env.Vault(opts.Vault)
	if err != nil {
		return nil, err
	}
	if err := env.Manager.Restore(ctx, v); err != nil {
		return nil, err
	}
	env.Audit.Log(audit.Entry{Operation: "restore", Vault: v.Name})
	return &VaultResult{Vault: v.Name, Path: v.Path}, nil
}

// VaultInfo describes one vault known on disk or in the registry.
type VaultInfo struct {
	Name       string `json:"name"`
	Recipient  string `json:"recipient,omitempty"`
	Default    bool   `json:"default"`
	OnDisk     bool   `json:"on_disk"`
	Registered bool   `json:"registered"`
	HasBackup  bool   `json:"has_backup"`
	TwoFactor  bool   `json:"two_factor"`
}

// ListVaults merges the vault files on disk with the registry.
func ListVaults(env *Env) ([]VaultInfo, error) {
	onDisk, err := env.Manager.List()
	if err != nil {
		return nil, err
	}

	names := slices.Clone(onDisk)
	for _, name := range env.Config.VaultNames() {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	infos := make([]VaultInfo, 0, len(names))
	for _, name := range names {
		v, err := env.Manager.Ref(name, env.Config.Recipient(name))
		if err != nil {
			return nil, err
		}
		backup, err := utils.FileExists(env.Manager.BackupPath(v))
		if err != nil {
			return nil, err
		}
		twoFactor, err := env.TwoFactor.Required(v)
		if err != nil {
			return nil, err
		}
		infos = append(infos, VaultInfo{
			Name:       name,
			Recipient:  v.Recipient,
			Default:    env.Config.DefaultVault == name,
			OnDisk:     slices.Contains(onDisk, name),
			Registered: env.Config.HasVault(name),
			HasBackup:  backup,
			TwoFactor:  twoFactor,
		})
	}
	return infos, nil
}

// SelectDefault sets default_vault.
//
// Returns ErrVaultNotFound if no such vault exists on disk.
func SelectDefault(env *Env, name string) error {
	v, err := env.Manager.Ref(name, "")
	if err != nil {
		return err
	}
	if !env.Manager.Exists(v) {
		return fmt.Errorf("%w %q", kerrors.ErrVaultNotFound, name)
	}
	return env.updateRegistry(func(c *configs.Config) { c.DefaultVault = name })
}
