package workflows

import (
	"context"

	"github.com/PolarWolf314/fmp/internal/audit"
	"github.com/PolarWolf314/fmp/internal/password"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/vault"
)

// PasswordSource says where a new password comes from: an explicit Secret,
// or a generated one when Password is nil.
type PasswordSource struct {
	// Password is used as-is when set. The workflow does not destroy it.
	Password *securemem.Secret

	// GenerateLength is the length of a generated password.
	GenerateLength int

	// Classes are the character classes of a generated password. Callers
	// pass password.All for the default; zero selects nothing and fails
	// with ErrNoClasses.
	Classes password.Class
}

// resolve returns the password to store and whether it was generated.
// The caller must destroy the result.
func (p PasswordSource) resolve() (*securemem.Secret, bool, error) {
	if p.Password != nil {
		s, err := p.Password.Clone()
		return s, false, err
	}
	s, err := password.Generate(p.GenerateLength, p.Classes)
	return s, true, err
}

// AccountResult contains the outcome of an account mutation.
type AccountResult struct {
	*SessionResult

	// Account is the affected account (its new name after a rename).
	Account string

	// Generated holds the generated password, if one was generated. The
	// caller must destroy it.
	Generated *securemem.Secret

	// Entropy and Rating describe the stored password, for Add and
	// ChangePassword.
	Entropy float64
	Rating  string
}

// AddOptions configures the add workflow.
type AddOptions struct {
	Vault    string
	Account  string
	Username string
	PasswordSource
}

// Add creates an account and commits the vault.
//
// Returns ErrDuplicate if the account already exists.
// Returns ErrInvalidName if the account name is not usable.
func Add(ctx context.Context, env *Env, opts AddOptions) (*AccountResult, error) {
	pw, generated, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	defer pw.Destroy()

	result := &AccountResult{Account: opts.Account}
	_ = pw.Use(func(b []byte) error {
		result.Entropy = password.Entropy(b)
		return nil
	})
	result.Rating = password.Rating(result.Entropy)

	entry := audit.Entry{Operation: "add", Account: opts.Account}
	res, err := env.withSession(ctx, opts.Vault, entry, func(s *vault.Session) (bool, error) {
		return true, s.Accounts().Add(opts.Account, opts.Username, pw)
	})
	if err != nil {
		return nil, err
	}
	result.SessionResult = res

	if generated {
		if result.Generated, err = pw.Clone(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// AccountOptions names one account.
type AccountOptions struct {
	Vault   string
	Account string
}

// Delete removes an account and commits the vault.
//
// Returns ErrAccountNotFound if the account does not exist.
func Delete(ctx context.Context, env *Env, opts AccountOptions) (*AccountResult, error) {
	entry := audit.Entry{Operation: "delete", Account: opts.Account}
	res, err := env.withSession(ctx, opts.Vault, entry, func(s *vault.Session) (bool, error) {
		return true, s.Accounts().Remove(opts.Account)
	})
	if err != nil {
		return nil, err
	}
	return &AccountResult{SessionResult: res, Account: opts.Account}, nil
}

// ChangeUsernameOptions configures the change-username workflow.
type ChangeUsernameOptions struct {
	Vault    string
	Account  string
	Username string
}

// ChangeUsername replaces the username of an account.
func ChangeUsername(ctx context.Context, env *Env, opts ChangeUsernameOptions) (*AccountResult, error) {
	entry := audit.Entry{Operation: "change-username", Account: opts.Account}
	res, err := env.withSession(ctx, opts.Vault, entry, func(s *vault.Session) (bool, error) {
		return true, s.Accounts().ChangeUsername(opts.Account, opts.Username)
	})
	if err != nil {
		return nil, err
	}
	return &AccountResult{SessionResult: res, Account: opts.Account}, nil
}

// ChangePasswordOptions configures the change-password workflow.
type ChangePasswordOptions struct {
	Vault   string
	Account string
	PasswordSource
}

// ChangePassword replaces the password of an account, with a given or a
// generated one.
func ChangePassword(ctx context.Context, env *Env, opts ChangePasswordOptions) (*AccountResult, error) {
	pw, generated, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	defer pw.Destroy()

	result := &AccountResult{Account: opts.Account}
	_ = pw.Use(func(b []byte) error {
		result.Entropy = password.Entropy(b)
		return nil
	})
	result.Rating = password.Rating(result.Entropy)

	entry := audit.Entry{Operation: "change-password", Account: opts.Account}
	res, err := env.withSession(ctx, opts.Vault, entry, func(s *vault.Session) (bool, error) {
		return true, s.Accounts().ChangePassword(opts.Account, pw)
	})
	if err != nil {
		return nil, err
	}
	result.SessionResult = res

	if generated {
		if result.Generated, err = pw.Clone(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// RenameAccountOptions configures the rename-account workflow.
type RenameAccountOptions struct {
	Vault   string
	Account string
	NewName string
}

// RenameAccount renames an account, keeping its position in the index.
//
// Returns ErrAccountNotFound if the account does not exist.
// Returns ErrDuplicate if NewName is already taken.
func RenameAccount(ctx context.Context, env *Env, opts RenameAccountOptions) (*AccountResult, error) {
	entry := audit.Entry{Operation: "rename-account", Account: opts.Account, Target: opts.NewName}
	res, err := env.withSession(ctx, opts.Vault, entry, func(s *vault.Session) (bool, error) {
		return true, s.Accounts().Rename(opts.Account, opts.NewName)
	})
	if err != nil {
		return nil, err
	}
	return &AccountResult{SessionResult: res, Account: opts.NewName}, nil
}
