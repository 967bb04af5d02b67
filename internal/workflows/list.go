package workflows

import (
	"context"

	"github.com/PolarWolf314/fmp/internal/audit"
	"github.com/PolarWolf314/fmp/internal/securemem"
)

// ListOptions configures the list workflow.
type ListOptions struct {
	Vault string

	// Reveal includes passwords in the result.
	Reveal bool

	// Accounts restricts the result to these names. Empty lists everything.
	Accounts []string
}

// AccountView is one listed account.
type AccountView struct {
	Name     string
	Username string

	// Password is only set with Reveal.
	Password *securemem.Secret
}

// ListResult contains the accounts of a vault.
type ListResult struct {
	Vault    string
	Accounts []AccountView
}

// Destroy wipes every revealed password.
func (r *ListResult) Destroy() {
	if r == nil {
		return
	}
	for _, a := range r.Accounts {
		a.Password.Destroy()
	}
}

// List decrypts the vault, reads its accounts in index order and aborts the
// session; the vault is never re-encrypted.
//
// Returns ErrAccountNotFound if a requested account does not exist.
func List(ctx context.Context, env *Env, opts ListOptions) (*ListResult, error) {
	v, err := env.Vault(opts.Vault)
	if err != nil {
		return nil, err
	}

	pass, err := env.Passphrase(v.Recipient)
	if err != nil {
		return nil, err
	}
	defer pass.Destroy()

	s, err := env.Manager.Open(ctx, v, pass)
	if err != nil {
		return nil, err
	}
	defer env.abort(s)

	names := opts.Accounts
	if len(names) == 0 {
		names = s.Accounts().List()
	}

	result := &ListResult{Vault: v.Name}
	for _, name := range names {
		rec, err := s.Accounts().Get(name)
		if err != nil {
			result.Destroy()
			return nil, err
		}
		view := AccountView{Name: name, Username: rec.Username}
		if opts.Reveal {
			view.Password = rec.Password
		} else {
			rec.Password.Destroy()
		}
		result.Accounts = append(result.Accounts, view)
	}

	op := "list"
	if opts.Reveal {
		op = "reveal"
	}
	env.Audit.Log(audit.Entry{Operation: op, Vault: v.Name, Session: s.ID()})
	return result, nil
}
