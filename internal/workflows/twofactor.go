package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/fmp/internal/audit"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
)

// TOTPOptions names the vault for the two-factor workflows.
type TOTPOptions struct {
	Vault string
}

// TOTPResult reports the two-factor state of a vault. Secret and URL are
// only set right after EnableTOTP.
type TOTPResult struct {
	Vault   string
	Enabled bool
	Secret  string
	URL     string
}

// EnableTOTP makes every later access to the vault require a one-time
// code, and returns the secret to enroll in an authenticator.
//
// Returns ErrTOTPEnabled if the vault already requires a code.
func EnableTOTP(ctx context.Context, env *Env, opts TOTPOptions) (*TOTPResult, error) {
	v, err := env.Vault(opts.Vault)
	if err != nil {
		return nil, err
	}
	enr, err := env.TwoFactor.Enable(ctx, v)
	if err != nil {
		return nil, err
	}

	env.Audit.Log(audit.Entry{Operation: "totp-enable", Vault: v.Name})
	return &TOTPResult{Vault: v.Name, Enabled: true, Secret: enr.Secret, URL: enr.URL}, nil
}

// DisableTOTP removes the code requirement after checking a current code.
//
// Returns ErrTOTPNotEnabled if the vault does not require a code.
func DisableTOTP(ctx context.Context, env *Env, opts TOTPOptions) (*TOTPResult, error) {
	v, err := env.Vault(opts.Vault)
	if err != nil {
		return nil, err
	}
	required, err := env.TwoFactor.Required(v)
	if err != nil {
		return nil, err
	}
	if !required {
		return nil, fmt.Errorf("%w for vault %q", kerrors.ErrTOTPNotEnabled, v.Name)
	}

	code, err := env.code(v.Name)
	if err != nil {
		return nil, err
	}
	pass, err := env.Passphrase(v.Recipient)
	if err != nil {
		return nil, err
	}
	defer pass.Destroy()

	if err := env.TwoFactor.Verify(ctx, v, code, pass); err != nil {
		return nil, err
	}
	if err := env.TwoFactor.Disable(v); err != nil {
		return nil, err
	}

	env.Audit.Log(audit.Entry{Operation: "totp-disable", Vault: v.Name})
	return &TOTPResult{Vault: v.Name}, nil
}

// TOTPStatus reports whether the vault requires a one-time code.
func TOTPStatus(env *Env, opts TOTPOptions) (*TOTPResult, error) {
	v, err := env.Vault(opts.Vault)
	if err != nil {
		return nil, err
	}
	required, err := env.TwoFactor.Required(v)
	if err != nil {
		return nil, err
	}
	return &TOTPResult{Vault: v.Name, Enabled: required}, nil
}
