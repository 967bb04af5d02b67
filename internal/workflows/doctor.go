package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/PolarWolf314/fmp/internal/configs"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/twofactor"
	"github.com/PolarWolf314/fmp/internal/utils"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	// CheckPass means the check passed.
	CheckPass CheckStatus = iota
	// CheckWarning means the check found a non-critical issue.
	CheckWarning
	// CheckError means the check found a critical issue.
	CheckError
)

// String returns a string representation of CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CheckStatus.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Doctor runs health checks on the local setup.
//
// The doctor workflow checks:
//   - Configuration keys
//   - Encryption backend availability
//   - Vault and work directory permissions
//   - Vault file permissions
//   - Registry and disk consistency
//   - Leftover plaintext session trees
//   - Sealed two-factor secrets
//   - Memory locking
func Doctor(ctx context.Context, env *Env) (*DoctorResult, error) {
	results := []CheckResult{
		checkConfig(env),
		checkBackend(env),
		checkDirPermissions("Vault directory", env.Settings.VaultDir),
		checkDirPermissions("Work directory", env.Settings.WorkDir),
		checkVaultPermissions(env),
		checkRegistry(env),
		checkStaleTrees(ctx, env),
		checkTwoFactor(env),
		checkMemoryLocking(),
	}

	summary := calculateDoctorSummary(results)

	// Collect suggestions (deduplicated).
	var suggestions []string
	for _, result := range results {
		if result.Suggestion != "" && result.Status != CheckPass && !slices.Contains(suggestions, result.Suggestion) {
			suggestions = append(suggestions, result.Suggestion)
		}
	}

	return &DoctorResult{
		Checks:      results,
		Summary:     summary,
		Suggestions: suggestions,
	}, nil
}

func checkConfig(env *Env) CheckResult {
	if len(env.Config.Unknown) > 0 {
		return CheckResult{
			Name:       "Configuration",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Unknown keys in %s: %s", env.ConfigPath, strings.Join(env.Config.Unknown, ", ")),
			Suggestion: "Remove or fix the unknown keys in the config file",
		}
	}
	return CheckResult{
		Name:    "Configuration",
		Status:  CheckPass,
		Message: "Configuration valid",
	}
}

func checkBackend(env *Env) CheckResult {
	if env.Config.Backend == configs.BackendOpenPGP {
		if _, err := os.Stat(env.Config.KeyringFile); err != nil {
			return CheckResult{
				Name:       "Encryption backend",
				Status:     CheckError,
				Message:    fmt.Sprintf("Keyring file %s is not readable", env.Config.KeyringFile),
				Suggestion: "Export your keys with 'gpg --export-secret-keys --armor' and set keyring_file",
			}
		}
		return CheckResult{
			Name:    "Encryption backend",
			Status:  CheckPass,
			Message: "OpenPGP keyring found",
		}
	}

	binary := env.Config.GPGBinary
	if binary == "" {
		binary = "gpg"
	}
	path, err := lookPath(binary)
	if err != nil {
		return CheckResult{
			Name:       "Encryption backend",
			Status:     CheckError,
			Message:    fmt.Sprintf("%s not found", binary),
			Suggestion: "Install GnuPG or set gpg_binary",
		}
	}
	return CheckResult{
		Name:    "Encryption backend",
		Status:  CheckPass,
		Message: fmt.Sprintf("Using %s", path),
	}
}

func checkDirPermissions(name, dir string) CheckResult {
	info, err := os.Stat(dir)
	if err != nil {
		return CheckResult{
			Name:    name,
			Status:  CheckError,
			Message: fmt.Sprintf("Cannot stat %s: %v", dir, err),
		}
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%s is accessible by other users (%o)", dir, perm),
			Suggestion: fmt.Sprintf("Run 'chmod 700 %s'", dir),
		}
	}
	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("%s is owner-only", dir),
	}
}

func checkVaultPermissions(env *Env) CheckResult {
	names, err := env.Manager.List()
	if err != nil {
		return CheckResult{
			Name:    "Vault file permissions",
			Status:  CheckError,
			Message: fmt.Sprintf("Cannot list vaults: %v", err),
		}
	}

	var loose []string
	for _, name := range names {
		v, err := env.Manager.Ref(name, "")
		if err != nil {
			continue
		}
		info, err := os.Stat(v.Path)
		if err == nil && info.Mode().Perm()&0077 != 0 {
			loose = append(loose, name)
		}
	}
	if len(loose) > 0 {
		return CheckResult{
			Name:       "Vault file permissions",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Readable by other users: %s", strings.Join(loose, ", ")),
			Suggestion: fmt.Sprintf("Run 'chmod 600 %s/*'", env.Settings.VaultDir),
		}
	}
	return CheckResult{
		Name:    "Vault file permissions",
		Status:  CheckPass,
		Message: fmt.Sprintf("%d vault file(s) are owner-only", len(names)),
	}
}

func checkRegistry(env *Env) CheckResult {
	infos, err := ListVaults(env)
	if err != nil {
		return CheckResult{
			Name:    "Vault registry",
			Status:  CheckError,
			Message: fmt.Sprintf("Cannot read vaults: %v", err),
		}
	}

	var missing, unregistered, noRecipient []string
	for _, info := range infos {
		switch {
		case !info.OnDisk:
			missing = append(missing, info.Name)
		case !info.Registered:
			unregistered = append(unregistered, info.Name)
		case info.Recipient == "":
			noRecipient = append(noRecipient, info.Name)
		}
	}

	if def := env.Config.DefaultVault; def != "" && !slices.ContainsFunc(infos, func(i VaultInfo) bool { return i.Name == def && i.OnDisk }) {
		return CheckResult{
			Name:       "Vault registry",
			Status:     CheckError,
			Message:    fmt.Sprintf("default_vault %q does not exist", def),
			Suggestion: "Pick another default with 'fmp vaults --default <name>'",
		}
	}
	if len(unregistered) > 0 || len(noRecipient) > 0 {
		return CheckResult{
			Name:       "Vault registry",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("No recipient for: %s", strings.Join(append(unregistered, noRecipient...), ", ")),
			Suggestion: "Set one with 'fmp change-recipient --vault <name> <recipient>'",
		}
	}
	if len(missing) > 0 {
		return CheckResult{
			Name:       "Vault registry",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Registered but missing on disk: %s", strings.Join(missing, ", ")),
			Suggestion: "Restore the vault file or remove the entry with 'fmp delete-vault'",
		}
	}
	return CheckResult{
		Name:    "Vault registry",
		Status:  CheckPass,
		Message: fmt.Sprintf("%d vault(s) registered", len(infos)),
	}
}

func checkStaleTrees(ctx context.Context, env *Env) CheckResult {
	res, err := env.Manager.Clean(ctx, true)
	if err != nil {
		return CheckResult{
			Name:    "Session trees",
			Status:  CheckError,
			Message: fmt.Sprintf("Cannot inspect %s: %v", env.Settings.WorkDir, err),
		}
	}
	if len(res.StaleLocks) > 0 {
		return CheckResult{
			Name:       "Session trees",
			Status:     CheckError,
			Message:    fmt.Sprintf("Locked by a session that no longer runs: %s", strings.Join(res.StaleLocks, ", ")),
			Suggestion: "Run 'fmp clean' to remove the stale locks",
		}
	}
	leftover := append(res.Stale, res.Orphaned...)
	if len(leftover) > 0 {
		return CheckResult{
			Name:       "Session trees",
			Status:     CheckError,
			Message:    fmt.Sprintf("Plaintext left behind for: %s", strings.Join(leftover, ", ")),
			Suggestion: "Run 'fmp clean' to purge them",
		}
	}
	return CheckResult{
		Name:    "Session trees",
		Status:  CheckPass,
		Message: "No plaintext left behind",
	}
}

func checkTwoFactor(env *Env) CheckResult {
	infos, err := ListVaults(env)
	if err != nil {
		return CheckResult{
			Name:    "Two-factor",
			Status:  CheckError,
			Message: fmt.Sprintf("Cannot read vaults: %v", err),
		}
	}

	var enabled, missing []string
	for _, info := range infos {
		if !info.TwoFactor {
			continue
		}
		enabled = append(enabled, info.Name)
		v, err := env.Manager.Ref(info.Name, info.Recipient)
		if err != nil {
			continue
		}
		if ok, err := utils.FileExists(twofactor.SecretPath(v)); err == nil && !ok {
			missing = append(missing, info.Name)
		}
	}

	if len(missing) > 0 {
		return CheckResult{
			Name:       "Two-factor",
			Status:     CheckError,
			Message:    fmt.Sprintf("Code required but secret missing for: %s", strings.Join(missing, ", ")),
			Suggestion: "Restore the vault's .totp.gpg file; the vault cannot be opened without it",
		}
	}
	if len(enabled) == 0 {
		return CheckResult{
			Name:    "Two-factor",
			Status:  CheckPass,
			Message: "No vault requires a one-time code",
		}
	}
	return CheckResult{
		Name:    "Two-factor",
		Status:  CheckPass,
		Message: fmt.Sprintf("One-time code required for: %s", strings.Join(enabled, ", ")),
	}
}

func checkMemoryLocking() CheckResult {
	if securemem.Level() != securemem.ProtectionFull {
		return CheckResult{
			Name:       "Memory locking",
			Status:     CheckWarning,
			Message:    "Secrets cannot be locked in memory and may be swapped",
			Suggestion: "Raise RLIMIT_MEMLOCK (ulimit -l) to at least 1024 KiB",
		}
	}
	return CheckResult{
		Name:    "Memory locking",
		Status:  CheckPass,
		Message: "Secrets are locked in memory",
	}
}

// calculateDoctorSummary calculates the counts of checks by status.
func calculateDoctorSummary(results []CheckResult) DoctorSummary {
	var summary DoctorSummary
	for _, result := range results {
		switch result.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		}
	}
	return summary
}
