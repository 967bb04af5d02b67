package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Backend)
	assert.NotNil(t, cfg.Vaults)
	assert.Empty(t, cfg.Unknown)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
backend = "openpgp"
keyring_file = "/keys/ring.asc"
lock_timeout = "3s"
default_vault = "personal"
surprise = true

[vaults.personal]
recipient = "alice@example.com"

[vaults.work]
recipient = "0xDEADBEEF"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendOpenPGP, cfg.Backend)
	assert.Equal(t, "/keys/ring.asc", cfg.KeyringFile)
	assert.Equal(t, "personal", cfg.DefaultVault)
	assert.Equal(t, "alice@example.com", cfg.Recipient("personal"))
	assert.Equal(t, []string{"personal", "work"}, cfg.VaultNames())
	assert.Equal(t, []string{"surprise"}, cfg.Unknown)

	timeout, err := cfg.lockTimeout()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, timeout)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
backend = "gpg"
default_vault = "personal"
gpg_binary = "/usr/bin/gpg"
`)
	t.Setenv("FMP_DEFAULT_VAULT", "work")
	t.Setenv("FMP_SKIP_VERIFY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "work", cfg.DefaultVault)
	assert.True(t, cfg.SkipVerify)
	assert.Equal(t, "/usr/bin/gpg", cfg.GPGBinary, "unset variables must not clear file values")

	fileOnly, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "personal", fileOnly.DefaultVault)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"UnknownBackend", `backend = "rot13"`},
		{"OpenPGPWithoutKeyring", `backend = "openpgp"`},
		{"BadTimeout", `lock_timeout = "soon"`},
		{"NegativeTimeout", `lock_timeout = "-1s"`},
		{"BadDefaultVault", `default_vault = "../etc"`},
		{"BadRegistryName", "[vaults.\"a/b\"]\nrecipient = \"x\""},
		{"NotTOML", `backend = `},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.ErrorIs(t, err, kerrors.ErrUserInput)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := &Config{Backend: BackendGPG, DefaultVault: "personal", Unknown: []string{"ignored"}}
	cfg.SetVault("personal", " alice@example.com ")
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", loaded.Recipient("personal"))
	assert.Equal(t, "personal", loaded.DefaultVault)
	assert.Empty(t, loaded.Unknown)
}

func TestRegistry(t *testing.T) {
	cfg := &Config{}
	cfg.SetVault("personal", "alice@example.com")
	cfg.DefaultVault = "personal"

	assert.True(t, cfg.HasVault("personal"))
	assert.Empty(t, cfg.Recipient("missing"))

	cfg.RenameVault("personal", "home")
	assert.False(t, cfg.HasVault("personal"))
	assert.Equal(t, "alice@example.com", cfg.Recipient("home"))
	assert.Equal(t, "home", cfg.DefaultVault)

	cfg.RemoveVault("home")
	assert.False(t, cfg.HasVault("home"))
	assert.Empty(t, cfg.DefaultVault)
}

func TestSelectVault(t *testing.T) {
	cfg := &Config{DefaultVault: "personal"}

	name, err := cfg.SelectVault("")
	require.NoError(t, err)
	assert.Equal(t, "personal", name)

	name, err = cfg.SelectVault("work")
	require.NoError(t, err)
	assert.Equal(t, "work", name)

	_, err = (&Config{}).SelectVault("")
	assert.ErrorIs(t, err, kerrors.ErrNoVaultSelected)

	_, err = cfg.SelectVault("a/b")
	assert.ErrorIs(t, err, kerrors.ErrInvalidName)
}

func TestResolve(t *testing.T) {
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)
	t.Setenv("XDG_RUNTIME_DIR", "")

	s, err := (&Config{LockTimeout: "250ms"}).Resolve("/etc/fmp.toml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(data, "fmp"), s.DataDir)
	assert.Equal(t, filepath.Join(data, "fmp", "vaults"), s.VaultDir)
	assert.Equal(t, filepath.Join(data, "fmp", "work"), s.WorkDir)
	assert.Equal(t, filepath.Join(data, "fmp", "audit.jsonl"), s.AuditPath)
	assert.Equal(t, 250*time.Millisecond, s.LockTimeout)
	assert.True(t, s.Verify)

	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	s, err = (&Config{DataDir: "/srv/fmp", SkipVerify: true}).Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/fmp", s.DataDir)
	assert.Equal(t, filepath.Join(runtimeDir, "fmp"), s.WorkDir)
	assert.False(t, s.Verify)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("FMP_CONFIG", "/tmp/custom.toml")
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.toml", path)
}
