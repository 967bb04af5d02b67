package workflows

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/fmp/internal/configs"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	logger "github.com/PolarWolf314/fmp/internal/logging"
	"github.com/PolarWolf314/fmp/internal/securemem"
)

// fakeCipher "encrypts" by prefixing the recipient. When passphrase is set,
// Decrypt only succeeds with that passphrase.
type fakeCipher struct {
	keys       map[string]bool
	passphrase string
}

func (c *fakeCipher) Encrypt(_ context.Context, plaintext *securemem.Secret, recipient string) ([]byte, error) {
	if !c.keys[recipient] {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrRecipientNotFound, recipient)
	}
	out := []byte("FAKE " + recipient + "\n")
	err := plaintext.Use(func(b []byte) error {
		out = append(out, b...)
		return nil
	})
	return out, err
}

func (c *fakeCipher) Decrypt(_ context.Context, path, _ string, pass *securemem.Secret) (*securemem.Secret, error) {
	if c.passphrase != "" {
		ok := false
		_ = pass.Use(func(b []byte) error {
			ok = string(b) == c.passphrase
			return nil
		})
		if !ok {
			return nil, fmt.Errorf("%w: bad passphrase", kerrors.ErrDecryption)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	header, body, ok := bytes.Cut(data, []byte("\n"))
	if !ok || !bytes.HasPrefix(header, []byte("FAKE ")) {
		return nil, fmt.Errorf("%w: not a fake vault", kerrors.ErrDecryption)
	}
	return securemem.New(body), nil
}

type testEnv struct {
	*Env
	cipher *fakeCipher
}

// newTestEnv builds an Env rooted in a temp dir, with a config file on disk
// that already carries the data and work dirs.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(PassphraseEnv, "")

	root := t.TempDir()
	path := filepath.Join(root, "config", "config.toml")
	cfg := &configs.Config{
		DataDir: filepath.Join(root, "data"),
		WorkDir: filepath.Join(root, "work"),
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := configs.Load(path)
	require.NoError(t, err)

	c := &fakeCipher{keys: map[string]bool{"alice@example.com": true, "bob@example.com": true}}
	env, err := NewEnv(path, loaded, c, logger.Logger{Out: io.Discard, Err: io.Discard}, nil)
	require.NoError(t, err)
	return &testEnv{Env: env, cipher: c}
}

func (e *testEnv) createVault(t *testing.T, name, recipient string) {
	t.Helper()
	_, err := CreateVault(context.Background(), e.Env, CreateVaultOptions{Name: name, Recipient: recipient})
	require.NoError(t, err)
}

func (e *testEnv) reloadConfig(t *testing.T) *configs.Config {
	t.Helper()
	cfg, err := configs.LoadFile(e.ConfigPath)
	require.NoError(t, err)
	return cfg
}

func secret(s string) *securemem.Secret {
	return securemem.New([]byte(s))
}

func TestNewEnvResolvesPaths(t *testing.T) {
	e := newTestEnv(t)

	assert.Equal(t, filepath.Join(e.Config.DataDir, "vaults"), e.Settings.VaultDir)
	assert.Equal(t, filepath.Join(e.Config.DataDir, "audit.jsonl"), e.Audit.Path())
	assert.True(t, e.Settings.Verify)

	info, err := os.Stat(e.Settings.VaultDir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestVaultSelection(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.Vault("")
	assert.ErrorIs(t, err, kerrors.ErrNoVaultSelected)

	e.createVault(t, "personal", "alice@example.com")

	v, err := e.Vault("")
	require.NoError(t, err)
	assert.Equal(t, "personal", v.Name)
	assert.Equal(t, "alice@example.com", v.Recipient)

	_, err = e.Vault("../escape")
	assert.ErrorIs(t, err, kerrors.ErrInvalidName)
}

func TestPassphraseFromEnvironment(t *testing.T) {
	e := newTestEnv(t)
	t.Setenv(PassphraseEnv, "from-env")

	pass, err := e.Passphrase("alice@example.com")
	require.NoError(t, err)
	defer pass.Destroy()
	assert.True(t, pass.Equal(secret("from-env")))
}

func TestPassphrasePromptsForOpenPGP(t *testing.T) {
	e := newTestEnv(t)

	pass, err := e.Passphrase("alice@example.com")
	require.NoError(t, err)
	assert.Nil(t, pass, "gpg backend should leave prompting to the agent")

	var asked string
	e.Config.Backend = configs.BackendOpenPGP
	e.Prompt = func(prompt string) (*securemem.Secret, error) {
		asked = prompt
		return secret("typed"), nil
	}

	pass, err = e.Passphrase("alice@example.com")
	require.NoError(t, err)
	defer pass.Destroy()
	assert.Contains(t, asked, "alice@example.com")
	assert.True(t, pass.Equal(secret("typed")))
}
