package twofactor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	logger "github.com/PolarWolf314/fmp/internal/logging"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/vault"
)

// fakeCipher "encrypts" by prefixing the recipient.
type fakeCipher struct {
	keys      map[string]bool
	decrypted int
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

func (c *fakeCipher) Decrypt(_ context.Context, path, _ string, _ *securemem.Secret) (*securemem.Secret, error) {
	c.decrypted++
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	_, body, ok := bytes.Cut(data, []byte("\n"))
	if !ok {
		return nil, fmt.Errorf("%w: not a fake file", kerrors.ErrDecryption)
	}
	return securemem.New(body), nil
}

var testTime = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

type fixture struct {
	store   *Store
	cipher  *fakeCipher
	vault   vault.Vault
	ledgers []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	vaultDir := filepath.Join(root, "vaults")
	require.NoError(t, os.MkdirAll(vaultDir, 0700))

	v := vault.Vault{
		Name:      "personal",
		Path:      filepath.Join(vaultDir, "personal"+vault.Ext),
		Recipient: "alice@example.com",
	}
	require.NoError(t, os.WriteFile(v.Path, []byte("FAKE alice@example.com\n"), 0600))

	ledgers := []string{
		filepath.Join(root, "data", LedgerName),
		filepath.Join(root, "config", LedgerName),
	}
	c := &fakeCipher{keys: map[string]bool{"alice@example.com": true, "bob@example.com": true}}
	s := New(c, logger.Logger{Out: io.Discard, Err: io.Discard}, ledgers...)
	s.now = func() time.Time { return testTime }
	return &fixture{store: s, cipher: c, vault: v, ledgers: ledgers}
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    period,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestEnableAndVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	enr, err := f.store.Enable(ctx, f.vault)
	require.NoError(t, err)
	assert.Equal(t, "personal", enr.Vault)
	assert.Len(t, enr.Secret, 32)
	assert.True(t, strings.HasPrefix(enr.URL, "otpauth://totp/fmp:personal?"), enr.URL)
	assert.Contains(t, enr.URL, "issuer=fmp")
	assert.Contains(t, enr.URL, "period=30")

	info, err := os.Stat(SecretPath(f.vault))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.Equal(t, filepath.Join(filepath.Dir(f.vault.Path), "personal.totp.gpg"), SecretPath(f.vault))
	for _, l := range f.ledgers {
		data, err := os.ReadFile(l)
		require.NoError(t, err)
		assert.Equal(t, "personal\n", string(data))
	}

	code := codeAt(t, enr.Secret, testTime)
	assert.NoError(t, f.store.Verify(ctx, f.vault, code, nil))
	assert.NoError(t, f.store.Verify(ctx, f.vault, code[:3]+" "+code[3:]+"\n", nil))
	assert.NoError(t, f.store.Verify(ctx, f.vault, codeAt(t, enr.Secret, testTime.Add(-period*time.Second)), nil))

	stale := codeAt(t, enr.Secret, testTime.Add(-3*period*time.Second))
	if stale != code {
		assert.ErrorIs(t, f.store.Verify(ctx, f.vault, stale, nil), kerrors.ErrInvalidCode)
	}

	_, err = f.store.Enable(ctx, f.vault)
	assert.ErrorIs(t, err, kerrors.ErrTOTPEnabled)
}

func TestVerifyRejectsMalformedCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Enable(ctx, f.vault)
	require.NoError(t, err)

	for _, code := range []string{"", "12345", "123456789", "12a456", "１２３４５６", "12345678"} {
		err := f.store.Verify(ctx, f.vault, code, nil)
		assert.ErrorIs(t, err, kerrors.ErrInvalidCode, "code %q", code)
		assert.Equal(t, kerrors.ExitUserInput, kerrors.ExitCode(err))
	}
	assert.Equal(t, 1, f.cipher.decrypted, "only the eight digit code reaches the secret")
}

func TestEnableRequiresVaultAndRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missing := f.vault
	missing.Name = "missing"
	missing.Path = filepath.Join(filepath.Dir(f.vault.Path), "missing"+vault.Ext)
	_, err := f.store.Enable(ctx, missing)
	assert.ErrorIs(t, err, kerrors.ErrVaultNotFound)

	noRecipient := f.vault
	noRecipient.Recipient = ""
	_, err = f.store.Enable(ctx, noRecipient)
	assert.ErrorIs(t, err, kerrors.ErrNoRecipient)

	unknown := f.vault
	unknown.Recipient = "carol@example.com"
	_, err = f.store.Enable(ctx, unknown)
	assert.ErrorIs(t, err, kerrors.ErrRecipientNotFound)
	assert.NoFileExists(t, SecretPath(f.vault))
	required, err := f.store.Required(f.vault)
	require.NoError(t, err)
	assert.False(t, required)
}

func TestRequiredFailsClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	enr, err := f.store.Enable(ctx, f.vault)
	require.NoError(t, err)

	require.NoError(t, os.Remove(SecretPath(f.vault)))
	required, err := f.store.Required(f.vault)
	require.NoError(t, err)
	assert.True(t, required, "a listed vault stays gated without its secret")
	err = f.store.Verify(ctx, f.vault, codeAt(t, enr.Secret, testTime), nil)
	assert.ErrorIs(t, err, kerrors.ErrTOTPSecretNotFound)
	assert.Equal(t, kerrors.ExitNotFound, kerrors.ExitCode(err))

	// A surviving secret puts the vault back in the ledgers.
	require.NoError(t, f.store.Forget(f.vault))
	_, err = f.store.Enable(ctx, f.vault)
	require.NoError(t, err)
	for _, l := range f.ledgers {
		require.NoError(t, os.Remove(l))
	}
	required, err = f.store.Required(f.vault)
	require.NoError(t, err)
	assert.True(t, required)
	for _, l := range f.ledgers {
		assert.FileExists(t, l)
	}
}

func TestDisableAndForget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.store.Disable(f.vault), kerrors.ErrTOTPNotEnabled)
	assert.NoError(t, f.store.Forget(f.vault))

	_, err := f.store.Enable(ctx, f.vault)
	require.NoError(t, err)
	require.NoError(t, f.store.Disable(f.vault))

	assert.NoFileExists(t, SecretPath(f.vault))
	for _, l := range f.ledgers {
		assert.NoFileExists(t, l)
	}
	required, err := f.store.Required(f.vault)
	require.NoError(t, err)
	assert.False(t, required)
}

func TestLedgerKeepsOtherVaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	work := f.vault
	work.Name = "work"
	work.Path = filepath.Join(filepath.Dir(f.vault.Path), "work"+vault.Ext)
	require.NoError(t, os.WriteFile(work.Path, []byte("FAKE alice@example.com\n"), 0600))

	_, err := f.store.Enable(ctx, work)
	require.NoError(t, err)
	_, err = f.store.Enable(ctx, f.vault)
	require.NoError(t, err)

	data, err := os.ReadFile(f.ledgers[0])
	require.NoError(t, err)
	assert.Equal(t, "personal\nwork\n", string(data))

	require.NoError(t, f.store.Disable(work))
	data, err = os.ReadFile(f.ledgers[1])
	require.NoError(t, err)
	assert.Equal(t, "personal\n", string(data))
}

func TestRenameMovesSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	enr, err := f.store.Enable(ctx, f.vault)
	require.NoError(t, err)

	target := f.vault
	target.Name = "archive"
	target.Path = filepath.Join(filepath.Dir(f.vault.Path), "archive"+vault.Ext)
	require.NoError(t, f.store.Rename(f.vault, target))

	assert.NoFileExists(t, SecretPath(f.vault))
	assert.FileExists(t, SecretPath(target))
	data, err := os.ReadFile(f.ledgers[0])
	require.NoError(t, err)
	assert.Equal(t, "archive\n", string(data))

	required, err := f.store.Required(f.vault)
	require.NoError(t, err)
	assert.False(t, required)
	assert.NoError(t, f.store.Verify(ctx, target, codeAt(t, enr.Secret, testTime), nil))

	// Renaming a vault without two-factor touches nothing.
	plain := f.vault
	plain.Name = "plain"
	assert.NoError(t, f.store.Rename(plain, f.vault))
	assert.NoFileExists(t, SecretPath(f.vault))
}

func TestResealChangesRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	enr, err := f.store.Enable(ctx, f.vault)
	require.NoError(t, err)

	require.NoError(t, f.store.Reseal(ctx, f.vault, "bob@example.com", nil))
	data, err := os.ReadFile(SecretPath(f.vault))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("FAKE bob@example.com\n")))
	assert.NoError(t, f.store.Verify(ctx, f.vault, codeAt(t, enr.Secret, testTime), nil))

	err = f.store.Reseal(ctx, f.vault, "carol@example.com", nil)
	assert.ErrorIs(t, err, kerrors.ErrRecipientNotFound)
	data, err = os.ReadFile(SecretPath(f.vault))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("FAKE bob@example.com\n")), "failed reseal kept the old secret")

	other := f.vault
	other.Name = "other"
	other.Path = filepath.Join(filepath.Dir(f.vault.Path), "other"+vault.Ext)
	assert.NoError(t, f.store.Reseal(ctx, other, "bob@example.com", nil))
	assert.NoFileExists(t, SecretPath(other))
}

func TestGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var asked []string
	g := &Guard{
		Store: f.store,
		Code: func(name string) (string, error) {
			asked = append(asked, name)
			return "000000", nil
		},
	}
	require.NoError(t, g.Check(ctx, f.vault, nil))
	assert.Empty(t, asked, "no code is asked for without two-factor")

	enr, err := f.store.Enable(ctx, f.vault)
	require.NoError(t, err)
	good := codeAt(t, enr.Secret, testTime)
	if good == "000000" {
		t.Skip("generated code collides with the wrong code")
	}
	assert.ErrorIs(t, g.Check(ctx, f.vault, nil), kerrors.ErrInvalidCode)
	assert.Equal(t, []string{"personal"}, asked)

	var passFor []string
	g.Code = func(string) (string, error) { return good, nil }
	g.Passphrase = func(recipient string) (*securemem.Secret, error) {
		passFor = append(passFor, recipient)
		return securemem.New([]byte("hunter2")), nil
	}
	require.NoError(t, g.Check(ctx, f.vault, nil))
	require.NoError(t, g.Check(ctx, f.vault, securemem.New([]byte("given"))))
	assert.Equal(t, []string{"alice@example.com"}, passFor, "a given passphrase is not looked up again")

	g.Code = nil
	err = g.Check(ctx, f.vault, nil)
	assert.ErrorIs(t, err, kerrors.ErrCodeRequired)
}
