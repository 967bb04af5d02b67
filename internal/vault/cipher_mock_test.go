package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/fmp/internal/archive"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/mock"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// emptyBundle returns the bundle of a tree with no accounts.
func emptyBundle(t *testing.T) []byte {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, archive.WriteIndex(dir, nil))
	bundle, err := archive.Bundle(context.Background(), dir)
	require.NoError(t, err)
	defer bundle.Destroy()

	var out []byte
	require.NoError(t, bundle.Use(func(b []byte) error {
		out = append([]byte(nil), b...)
		return nil
	}))
	return out
}

func newMockManager(t *testing.T, cfg Config) (*Manager, *mock.MockCipher, Vault) {
	t.Helper()
	ctrl := gomock.NewController(t)
	c := mock.NewMockCipher(ctrl)

	root := t.TempDir()
	cfg.VaultDir = filepath.Join(root, "vaults")
	cfg.WorkDir = filepath.Join(root, "work")
	m, err := NewManager(cfg, c, quietLogger())
	require.NoError(t, err)

	v, err := m.Ref("personal", "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(v.Path, []byte("ciphertext v1"), 0600))
	return m, c, v
}

func TestOpenWrapsUnclassifiedDecryptError(t *testing.T) {
	m, c, v := newMockManager(t, Config{})

	c.EXPECT().
		Decrypt(gomock.Any(), v.Path, v.Recipient, gomock.Nil()).
		Return(nil, errors.New("agent exploded"))

	_, err := m.Open(context.Background(), v, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrDecryption)
	assert.NoDirExists(t, m.sessionRoot(v))

	// The lock was released with the failure.
	l, err := m.lock(context.Background(), v)
	require.NoError(t, err)
	require.NoError(t, l.release())
}

func TestCommitVerificationMismatch(t *testing.T) {
	m, c, v := newMockManager(t, Config{VerifyCommit: true})
	bundle := emptyBundle(t)

	gomock.InOrder(
		c.EXPECT().
			Decrypt(gomock.Any(), v.Path, v.Recipient, gomock.Any()).
			DoAndReturn(func(context.Context, string, string, *securemem.Secret) (*securemem.Secret, error) {
				return securemem.New(append([]byte(nil), bundle...)), nil
			}),
		c.EXPECT().
			Encrypt(gomock.Any(), gomock.Any(), v.Recipient).
			Return([]byte("ciphertext v2"), nil),
		c.EXPECT().
			Decrypt(gomock.Any(), gomock.Not(v.Path), v.Recipient, gomock.Any()).
			Return(securemem.New([]byte("something else")), nil),
	)

	s, err := m.Open(context.Background(), v, nil)
	require.NoError(t, err)

	_, err = s.Commit(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrEncryption)

	data, err := os.ReadFile(v.Path)
	require.NoError(t, err)
	assert.Equal(t, "ciphertext v1", string(data))
	assertNoStagedFiles(t, m)
	assert.NoDirExists(t, m.sessionRoot(v))
}

func TestCommitVerifiesStagedFile(t *testing.T) {
	m, c, v := newMockManager(t, Config{VerifyCommit: true})
	bundle := emptyBundle(t)
	pass := securemem.New([]byte("passphrase"))
	defer pass.Destroy()

	decryptBundle := func(context.Context, string, string, *securemem.Secret) (*securemem.Secret, error) {
		return securemem.New(append([]byte(nil), bundle...)), nil
	}

	c.EXPECT().Decrypt(gomock.Any(), v.Path, v.Recipient, pass).DoAndReturn(decryptBundle)
	c.EXPECT().Encrypt(gomock.Any(), gomock.Any(), v.Recipient).Return([]byte("ciphertext v2"), nil)
	// Verification decrypts the staged copy, not the live vault.
	c.EXPECT().
		Decrypt(gomock.Any(), gomock.Not(v.Path), v.Recipient, gomock.Any()).
		DoAndReturn(decryptBundle)

	s, err := m.Open(context.Background(), v, pass)
	require.NoError(t, err)

	res, err := s.Commit(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Verified)

	data, err := os.ReadFile(v.Path)
	require.NoError(t, err)
	assert.Equal(t, "ciphertext v2", string(data))
	assert.False(t, pass.Destroyed(), "caller's passphrase must survive the session")
}

func TestCommitEncryptionFailure(t *testing.T) {
	m, c, v := newMockManager(t, Config{})
	bundle := emptyBundle(t)

	c.EXPECT().
		Decrypt(gomock.Any(), v.Path, v.Recipient, gomock.Nil()).
		Return(securemem.New(append([]byte(nil), bundle...)), nil)
	c.EXPECT().
		Encrypt(gomock.Any(), gomock.Any(), v.Recipient).
		Return(nil, errors.New("disk full"))

	s, err := m.Open(context.Background(), v, nil)
	require.NoError(t, err)

	_, err = s.Commit(context.Background())
	assert.ErrorIs(t, err, kerrors.ErrEncryption)

	data, err := os.ReadFile(v.Path)
	require.NoError(t, err)
	assert.Equal(t, "ciphertext v1", string(data))
	assert.True(t, s.Closed())
}
