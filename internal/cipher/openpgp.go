package cipher

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"

	"golang.org/x/crypto/openpgp"        //nolint:staticcheck
	"golang.org/x/crypto/openpgp/packet" //nolint:staticcheck

	// Keys without a preferred-hash list fall back to RIPEMD160.
	_ "golang.org/x/crypto/ripemd160" //nolint:staticcheck
)

// OpenPGP encrypts in-process against a keyring file, for hosts without a
// gpg binary. The keyring may be armored or binary and must contain the
// recipient's public key; decryption also needs the private key.
//
// Encrypt reuses the keyring parsed on first use. Decrypt parses the file
// again on every call so an unlocked private key never outlives the call
// and every decryption checks the passphrase.
type OpenPGP struct {
	KeyringFile string

	once    sync.Once
	entries openpgp.EntityList
	loadErr error
}

// NewOpenPGPFromKeyring builds a backend around an already parsed keyring.
func NewOpenPGPFromKeyring(entries openpgp.EntityList) *OpenPGP {
	o := &OpenPGP{entries: entries}
	o.once.Do(func() {})
	return o
}

func (o *OpenPGP) keyring() (openpgp.EntityList, error) {
	o.once.Do(func() {
		o.entries, o.loadErr = loadKeyring(o.KeyringFile)
	})
	return o.entries, o.loadErr
}

func loadKeyring(path string) (openpgp.EntityList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading keyring %s: %w", kerrors.ErrIO, path, err)
	}
	if entries, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data)); err == nil {
		return entries, nil
	}
	entries, err := openpgp.ReadKeyRing(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing keyring %s: %v", kerrors.ErrIO, path, err)
	}
	return entries, nil
}

// privateKeyring returns a freshly parsed keyring for one decryption. A
// keyring supplied through NewOpenPGPFromKeyring is used as is.
func (o *OpenPGP) privateKeyring() (openpgp.EntityList, error) {
	if o.KeyringFile == "" {
		return o.keyring()
	}
	return loadKeyring(o.KeyringFile)
}

// findEntity matches recipient against e-mail, user id name, full user id,
// fingerprint or key id (with or without a 0x prefix).
func findEntity(entries openpgp.EntityList, recipient string) *openpgp.Entity {
	want := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(recipient), "0x"), "0X")
	for _, e := range entries {
		for name, id := range e.Identities {
			if strings.EqualFold(id.UserId.Email, want) || id.UserId.Name == want || name == want {
				return e
			}
		}
		if e.PrimaryKey == nil {
			continue
		}
		if strings.EqualFold(hex.EncodeToString(e.PrimaryKey.Fingerprint[:]), want) ||
			strings.EqualFold(e.PrimaryKey.KeyIdString(), want) ||
			strings.EqualFold(e.PrimaryKey.KeyIdShortString(), want) {
			return e
		}
	}
	return nil
}

// Encrypt encrypts plaintext to the recipient's public key.
func (o *OpenPGP) Encrypt(ctx context.Context, plaintext *securemem.Secret, recipient string) ([]byte, error) {
	entries, err := o.keyring()
	if err != nil {
		return nil, err
	}
	entity := findEntity(entries, recipient)
	if entity == nil {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrRecipientNotFound, recipient)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	w, err := openpgp.Encrypt(&out, []*openpgp.Entity{entity}, nil, &openpgp.FileHints{IsBinary: true}, &packet.Config{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrEncryption, err)
	}
	err = plaintext.Use(func(b []byte) error {
		_, err := w.Write(b)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrEncryption, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrEncryption, err)
	}
	return out.Bytes(), nil
}

var errBadPassphrase = errors.New("private key passphrase is incorrect or missing")

// Decrypt decrypts the file at ciphertextPath with whichever private key in
// the keyring the message was encrypted to.
func (o *OpenPGP) Decrypt(ctx context.Context, ciphertextPath, recipient string, passphrase *securemem.Secret) (*securemem.Secret, error) {
	entries, err := o.privateKeyring()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(ciphertextPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", kerrors.ErrIO, ciphertextPath, err)
	}
	defer f.Close()

	attempted := false
	prompt := func(keys []openpgp.Key, symmetric bool) ([]byte, error) {
		if symmetric || attempted || passphrase == nil {
			return nil, errBadPassphrase
		}
		attempted = true
		for _, k := range keys {
			if k.PrivateKey == nil || !k.PrivateKey.Encrypted {
				continue
			}
			_ = passphrase.Use(func(p []byte) error {
				return k.PrivateKey.Decrypt(p)
			})
		}
		return nil, nil
	}

	md, err := openpgp.ReadMessage(f, entries, prompt, &packet.Config{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrDecryption, err)
	}

	out := securemem.NewBuffer(4096)
	copyBuf := make([]byte, 32*1024)
	defer securemem.Wipe(copyBuf)

	if _, err := io.CopyBuffer(out, &ctxReader{ctx: ctx, r: md.UnverifiedBody}, copyBuf); err != nil {
		out.Reset()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrDecryption, err)
	}
	return out.Seal(), nil
}

// ctxReader stops a long copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
