package twofactor

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/PolarWolf314/fmp/internal/archive"
	"github.com/PolarWolf314/fmp/internal/cipher"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	logger "github.com/PolarWolf314/fmp/internal/logging"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/utils"
	"github.com/PolarWolf314/fmp/internal/vault"
)

const (
	// Issuer labels enrolled keys in authenticator apps.
	Issuer = "fmp"

	// SecretExt replaces vault.Ext to form the sealed secret path.
	SecretExt = ".totp.gpg"

	period     = 30
	secretSize = 20
	skew       = 1
)

var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Enrollment is what a user needs to add the vault to an authenticator.
type Enrollment struct {
	Vault  string
	Secret string
	URL    string
}

// Store seals per-vault TOTP secrets and keeps the ledgers of vaults that
// require a code.
type Store struct {
	cipher  cipher.Cipher
	log     logger.Logger
	ledgers []ledger
	now     func() time.Time
}

// New returns a Store keeping its ledgers at the given paths.
func New(c cipher.Cipher, log logger.Logger, ledgerPaths ...string) *Store {
	s := &Store{cipher: c, log: log, now: time.Now}
	for _, p := range ledgerPaths {
		s.ledgers = append(s.ledgers, ledger(p))
	}
	return s
}

// SecretPath returns where the sealed secret of v lives.
func SecretPath(v vault.Vault) string {
	return strings.TrimSuffix(v.Path, vault.Ext) + SecretExt
}

// Required reports whether v needs a code. A sealed secret missing from
// the ledgers is added back to them.
func (s *Store) Required(v vault.Vault) (bool, error) {
	for _, l := range s.ledgers {
		ok, err := l.contains(v.Name)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	ok, err := utils.FileExists(SecretPath(v))
	if err != nil || !ok {
		return false, err
	}
	s.log.Debugf("Found two-factor secret for unlisted vault %s", v.Name)
	if err := s.record(v.Name); err != nil {
		return false, err
	}
	return true, nil
}

// Enable generates a secret for v, seals it to the vault recipient and
// records v in the ledgers.
func (s *Store) Enable(ctx context.Context, v vault.Vault) (*Enrollment, error) {
	ok, err := utils.FileExists(v.Path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w %q", kerrors.ErrVaultNotFound, v.Name)
	}
	if v.Recipient == "" {
		return nil, fmt.Errorf("%w for vault %q", kerrors.ErrNoRecipient, v.Name)
	}
	required, err := s.Required(v)
	if err != nil {
		return nil, err
	}
	if required {
		return nil, fmt.Errorf("%w for vault %q", kerrors.ErrTOTPEnabled, v.Name)
	}

	raw := make([]byte, secretSize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: v.Name,
		Period:      period,
		Secret:      raw,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		securemem.Wipe(raw)
		return nil, fmt.Errorf("failed to build key: %w", err)
	}

	secret := securemem.New(raw)
	defer secret.Destroy()
	if err := s.seal(ctx, v, secret, v.Recipient); err != nil {
		return nil, err
	}
	if err := s.record(v.Name); err != nil {
		return nil, err
	}

	s.log.Debugf("Enabled two-factor for %s", v.Name)
	return &Enrollment{Vault: v.Name, Secret: key.Secret(), URL: key.URL()}, nil
}

// Disable removes the sealed secret and ledger entries of v. The caller
// checks a code first.
func (s *Store) Disable(v vault.Vault) error {
	required, err := s.Required(v)
	if err != nil {
		return err
	}
	if !required {
		return fmt.Errorf("%w for vault %q", kerrors.ErrTOTPNotEnabled, v.Name)
	}
	return s.Forget(v)
}

// Forget drops everything two-factor knows about v. It is a no-op for a
// vault without a code.
func (s *Store) Forget(v vault.Vault) error {
	if err := removeIfExists(SecretPath(v)); err != nil {
		return err
	}
	for _, l := range s.ledgers {
		if err := l.remove(v.Name); err != nil {
			return err
		}
	}
	return nil
}

// Rename moves the sealed secret and ledger entries of v to target.
func (s *Store) Rename(v, target vault.Vault) error {
	required, err := s.Required(v)
	if err != nil || !required {
		return err
	}

	src, dst := SecretPath(v), SecretPath(target)
	if err := os.Rename(src, dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: moving %s: %w", kerrors.ErrIO, src, err)
	}
	for _, l := range s.ledgers {
		listed, err := l.contains(v.Name)
		if err != nil {
			return err
		}
		if !listed {
			continue
		}
		if err := l.update(func(names []string) []string {
			for i, n := range names {
				if n == v.Name {
					names[i] = target.Name
				}
			}
			return names
		}); err != nil {
			return err
		}
	}
	return nil
}

// Reseal re-encrypts the secret of v to recipient. passphrase unlocks the
// current recipient key.
func (s *Store) Reseal(ctx context.Context, v vault.Vault, recipient string, passphrase *securemem.Secret) error {
	ok, err := utils.FileExists(SecretPath(v))
	if err != nil || !ok {
		return err
	}
	secret, err := s.open(ctx, v, passphrase)
	if err != nil {
		return err
	}
	defer secret.Destroy()
	return s.seal(ctx, v, secret, recipient)
}

// Verify checks code against the secret of v. Whitespace in code is
// ignored; anything but 6 to 8 ASCII digits fails with ErrInvalidCode.
func (s *Store) Verify(ctx context.Context, v vault.Vault, code string, passphrase *securemem.Secret) error {
	code = normalize(code)
	if !wellFormed(code) {
		return fmt.Errorf("%w for vault %q", kerrors.ErrInvalidCode, v.Name)
	}

	ok, err := utils.FileExists(SecretPath(v))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w for vault %q", kerrors.ErrTOTPSecretNotFound, v.Name)
	}

	secret, err := s.open(ctx, v, passphrase)
	if err != nil {
		return err
	}
	defer secret.Destroy()

	var valid bool
	err = secret.Use(func(b []byte) error {
		var err error
		valid, err = totp.ValidateCustom(code, b32NoPadding.EncodeToString(b), s.now(), totp.ValidateOpts{
			Period:    period,
			Skew:      skew,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("%w for vault %q: %w", kerrors.ErrInvalidCode, v.Name, err)
	}
	if !valid {
		return fmt.Errorf("%w for vault %q", kerrors.ErrInvalidCode, v.Name)
	}
	s.log.Debugf("Accepted one-time code for %s", v.Name)
	return nil
}

func (s *Store) open(ctx context.Context, v vault.Vault, passphrase *securemem.Secret) (*securemem.Secret, error) {
	secret, err := s.cipher.Decrypt(ctx, SecretPath(v), v.Recipient, passphrase)
	if err != nil {
		return nil, classify(kerrors.ErrDecryption, err)
	}
	return secret, nil
}

func (s *Store) seal(ctx context.Context, v vault.Vault, secret *securemem.Secret, recipient string) error {
	ciphertext, err := s.cipher.Encrypt(ctx, secret, recipient)
	if err != nil {
		return classify(kerrors.ErrEncryption, err)
	}
	return archive.WriteFileAtomic(SecretPath(v), ciphertext, 0600)
}

func (s *Store) record(name string) error {
	for _, l := range s.ledgers {
		if err := l.add(name); err != nil {
			return err
		}
	}
	return nil
}

func normalize(code string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, code)
}

func wellFormed(code string) bool {
	if len(code) < 6 || len(code) > 8 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

func classify(class, err error) error {
	if kerrors.Classify(err) {
		return err
	}
	return fmt.Errorf("%w: %w", class, err)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: removing %s: %w", kerrors.ErrIO, path, err)
	}
	return nil
}
