package cipher

//go:generate mockgen -source=cipher.go -destination=../mock/cipher_mock.go -package=mock

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/fmp/internal/securemem"
)

// Cipher encrypts vault bundles to a recipient public key and decrypts
// them again.
type Cipher interface {
	// Encrypt returns plaintext encrypted to recipient.
	Encrypt(ctx context.Context, plaintext *securemem.Secret, recipient string) ([]byte, error)

	// Decrypt decrypts the file at ciphertextPath. passphrase unlocks the
	// private key and may be nil when an agent supplies it.
	Decrypt(ctx context.Context, ciphertextPath, recipient string, passphrase *securemem.Secret) (*securemem.Secret, error)
}

// Backend names accepted by New.
const (
	BackendGPG     = "gpg"
	BackendOpenPGP = "openpgp"
)

// Options configures New.
type Options struct {
	// GPGBinary is the gpg executable for the gpg backend.
	GPGBinary string

	// GPGHome overrides GNUPGHOME for the gpg backend.
	GPGHome string

	// KeyringFile is the armored keyring for the openpgp backend.
	KeyringFile string
}

// New returns the Cipher for backend.
func New(backend string, opts Options) (Cipher, error) {
	switch backend {
	case "", BackendGPG:
		return &GPG{Binary: opts.GPGBinary, Home: opts.GPGHome}, nil
	case BackendOpenPGP:
		if opts.KeyringFile == "" {
			return nil, fmt.Errorf("backend %q requires keyring_file", backend)
		}
		return &OpenPGP{KeyringFile: opts.KeyringFile}, nil
	default:
		return nil, fmt.Errorf("unknown encryption backend %q", backend)
	}
}
