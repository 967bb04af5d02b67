package cipher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"
)

// GPG shells out to the gpg binary. Keys, trust and the agent are whatever
// the user's GnuPG home provides.
type GPG struct {
	// Binary defaults to "gpg" on PATH.
	Binary string

	// Home is passed as --homedir when set.
	Home string
}

func (g *GPG) binary() string {
	if g.Binary != "" {
		return g.Binary
	}
	return "gpg"
}

func (g *GPG) baseArgs() []string {
	args := []string{"--batch", "--yes", "--quiet", "--no-tty"}
	if g.Home != "" {
		args = append(args, "--homedir", g.Home)
	}
	return args
}

// Encrypt runs gpg --encrypt with plaintext on stdin.
func (g *GPG) Encrypt(ctx context.Context, plaintext *securemem.Secret, recipient string) ([]byte, error) {
	args := append(g.baseArgs(),
		"--trust-model", "always",
		"--encrypt",
		"--recipient", recipient,
		"--output", "-",
	)

	cmd := exec.CommandContext(ctx, g.binary(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kerrors.ErrEncryption, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, startError(kerrors.ErrEncryption, g.binary(), err)
	}

	writeErr := plaintext.Use(func(b []byte) error {
		_, err := stdin.Write(b)
		return err
	})
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classify(kerrors.ErrEncryption, stderr.String(), err)
	}
	if writeErr != nil {
		return nil, fmt.Errorf("%w: writing plaintext to gpg: %w", kerrors.ErrEncryption, writeErr)
	}
	return stdout.Bytes(), nil
}

// Decrypt runs gpg --decrypt on ciphertextPath. A non-nil passphrase is fed
// through loopback pinentry on file descriptor 3 so it never appears in argv.
func (g *GPG) Decrypt(ctx context.Context, ciphertextPath, recipient string, passphrase *securemem.Secret) (*securemem.Secret, error) {
	args := g.baseArgs()
	if passphrase != nil {
		args = append(args, "--pinentry-mode", "loopback", "--passphrase-fd", "3")
	}
	args = append(args, "--decrypt", ciphertextPath)

	cmd := exec.CommandContext(ctx, g.binary(), args...)
	out := securemem.NewBuffer(4096)
	var stderr bytes.Buffer
	cmd.Stdout = out
	cmd.Stderr = &stderr

	var passWriter *os.File
	if passphrase != nil {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("%w: creating passphrase pipe: %w", kerrors.ErrDecryption, err)
		}
		cmd.ExtraFiles = []*os.File{r}
		passWriter = w
		defer r.Close()
		defer w.Close()
	}

	if err := cmd.Start(); err != nil {
		return nil, startError(kerrors.ErrDecryption, g.binary(), err)
	}

	if passWriter != nil {
		_ = cmd.ExtraFiles[0].Close()
		_ = passphrase.Use(func(b []byte) error {
			if _, err := passWriter.Write(b); err != nil {
				return err
			}
			_, err := io.WriteString(passWriter, "\n")
			return err
		})
		_ = passWriter.Close()
	}

	if err := cmd.Wait(); err != nil {
		out.Reset()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classify(kerrors.ErrDecryption, stderr.String(), err)
	}
	return out.Seal(), nil
}

func startError(class error, binary string, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s not found on PATH (install GnuPG or set gpg_binary)", class, binary)
	}
	return fmt.Errorf("%w: starting %s: %w", class, binary, err)
}

// classify maps gpg's stderr onto the error taxonomy. fallback is used when
// nothing more specific matches.
func classify(fallback error, stderr string, err error) error {
	lower := strings.ToLower(stderr)
	detail := firstLine(stderr)
	if detail == "" {
		detail = err.Error()
	}

	switch {
	case strings.Contains(lower, "no public key"),
		strings.Contains(lower, "unusable public key"),
		strings.Contains(lower, "skipped: no public key"):
		return fmt.Errorf("%w: %s", kerrors.ErrRecipientNotFound, detail)
	case strings.Contains(lower, "no secret key"),
		strings.Contains(lower, "bad passphrase"),
		strings.Contains(lower, "decryption failed"):
		return fmt.Errorf("%w: %s", kerrors.ErrDecryption, detail)
	case strings.Contains(lower, "no valid openpgp data"),
		strings.Contains(lower, "no such file"):
		return fmt.Errorf("%w: %s", kerrors.ErrDecryption, detail)
	}
	return fmt.Errorf("%w: %s", fallback, detail)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(s, "gpg: ")
}
