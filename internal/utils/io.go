package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/PolarWolf314/fmp/internal/securemem"
)

// ReadSecretStdin reads a secret piped on stdin. A single trailing newline
// is dropped so `echo pw | fmp add` stores "pw".
// Returns an error if stdin is a terminal or empty.
func ReadSecretStdin() (*securemem.Secret, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat stdin: %w", err)
	}

	// If ModeCharDevice is set, stdin is connected to a terminal.
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return nil, fmt.Errorf("no data provided on stdin")
	}

	return ReadSecretFrom(os.Stdin)
}

// ReadSecretFrom drains r into a wiping buffer and seals it.
func ReadSecretFrom(r io.Reader) (*securemem.Secret, error) {
	buf := securemem.NewBuffer(64)
	chunk := make([]byte, 512)
	defer securemem.Wipe(chunk)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			_, _ = buf.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			buf.Reset()
			return nil, fmt.Errorf("failed to read secret: %w", err)
		}
	}

	s := buf.Seal()
	trimmed, err := trimNewline(s)
	s.Destroy()
	if err != nil {
		return nil, err
	}
	if trimmed.Len() == 0 {
		trimmed.Destroy()
		return nil, fmt.Errorf("stdin is empty")
	}
	return trimmed, nil
}

func trimNewline(s *securemem.Secret) (*securemem.Secret, error) {
	var out *securemem.Secret
	err := s.Use(func(b []byte) error {
		b = bytes.TrimSuffix(b, []byte("\n"))
		b = bytes.TrimSuffix(b, []byte("\r"))
		tmp := make([]byte, len(b))
		copy(tmp, b)
		out = securemem.New(tmp)
		return nil
	})
	return out, err
}
