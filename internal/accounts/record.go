package accounts

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"
)

// Record is one account's credentials. The caller owns Password and must
// Destroy the record when done.
type Record struct {
	Username string
	Password *securemem.Secret
}

// Destroy releases the password.
func (r *Record) Destroy() {
	if r != nil {
		r.Password.Destroy()
	}
}

// encodeRecord renders {"username":...,"password":"<base64>"}. The password
// is encoded straight into the output slice so it never becomes a Go string.
// The caller must wipe the result.
func encodeRecord(username string, password []byte) ([]byte, error) {
	name, err := json.Marshal(username)
	if err != nil {
		return nil, fmt.Errorf("encoding username: %w", err)
	}

	const head, mid, tail = `{"username":`, `,"password":"`, `"}`
	n := base64.StdEncoding.EncodedLen(len(password))
	out := make([]byte, 0, len(head)+len(name)+len(mid)+n+len(tail))
	out = append(out, head...)
	out = append(out, name...)
	out = append(out, mid...)
	start := len(out)
	out = out[:start+n]
	base64.StdEncoding.Encode(out[start:], password)
	out = append(out, tail...)
	return out, nil
}

// decodeRecord parses a record file.
func decodeRecord(data []byte) (*Record, error) {
	var raw struct {
		Username *string        `json:"username"`
		Password json.RawMessage `json:"password"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: undecodable record: %v", kerrors.ErrCorruptArchive, err)
	}
	defer securemem.Wipe(raw.Password)

	if raw.Username == nil || len(raw.Password) < 2 {
		return nil, fmt.Errorf("%w: record is missing username or password", kerrors.ErrCorruptArchive)
	}
	encoded := bytes.Trim(raw.Password, `"`)
	if len(encoded) != len(raw.Password)-2 {
		return nil, fmt.Errorf("%w: record password is not a string", kerrors.ErrCorruptArchive)
	}

	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(decoded, encoded)
	if err != nil {
		securemem.Wipe(decoded)
		return nil, fmt.Errorf("%w: record password is not base64", kerrors.ErrCorruptArchive)
	}
	password := securemem.New(decoded[:n])
	securemem.Wipe(decoded)

	return &Record{Username: *raw.Username, Password: password}, nil
}
