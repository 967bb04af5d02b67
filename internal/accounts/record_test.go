package accounts

import (
	"errors"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
)

func TestRecordEncoding(t *testing.T) {
	data, err := encodeRecord(`quote"user`, []byte("p@ss\x00word"))
	if err != nil {
		t.Fatalf("encodeRecord failed: %v", err)
	}
	if strings.Contains(string(data), "p@ss") {
		t.Errorf("password appears unencoded in %q", data)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		t.Fatalf("decodeRecord failed: %v", err)
	}
	defer rec.Destroy()

	if rec.Username != `quote"user` {
		t.Errorf("unexpected username %q", rec.Username)
	}
	assertPassword(t, rec, "p@ss\x00word")
}

func TestDecodeRecordErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"NotJSON", "garbage"},
		{"MissingUsername", `{"password":"cHc="}`},
		{"MissingPassword", `{"username":"u"}`},
		{"PasswordNotString", `{"username":"u","password":12}`},
		{"PasswordNotBase64", `{"username":"u","password":"!!!"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeRecord([]byte(tc.input))
			if !errors.Is(err, kerrors.ErrCorruptArchive) {
				t.Errorf("expected ErrCorruptArchive, got %v", err)
			}
		})
	}
}

func TestEmptyPassword(t *testing.T) {
	data, _ := encodeRecord("u", nil)
	rec, err := decodeRecord(data)
	if err != nil {
		t.Fatalf("decodeRecord failed: %v", err)
	}
	defer rec.Destroy()
	if rec.Password.Len() != 0 {
		t.Errorf("expected empty password, got length %d", rec.Password.Len())
	}
}
