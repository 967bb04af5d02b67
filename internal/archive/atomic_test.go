package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "vault.tar.gz.gpg")

	if err := WriteFileAtomic(target, []byte("first"), 0600); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if err := WriteFileAtomic(target, []byte("second"), 0600); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("expected second write to win, got %q", got)
	}

	info, _ := os.Stat(target)
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected no leftover temp files, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "vault")
	if err := os.WriteFile(target, []byte("original"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// A directory cannot be replaced by a file rename.
	blocked := filepath.Join(dir, "blocked")
	if err := os.MkdirAll(filepath.Join(blocked, "child"), 0700); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := WriteFileAtomic(blocked, []byte("new"), 0600); err == nil {
		t.Fatal("expected rename over a non-empty directory to fail")
	}

	got, _ := os.ReadFile(target)
	if string(got) != "original" {
		t.Errorf("unrelated file changed: %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("expected temp file to be cleaned up, found %d entries", len(entries))
	}
}

func TestCopyFileAtomic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "vault")
	dst := filepath.Join(dir, "vault.bak")
	payload := []byte{0x85, 0x01, 0x0c, 0x03, 0xff}

	if err := os.WriteFile(src, payload, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := CopyFileAtomic(src, dst); err != nil {
		t.Fatalf("CopyFileAtomic failed: %v", err)
	}

	got, _ := os.ReadFile(dst)
	if !bytes.Equal(got, payload) {
		t.Errorf("copy is not byte-identical")
	}
	info, _ := os.Stat(dst)
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected backup mode 0600, got %o", info.Mode().Perm())
	}
}

func TestPurge(t *testing.T) {
	dir := writeTree(t, "github\n", map[string]string{"github": "secret record"})

	report, err := Purge(dir)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if report.Overwritten != 2 {
		t.Errorf("expected 2 overwritten files, got %d", report.Overwritten)
	}
	if len(report.Warnings()) != 0 {
		t.Errorf("unexpected warnings: %v", report.Warnings())
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected tree to be gone, got %v", err)
	}

	report, err = Purge(dir)
	if err != nil || report.Overwritten != 0 {
		t.Errorf("expected purge of missing dir to be a no-op, got %v, %v", report, err)
	}
}

func TestOverwriteZeroesContents(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(p, []byte("hunter2hunter2"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := overwrite(p); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	got, _ := os.ReadFile(p)
	if !bytes.Equal(got, make([]byte, 14)) {
		t.Errorf("expected zeroed contents, got %q", got)
	}
}

func TestPurgeFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(p, []byte("x"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := PurgeFile(p); err != nil {
		t.Fatalf("PurgeFile failed: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("expected file to be removed")
	}
	if _, err := PurgeFile(p); err != nil {
		t.Errorf("expected missing file to be a no-op, got %v", err)
	}
}
