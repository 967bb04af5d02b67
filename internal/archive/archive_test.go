package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"
)

// writeTree creates an account tree with the given index and record files.
func writeTree(t *testing.T, index string, records map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, IndexFile), []byte(index), 0600); err != nil {
		t.Fatalf("writing index: %v", err)
	}
	for name, content := range records {
		if err := os.MkdirAll(filepath.Join(dir, name), 0700); err != nil {
			t.Fatalf("creating record dir: %v", err)
		}
		if err := os.WriteFile(RecordPath(dir, name), []byte(content), 0600); err != nil {
			t.Fatalf("writing record: %v", err)
		}
	}
	return dir
}

// rawBundle builds a tar.gz bundle from explicit headers.
func rawBundle(t *testing.T, entries []tar.Header, bodies []string) *securemem.Secret {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for i, h := range entries {
		h := h
		h.Size = int64(len(bodies[i]))
		if err := tw.WriteHeader(&h); err != nil {
			t.Fatalf("WriteHeader failed: %v", err)
		}
		if _, err := tw.Write([]byte(bodies[i])); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	_ = tw.Close()
	_ = gz.Close()
	return securemem.New(buf.Bytes())
}

func TestBundleExpandRoundTrip(t *testing.T) {
	src := writeTree(t, "github\nemail\n", map[string]string{
		"github": `{"username":"octo","password":"aHVudGVyMg=="}`,
		"email":  `{"username":"me","password":"cHc="}`,
	})

	bundle, err := Bundle(context.Background(), src)
	if err != nil {
		t.Fatalf("Bundle failed: %v", err)
	}
	defer bundle.Destroy()

	dst := filepath.Join(t.TempDir(), "tree")
	if err := Expand(context.Background(), bundle, dst); err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	for _, rel := range []string{IndexFile, "github/data", "email/data"} {
		want, _ := os.ReadFile(filepath.Join(src, rel))
		got, err := os.ReadFile(filepath.Join(dst, rel))
		if err != nil {
			t.Fatalf("reading %s: %v", rel, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("%s differs after round trip: got %q, want %q", rel, got, want)
		}
	}

	if err := Validate(dst); err != nil {
		t.Errorf("Validate failed on round-tripped tree: %v", err)
	}
}

func TestExpandPermissions(t *testing.T) {
	src := writeTree(t, "github\n", map[string]string{"github": "{}"})
	bundle, err := Bundle(context.Background(), src)
	if err != nil {
		t.Fatalf("Bundle failed: %v", err)
	}
	defer bundle.Destroy()

	dst := filepath.Join(t.TempDir(), "tree")
	if err := Expand(context.Background(), bundle, dst); err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	checks := map[string]os.FileMode{
		dst:                           0700,
		filepath.Join(dst, "github"):  0700,
		filepath.Join(dst, IndexFile): 0600,
		RecordPath(dst, "github"):     0600,
	}
	for p, want := range checks {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("Stat(%s) failed: %v", p, err)
		}
		if info.Mode().Perm() != want {
			t.Errorf("%s has mode %o, expected %o", p, info.Mode().Perm(), want)
		}
	}
}

func TestExpandRejectsUnsafeEntries(t *testing.T) {
	tests := []struct {
		name   string
		header tar.Header
	}{
		{"ParentTraversal", tar.Header{Name: "../escape", Typeflag: tar.TypeReg, Mode: 0600}},
		{"NestedTraversal", tar.Header{Name: "a/../../escape", Typeflag: tar.TypeReg, Mode: 0600}},
		{"Absolute", tar.Header{Name: "/etc/passwd", Typeflag: tar.TypeReg, Mode: 0600}},
		{"Symlink", tar.Header{Name: "link", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bundle := rawBundle(t, []tar.Header{tc.header}, []string{""})
			defer bundle.Destroy()

			err := Expand(context.Background(), bundle, filepath.Join(t.TempDir(), "tree"))
			if !errors.Is(err, kerrors.ErrCorruptArchive) {
				t.Errorf("expected ErrCorruptArchive, got %v", err)
			}
		})
	}
}

func TestExpandRejectsGarbage(t *testing.T) {
	bundle := securemem.New([]byte("definitely not gzip"))
	defer bundle.Destroy()

	err := Expand(context.Background(), bundle, filepath.Join(t.TempDir(), "tree"))
	if !errors.Is(err, kerrors.ErrCorruptArchive) {
		t.Errorf("expected ErrCorruptArchive, got %v", err)
	}
}

func TestExpandHonorsCancellation(t *testing.T) {
	src := writeTree(t, "github\n", map[string]string{"github": "{}"})
	bundle, err := Bundle(context.Background(), src)
	if err != nil {
		t.Fatalf("Bundle failed: %v", err)
	}
	defer bundle.Destroy()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Expand(ctx, bundle, filepath.Join(t.TempDir(), "tree")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Run("MissingIndex", func(t *testing.T) {
		if err := Validate(t.TempDir()); !errors.Is(err, kerrors.ErrCorruptArchive) {
			t.Errorf("expected ErrCorruptArchive, got %v", err)
		}
	})

	t.Run("EmptyIndexIsValid", func(t *testing.T) {
		dir := writeTree(t, "", nil)
		if err := Validate(dir); err != nil {
			t.Errorf("expected empty vault to be valid, got %v", err)
		}
	})

	t.Run("IndexedAccountWithoutRecord", func(t *testing.T) {
		dir := writeTree(t, "github\n", nil)
		if err := Validate(dir); !errors.Is(err, kerrors.ErrCorruptArchive) {
			t.Errorf("expected ErrCorruptArchive, got %v", err)
		}
	})

	t.Run("DuplicateEntry", func(t *testing.T) {
		dir := writeTree(t, "github\ngithub\n", map[string]string{"github": "{}"})
		if err := Validate(dir); !errors.Is(err, kerrors.ErrCorruptArchive) {
			t.Errorf("expected ErrCorruptArchive, got %v", err)
		}
	})

	t.Run("StrayDirectoryIsIgnored", func(t *testing.T) {
		dir := writeTree(t, "github\n", map[string]string{"github": "{}", "orphan": "{}"})
		if err := Validate(dir); err != nil {
			t.Errorf("expected orphan record to be tolerated, got %v", err)
		}
	})
}

func TestParseIndexPreservesOrder(t *testing.T) {
	names, err := ParseIndex([]byte("zeta\r\nalpha\n\nmid\n"))
	if err != nil {
		t.Fatalf("ParseIndex failed: %v", err)
	}
	want := []string{"zeta", "alpha", "mid"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}

func TestWriteIndexRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := WriteIndex(dir, []string{"b", "a"}); err != nil {
		t.Fatalf("WriteIndex failed: %v", err)
	}
	names, err := ReadIndex(dir)
	if err != nil {
		t.Fatalf("ReadIndex failed: %v", err)
	}
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("unexpected index %v", names)
	}
}
