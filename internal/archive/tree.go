package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/utils"
)

const (
	// IndexFile lists account names, one per line, at the root of the tree.
	IndexFile = utils.ReservedAccountName

	// RecordFile holds one account's record inside <tree>/<account>/.
	RecordFile = "data"
)

// RecordPath returns the record file for account inside dir.
func RecordPath(dir, account string) string {
	return filepath.Join(dir, account, RecordFile)
}

// ReadIndex parses the account index of the tree at dir.
func ReadIndex(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: missing account index", kerrors.ErrCorruptArchive)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading account index: %w", kerrors.ErrIO, err)
	}
	return ParseIndex(data)
}

// ParseIndex parses index contents. Blank lines are ignored; duplicate or
// invalid names make the whole index corrupt.
func ParseIndex(data []byte) ([]string, error) {
	names := []string{}
	seen := make(map[string]bool)

	for _, line := range strings.Split(string(data), "\n") {
		name := strings.TrimSuffix(line, "\r")
		if name == "" {
			continue
		}
		if err := utils.ValidateAccountName(name); err != nil {
			return nil, fmt.Errorf("%w: index entry %q: %v", kerrors.ErrCorruptArchive, name, err)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate index entry %q", kerrors.ErrCorruptArchive, name)
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// WriteIndex atomically replaces the account index of the tree at dir.
func WriteIndex(dir string, names []string) error {
	var buf bytes.Buffer
	for _, name := range names {
		buf.WriteString(name)
		buf.WriteByte('\n')
	}
	return WriteFileAtomic(filepath.Join(dir, IndexFile), buf.Bytes(), 0600)
}

// Validate checks the structure of an expanded tree: the index exists and
// parses, and every indexed account has a regular record file. Decoding the
// records themselves is left to the account store.
func Validate(dir string) error {
	names, err := ReadIndex(dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		info, err := os.Lstat(RecordPath(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: account %q has no record", kerrors.ErrCorruptArchive, name)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", kerrors.ErrIO, err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%w: record for %q is not a regular file", kerrors.ErrCorruptArchive, name)
		}
	}
	return nil
}
