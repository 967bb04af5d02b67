package twofactor

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/PolarWolf314/fmp/internal/archive"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/utils"
)

// LedgerName is the file name of a ledger inside its directory.
const LedgerName = "totp_ledger"

// ledger is a sorted list of vault names, one per line.
type ledger string

func (l ledger) read() ([]string, error) {
	data, err := os.ReadFile(string(l))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", kerrors.ErrIO, l, err)
	}

	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (l ledger) contains(name string) (bool, error) {
	names, err := l.read()
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

// update rewrites the ledger with fn applied to its names. An empty ledger
// is removed.
func (l ledger) update(fn func(names []string) []string) error {
	names, err := l.read()
	if err != nil {
		return err
	}
	names = fn(names)
	slices.Sort(names)
	names = slices.Compact(names)

	if len(names) == 0 {
		if err := os.Remove(string(l)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: removing %s: %w", kerrors.ErrIO, l, err)
		}
		return nil
	}
	if err := utils.EnsurePrivateDir(filepath.Dir(string(l))); err != nil {
		return err
	}
	return archive.WriteFileAtomic(string(l), []byte(strings.Join(names, "\n")+"\n"), 0600)
}

func (l ledger) add(name string) error {
	return l.update(func(names []string) []string { return append(names, name) })
}

func (l ledger) remove(name string) error {
	return l.update(func(names []string) []string {
		return slices.DeleteFunc(names, func(n string) bool { return n == name })
	})
}
