package accounts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/PolarWolf314/fmp/internal/archive"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/utils"
)

// Store keeps the account index and the per-account records of one
// expanded tree consistent. The index is authoritative: an account exists
// if and only if it is indexed.
//
// Add writes the record before the index entry, and Remove drops the index
// entry before the record, so an interruption leaves at worst an orphan
// record directory that is never listed.
type Store struct {
	dir      string
	names    []string
	warnings []string
}

// Load reads the index of the tree at dir and checks that every indexed
// record decodes.
func Load(dir string) (*Store, error) {
	names, err := archive.ReadIndex(dir)
	if err != nil {
		return nil, err
	}

	s := &Store{dir: dir, names: names}
	for _, name := range names {
		rec, err := s.readRecord(name)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", name, err)
		}
		rec.Destroy()
	}
	return s, nil
}

// Dir returns the tree the store operates on.
func (s *Store) Dir() string {
	return s.dir
}

// List returns account names in insertion order.
func (s *Store) List() []string {
	return slices.Clone(s.names)
}

// Len returns the number of accounts.
func (s *Store) Len() int {
	return len(s.names)
}

// Has reports whether name is indexed.
func (s *Store) Has(name string) bool {
	return slices.Contains(s.names, name)
}

// Warnings returns cleanup problems from removals that otherwise succeeded.
func (s *Store) Warnings() []string {
	return slices.Clone(s.warnings)
}

// Get returns the record for name. A record directory that exists on disk
// but is not indexed is reported as not found.
func (s *Store) Get(name string) (*Record, error) {
	if !s.Has(name) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrAccountNotFound, name)
	}
	return s.readRecord(name)
}

// Add creates a new account.
func (s *Store) Add(name, username string, password *securemem.Secret) error {
	if err := utils.ValidateAccountName(name); err != nil {
		return err
	}
	if s.Has(name) {
		return fmt.Errorf("%w: %s", kerrors.ErrDuplicate, name)
	}

	// A stray directory from an interrupted Add is replaced.
	if err := s.clearStray(name); err != nil {
		return err
	}
	if err := s.writeRecord(name, username, password); err != nil {
		return err
	}

	names := append(slices.Clone(s.names), name)
	if err := archive.WriteIndex(s.dir, names); err != nil {
		return err
	}
	s.names = names
	return nil
}

// Remove deletes an account.
func (s *Store) Remove(name string) error {
	i := slices.Index(s.names, name)
	if i < 0 {
		return fmt.Errorf("%w: %s", kerrors.ErrAccountNotFound, name)
	}

	names := slices.Delete(slices.Clone(s.names), i, i+1)
	if err := archive.WriteIndex(s.dir, names); err != nil {
		return err
	}
	s.names = names

	s.purge(filepath.Join(s.dir, name))
	return nil
}

// ChangeUsername replaces the username of an account, keeping its password.
func (s *Store) ChangeUsername(name, username string) error {
	rec, err := s.Get(name)
	if err != nil {
		return err
	}
	defer rec.Destroy()

	return s.replaceRecord(name, username, rec.Password)
}

// ChangePassword replaces the password of an account, keeping its username.
func (s *Store) ChangePassword(name string, password *securemem.Secret) error {
	rec, err := s.Get(name)
	if err != nil {
		return err
	}
	defer rec.Destroy()

	return s.replaceRecord(name, rec.Username, password)
}

// Rename moves an account to a new name, keeping its index position.
func (s *Store) Rename(oldName, newName string) error {
	i := slices.Index(s.names, oldName)
	if i < 0 {
		return fmt.Errorf("%w: %s", kerrors.ErrAccountNotFound, oldName)
	}
	if err := utils.ValidateAccountName(newName); err != nil {
		return err
	}
	if s.Has(newName) {
		return fmt.Errorf("%w: %s", kerrors.ErrDuplicate, newName)
	}

	rec, err := s.readRecord(oldName)
	if err != nil {
		return err
	}
	defer rec.Destroy()

	if err := s.clearStray(newName); err != nil {
		return err
	}
	if err := s.writeRecord(newName, rec.Username, rec.Password); err != nil {
		return err
	}

	names := slices.Clone(s.names)
	names[i] = newName
	if err := archive.WriteIndex(s.dir, names); err != nil {
		return err
	}
	s.names = names

	s.purge(filepath.Join(s.dir, oldName))
	return nil
}

func (s *Store) readRecord(name string) (*Record, error) {
	data, err := os.ReadFile(archive.RecordPath(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: account %q has no record", kerrors.ErrCorruptArchive, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading record %s: %w", kerrors.ErrIO, name, err)
	}
	defer securemem.Wipe(data)

	return decodeRecord(data)
}

func (s *Store) encode(username string, password *securemem.Secret) ([]byte, error) {
	var data []byte
	err := password.Use(func(p []byte) error {
		var err error
		data, err = encodeRecord(username, p)
		return err
	})
	return data, err
}

func (s *Store) writeRecord(name, username string, password *securemem.Secret) error {
	if err := utils.EnsurePrivateDir(filepath.Join(s.dir, name)); err != nil {
		return err
	}
	data, err := s.encode(username, password)
	if err != nil {
		return err
	}
	defer securemem.Wipe(data)

	return archive.WriteFileAtomic(archive.RecordPath(s.dir, name), data, 0600)
}

// replaceRecord stages the new record, zeroes the old one in place, and
// renames the staged file over it.
func (s *Store) replaceRecord(name, username string, password *securemem.Secret) error {
	data, err := s.encode(username, password)
	if err != nil {
		return err
	}
	defer securemem.Wipe(data)

	recordDir := filepath.Join(s.dir, name)
	staged, err := archive.StageFile(recordDir, "."+archive.RecordFile+".new-*", data, 0600)
	if err != nil {
		return err
	}

	target := archive.RecordPath(s.dir, name)
	if _, err := archive.PurgeFile(target); err != nil {
		_ = os.Remove(staged)
		return err
	}
	if err := os.Rename(staged, target); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("%w: replacing record %s: %w", kerrors.ErrIO, name, err)
	}
	return archive.SyncDir(recordDir)
}

// clearStray purges an unindexed record directory left under name.
func (s *Store) clearStray(name string) error {
	report, err := archive.Purge(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("clearing stale record for %s: %w", name, err)
	}
	s.warnings = append(s.warnings, report.Warnings()...)
	return nil
}

func (s *Store) purge(dir string) {
	report, err := archive.Purge(dir)
	if err != nil {
		s.warnings = append(s.warnings, err.Error())
	}
	s.warnings = append(s.warnings, report.Warnings()...)
}
