package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
)

// PurgeReport describes what a purge did. Unlinked lists files that could
// not be overwritten before removal; those are surfaced as warnings.
type PurgeReport struct {
	Path        string
	Overwritten int
	Unlinked    []string
}

// Warnings renders the report as user-facing warnings.
func (r *PurgeReport) Warnings() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Unlinked))
	for _, p := range r.Unlinked {
		out = append(out, fmt.Sprintf("%s was deleted without being overwritten", p))
	}
	return out
}

// Purge overwrites every regular file under dir with zeros, syncs it, and
// then removes the whole tree. A missing dir is not an error.
func Purge(dir string) (*PurgeReport, error) {
	report := &PurgeReport{Path: dir}
	if _, err := os.Lstat(dir); errors.Is(err, fs.ErrNotExist) {
		return report, nil
	}

	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			report.Unlinked = append(report.Unlinked, p)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := overwrite(p); err != nil {
			report.Unlinked = append(report.Unlinked, p)
			return nil
		}
		report.Overwritten++
		return nil
	})

	if err := os.RemoveAll(dir); err != nil {
		return report, fmt.Errorf("%w: removing %s: %w", kerrors.ErrIO, dir, err)
	}
	return report, nil
}

// PurgeFile overwrites and removes a single file.
func PurgeFile(path string) (*PurgeReport, error) {
	report := &PurgeReport{Path: path}
	if err := overwrite(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report, nil
		}
		report.Unlinked = append(report.Unlinked, path)
	} else {
		report.Overwritten++
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return report, fmt.Errorf("%w: removing %s: %w", kerrors.ErrIO, path, err)
	}
	return report, nil
}

var zeros = make([]byte, 32*1024)

// overwrite replaces the contents of path with zeros of the same length.
func overwrite(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	remaining := info.Size()
	for remaining > 0 {
		n := int64(len(zeros))
		if remaining < n {
			n = remaining
		}
		if _, err := f.Write(zeros[:n]); err != nil {
			return err
		}
		remaining -= n
	}
	return f.Sync()
}
