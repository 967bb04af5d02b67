package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/utils"
)

// maxEntrySize bounds a single extracted file. Records are tiny; anything
// larger is not a vault.
const maxEntrySize = 16 << 20

// Bundle packs the tree at dir into a gzip-compressed tar stream held in a
// Secret. Entries are walked in lexical order and carry no ownership, so the
// same tree always yields the same entry list.
func Bundle(ctx context.Context, dir string) (*securemem.Secret, error) {
	buf := securemem.NewBuffer(4096)
	gzWriter := gzip.NewWriter(buf)
	tarWriter := tar.NewWriter(gzWriter)

	copyBuf := make([]byte, 32*1024)
	defer securemem.Wipe(copyBuf)

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %w", kerrors.ErrIO, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return fmt.Errorf("getting relative path: %w", err)
		}
		if rel == "." {
			return nil
		}
		return addToTar(tarWriter, p, filepath.ToSlash(rel), d, copyBuf)
	})
	if err == nil {
		err = tarWriter.Close()
	}
	if err == nil {
		err = gzWriter.Close()
	}
	if err != nil {
		buf.Reset()
		return nil, err
	}
	return buf.Seal(), nil
}

// addToTar adds one directory or regular file to the archive.
func addToTar(tw *tar.Writer, filePath, name string, d fs.DirEntry, copyBuf []byte) error {
	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", kerrors.ErrIO, filePath, err)
	}

	header := &tar.Header{
		Name:    name,
		ModTime: info.ModTime().Truncate(time.Second),
	}
	switch {
	case info.IsDir():
		header.Typeflag = tar.TypeDir
		header.Name += "/"
		header.Mode = 0700
		return tw.WriteHeader(header)
	case info.Mode().IsRegular():
		header.Typeflag = tar.TypeReg
		header.Mode = 0600
		header.Size = info.Size()
	default:
		return fmt.Errorf("%w: %s is not a regular file or directory", kerrors.ErrCorruptArchive, name)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", kerrors.ErrIO, filePath, err)
	}
	defer file.Close()

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("writing tar header: %w", err)
	}
	if _, err := io.CopyBuffer(tw, io.LimitReader(file, header.Size), copyBuf); err != nil {
		return fmt.Errorf("%w: writing %s: %w", kerrors.ErrIO, name, err)
	}
	return nil
}

// Expand unpacks a bundle into dir with owner-only permissions. Absolute
// paths, parent references, links and special files are rejected.
func Expand(ctx context.Context, bundle *securemem.Secret, dir string) error {
	if err := utils.EnsurePrivateDir(dir); err != nil {
		return err
	}

	return bundle.Use(func(data []byte) error {
		gzReader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%w: not a gzip stream: %v", kerrors.ErrCorruptArchive, err)
		}
		defer gzReader.Close()

		copyBuf := make([]byte, 32*1024)
		defer securemem.Wipe(copyBuf)

		tarReader := tar.NewReader(gzReader)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			header, err := tarReader.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: reading tar header: %v", kerrors.ErrCorruptArchive, err)
			}

			target, err := entryPath(dir, header.Name)
			if err != nil {
				return err
			}
			if target == dir {
				continue
			}

			switch header.Typeflag {
			case tar.TypeDir:
				if err := utils.EnsurePrivateDir(target); err != nil {
					return err
				}
			case tar.TypeReg:
				if err := utils.EnsurePrivateDir(filepath.Dir(target)); err != nil {
					return err
				}
				if err := extractFile(tarReader, target, copyBuf); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w: unsupported entry %q", kerrors.ErrCorruptArchive, header.Name)
			}
		}
	})
}

// entryPath maps an archive entry name to a path inside dir.
func entryPath(dir, name string) (string, error) {
	if strings.Contains(name, "\\") || path.IsAbs(name) {
		return "", fmt.Errorf("%w: invalid entry path %q", kerrors.ErrCorruptArchive, name)
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: entry %q escapes the archive root", kerrors.ErrCorruptArchive, name)
	}
	if clean == "." {
		return dir, nil
	}
	return filepath.Join(dir, filepath.FromSlash(clean)), nil
}

// extractFile writes a single tar entry to target.
func extractFile(tr *tar.Reader, target string, copyBuf []byte) error {
	outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %w", kerrors.ErrIO, target, err)
	}
	defer outFile.Close()

	n, err := io.CopyBuffer(outFile, io.LimitReader(tr, maxEntrySize+1), copyBuf)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return fmt.Errorf("%w: writing %s: %w", kerrors.ErrIO, target, err)
		}
		return fmt.Errorf("%w: reading entry: %v", kerrors.ErrCorruptArchive, err)
	}
	if n > maxEntrySize {
		return fmt.Errorf("%w: entry %s exceeds %d bytes", kerrors.ErrCorruptArchive, filepath.Base(target), maxEntrySize)
	}
	return outFile.Sync()
}
