package configs

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/PolarWolf314/fmp/internal/archive"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/utils"
)

// SaveTOML writes data to filePath as TOML with owner-only permissions. The
// previous file stays intact if anything fails.
func SaveTOML(filePath string, data any) error {
	if err := utils.EnsurePrivateDir(filepath.Dir(filePath)); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(data); err != nil {
		return fmt.Errorf("encoding %s: %w", filePath, err)
	}
	return archive.WriteFileAtomic(filePath, buf.Bytes(), 0600)
}

// LoadTOML decodes a TOML file into data and returns the keys it did not
// recognise.
func LoadTOML(filePath string, data any) ([]string, error) {
	md, err := toml.DecodeFile(filePath, data)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", kerrors.ErrUserInput, filePath, err)
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return unknown, nil
}
