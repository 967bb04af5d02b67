package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Settings are the resolved paths and values derived from a Config. They
// are computed once and passed down; nothing below the command layer reads
// the environment.
type Settings struct {
	ConfigPath  string
	DataDir     string
	VaultDir    string
	WorkDir     string
	AuditPath   string
	LockTimeout time.Duration
	Verify      bool
}

// Resolve fills in defaults for c. DataDir defaults to
// $XDG_DATA_HOME/fmp (~/.local/share/fmp). WorkDir defaults to
// $XDG_RUNTIME_DIR/fmp when that is set, which is usually a tmpfs, and to
// DataDir/work otherwise.
func (c *Config) Resolve(configPath string) (*Settings, error) {
	dataDir := c.DataDir
	if dataDir == "" {
		base := os.Getenv("XDG_DATA_HOME")
		if base == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("error getting home directory: %w", err)
			}
			base = filepath.Join(homeDir, ".local", "share")
		}
		dataDir = filepath.Join(base, "fmp")
	}

	workDir := c.WorkDir
	if workDir == "" {
		if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
			workDir = filepath.Join(runtime, "fmp")
		} else {
			workDir = filepath.Join(dataDir, "work")
		}
	}

	timeout, err := c.lockTimeout()
	if err != nil {
		return nil, err
	}

	return &Settings{
		ConfigPath:  configPath,
		DataDir:     dataDir,
		VaultDir:    filepath.Join(dataDir, "vaults"),
		WorkDir:     workDir,
		AuditPath:   filepath.Join(dataDir, "audit.jsonl"),
		LockTimeout: timeout,
		Verify:      !c.SkipVerify,
	}, nil
}
