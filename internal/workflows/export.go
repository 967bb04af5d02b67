package workflows

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/fmp/internal/audit"
	"github.com/PolarWolf314/fmp/internal/vault"
)

// ExportOptions configures the export workflow.
type ExportOptions struct {
	Vault string

	// OutputPath is the path of the exported file.
	// If empty, defaults to <vault>-YYYY-MM-DD.tar.gz.gpg in the current
	// directory.
	OutputPath string
}

// ExportResult contains the outcome of an export operation.
type ExportResult struct {
	Vault      string
	OutputPath string
}

// Export copies the encrypted vault file to OutputPath. Nothing is
// decrypted; the export can only be opened with the recipient's key.
func Export(ctx context.Context, env *Env, opts ExportOptions) (*ExportResult, error) {
	v, err := env.Vault(opts.Vault)
	if err != nil {
		return nil, err
	}

	out := opts.OutputPath
	if out == "" {
		out = fmt.Sprintf("%s-%s%s", v.Name, time.Now().Format("2006-01-02"), vault.Ext)
	}
	if out, err = filepath.Abs(out); err != nil {
		return nil, fmt.Errorf("resolving output path: %w", err)
	}

	if err := env.Manager.Export(ctx, v, out); err != nil {
		return nil, err
	}
	env.Audit.Log(audit.Entry{Operation: "export", Vault: v.Name, Target: out})
	return &ExportResult{Vault: v.Name, OutputPath: out}, nil
}
