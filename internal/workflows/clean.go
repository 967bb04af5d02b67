package workflows

import (
	"context"

	"github.com/PolarWolf314/fmp/internal/audit"
	"github.com/PolarWolf314/fmp/internal/vault"
)

// CleanOptions configures the clean workflow.
type CleanOptions struct {
	// DryRun previews what would be removed without making changes.
	DryRun bool
}

// CleanResult contains the outcome of a clean operation.
type CleanResult struct {
	*vault.CleanResult

	// DryRun indicates whether this was a dry-run.
	DryRun bool
}

// Clean purges plaintext session trees left behind by sessions that never
// reached Commit or Abort, for example after a crash or SIGKILL.
//
// A tree whose vault is still open elsewhere is skipped and reported as
// busy. Lock files whose holder has died are removed as well.
func Clean(ctx context.Context, env *Env, opts CleanOptions) (*CleanResult, error) {
	res, err := env.Manager.Clean(ctx, opts.DryRun)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		env.Log.Warnf("%s", w)
	}

	removed := len(res.Stale) + len(res.Orphaned) + len(res.StaleLocks)
	if !opts.DryRun && removed > 0 {
		env.Audit.Log(audit.Entry{Operation: "clean"})
	}
	return &CleanResult{CleanResult: res, DryRun: opts.DryRun}, nil
}
