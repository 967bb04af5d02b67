package workflows

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/PolarWolf314/fmp/internal/audit"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// Vault filters entries by vault name.
	Vault string

	// Operations filters entries by operation types (comma-separated).
	Operations string

	// Since filters entries after this date (YYYY-MM-DD format).
	Since string

	// Until filters entries before this date (YYYY-MM-DD format).
	Until string
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	// Entries are the filtered audit log entries.
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// Log reads and filters the audit log.
//
// Returns ErrUserInput if a date is malformed.
func Log(ctx context.Context, env *Env, opts LogOptions) (*LogResult, error) {
	var since, until time.Time
	if opts.Since != "" {
		t, err := time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since date format invalid, use YYYY-MM-DD", kerrors.ErrUserInput)
		}
		since = t
	}
	if opts.Until != "" {
		t, err := time.Parse("2006-01-02", opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until date format invalid, use YYYY-MM-DD", kerrors.ErrUserInput)
		}
		// Include the entire day.
		until = t.Add(24*time.Hour - time.Nanosecond)
	}

	entries, err := audit.ReadEntries(env.Audit.Path())
	if err != nil {
		return nil, fmt.Errorf("%w: reading audit log: %w", kerrors.ErrIO, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &LogResult{TotalEntriesBeforeFilter: len(entries)}

	filtered := audit.Filter(entries, opts.Vault)

	if opts.Operations != "" {
		ops := strings.Split(opts.Operations, ",")
		for i := range ops {
			ops[i] = strings.ToLower(strings.TrimSpace(ops[i]))
		}
		filtered = filterByOperations(filtered, ops)
	}
	if !since.IsZero() || !until.IsZero() {
		filtered = filterByTime(filtered, since, until)
	}

	if opts.Reverse {
		filtered = slices.Clone(filtered)
		slices.Reverse(filtered)
	}

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			// When reversed, limit takes first N (most recent).
			filtered = filtered[:opts.Limit]
		} else {
			// When not reversed, limit takes last N (most recent).
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

func filterByOperations(entries []audit.Entry, ops []string) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		if slices.Contains(ops, strings.ToLower(e.Operation)) {
			result = append(result, e)
		}
	}
	return result
}

// filterByTime keeps entries inside [since, until]. A zero bound is open.
// Entries with an unparseable time are dropped.
func filterByTime(entries []audit.Entry, since, until time.Time) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		t, err := parseTime(e.Time)
		if err != nil {
			continue
		}
		if !since.IsZero() && t.Before(since) {
			continue
		}
		if !until.IsZero() && t.After(until) {
			continue
		}
		result = append(result, e)
	}
	return result
}

func parseTime(ts string) (time.Time, error) {
	t, err := time.Parse(audit.TimeFormat, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err
}

// FormatDateTime formats a timestamp string to YYYY-MM-DD HH:MM:SS format.
func FormatDateTime(ts string) string {
	t, err := parseTime(ts)
	if err != nil {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDetails describes what an entry touched.
func FormatDetails(e audit.Entry) string {
	switch e.Operation {
	case "add", "delete", "change-username", "change-password":
		return e.Account
	case "rename-account":
		return fmt.Sprintf("%s -> %s", e.Account, e.Target)
	case "rename-vault":
		return fmt.Sprintf("-> %s", e.Target)
	case "change-recipient":
		return e.Target
	default:
		return ""
	}
}
