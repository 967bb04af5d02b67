package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// TimeFormat is the layout of Entry.Time.
const TimeFormat = "2006-01-02T15:04:05.000000Z"

// Entry is one line of the audit log. It never carries secrets: usernames
// and passwords are not recorded, only the names of what was touched.
type Entry struct {
	Time      string `json:"time"`
	Operation string `json:"op"`
	Vault     string `json:"vault,omitempty"`
	Account   string `json:"account,omitempty"`
	Target    string `json:"target,omitempty"`
	Session   string `json:"session,omitempty"`
}

// Logger appends entries to a JSON Lines file.
type Logger struct {
	path string
	now  func() time.Time
}

// New returns a Logger writing to path. An empty path disables logging.
func New(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// Path returns the log file location.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Log appends entry to the audit log.
// If logging fails the entry is dropped; operations should not fail just
// because audit logging failed.
func (l *Logger) Log(entry Entry) {
	if l == nil || l.path == "" {
		return
	}
	if entry.Time == "" {
		entry.Time = l.now().UTC().Format(TimeFormat)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	zl := zerolog.New(f)
	event := zl.Log().
		Str("time", entry.Time).
		Str("op", entry.Operation)
	if entry.Vault != "" {
		event = event.Str("vault", entry.Vault)
	}
	if entry.Account != "" {
		event = event.Str("account", entry.Account)
	}
	if entry.Target != "" {
		event = event.Str("target", entry.Target)
	}
	if entry.Session != "" {
		event = event.Str("session", entry.Session)
	}
	event.Send()
}

// ReadEntries reads all entries from the audit log at path.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// Filter returns the entries for vault, or all of them when vault is empty.
func Filter(entries []Entry, vault string) []Entry {
	if vault == "" {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if e.Vault == vault {
			out = append(out, e)
		}
	}
	return out
}
