// Package audit records what fmp did to which vault.
//
// Every lifecycle operation (add, delete, create-vault, backup, etc.)
// appends one JSON object to <data dir>/audit.jsonl:
//
//	{"time":"2026-03-01T09:30:00.000000Z","op":"add","vault":"personal","account":"github","session":"5f0c..."}
//
// Entries name vaults, accounts and sessions only. Usernames, passwords and
// passphrases are never written.
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
//
// # Reading Logs
//
// Use ReadEntries to parse the log for display. Malformed lines are
// silently skipped to handle partial writes.
package audit
