// Package accounts maintains the account index and per-account records of
// an expanded vault tree.
//
// Records are stored as
//
//	{"username":"octocat","password":"aHVudGVyMg=="}
//
// with the password base64 encoded so it can be written and read without
// ever becoming an immutable Go string.
package accounts
