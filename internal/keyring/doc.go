// Package keyring caches private key passphrases in the OS keyring
// (Keychain, Secret Service, Windows Credential Manager), keyed by the
// vault recipient.
//
// The OS keyring API takes and returns strings, so a passphrase briefly
// exists as an immutable Go string while it crosses that boundary.
package keyring
