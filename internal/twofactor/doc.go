// Package twofactor adds an optional time-based one-time code (RFC 6238)
// on top of a vault's encryption key.
//
// The shared secret is sealed with the vault's own recipient and stored
// next to the vault as <name>.totp.gpg. A ledger file in the data dir and
// another in the config dir list every vault that requires a code, so
// deleting the sealed secret locks the vault instead of unlocking it.
//
// The otp library takes the secret as a base32 string, so while a code is
// checked the secret briefly exists as an immutable Go string.
package twofactor
