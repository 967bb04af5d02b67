// Package configs loads and saves the fmp configuration.
//
// Configuration lives in a single TOML file, by default
// <user config dir>/fmp/config.toml (override with FMP_CONFIG):
//
//	backend = "gpg"
//	default_vault = "personal"
//	lock_timeout = "5s"
//
//	[vaults.personal]
//	recipient = "alice@example.com"
//
// Every scalar key can be overridden by an FMP_ environment variable, for
// example FMP_BACKEND or FMP_DEFAULT_VAULT. The [vaults] table is the
// registry of known vaults and the recipient each is encrypted to.
//
// Resolve turns a Config into Settings, the concrete directories the vault
// manager and audit log use.
package configs
