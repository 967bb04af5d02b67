// Package vault manages the lifecycle of encrypted vault files.
//
// A vault is a tar+gzip bundle of an account tree, encrypted to a recipient
// public key and stored as <VaultDir>/<name>.tar.gz.gpg. A Manager opens it
// into a Session, which holds an exclusive lock on <vault>.lock and owns a
// decrypted tree under <WorkDir>/<name>/. Every Session ends in exactly one
// of:
//
//   - Commit: the tree is re-encrypted to a staged file beside the vault,
//     optionally verified, and renamed over the vault.
//   - Abort: the vault is left as it was.
//
// Either way the tree is overwritten and removed and the lock released.
// A tree left behind by a crash is purged by the next Open.
package vault
