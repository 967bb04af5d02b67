// Package archive converts between a decrypted vault bundle and the
// ephemeral plaintext tree, and owns the file primitives the vault relies on
// for crash safety.
//
// # Tree Layout
//
//	accounts          one account name per line, in insertion order
//	<account>/data    that account's record
//
// Directories are created 0700 and files 0600.
//
// # Bundles
//
// A bundle is a gzip-compressed tar stream. Bundle and Expand are inverses;
// both keep the plaintext inside securemem types while it is in memory.
//
// # File Primitives
//
//   - WriteFileAtomic: temp file, fsync, rename, fsync of the parent
//   - StageFile: temp file and fsync without the rename
//   - Purge / PurgeFile: overwrite with zeros, fsync, then delete
package archive
