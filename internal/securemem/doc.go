// Package securemem keeps passwords, passphrases and decrypted vault
// bundles out of swap and out of logs.
//
// A Secret owns its bytes. Construct one with New, which wipes the source
// slice, and read it only inside Use:
//
//	s := securemem.New(input)
//	defer s.Destroy()
//	err := s.Use(func(b []byte) error {
//	    return store.write(b)
//	})
//
// Printing a Secret yields [REDACTED] and every marshal method fails, so a
// Secret cannot leak through fmt, encoding/json or a log line by accident.
//
// Init checks whether the process can lock memory. When it can, secrets are
// memguard LockedBuffers. When it cannot, secrets fall back to zeroed heap
// buffers and Init reports a warning instead of failing.
package securemem
