// Package storage provides the key-value backends that persist the session
// credential.
//
// # Backends
//
//   - [Memory]: process-local map, the default when nothing else is configured.
//   - [Redis]: shared credential across processes, keys namespaced by a prefix.
//   - [File]: a single sealed file on disk, encrypted with XChaCha20-Poly1305
//     under a key derived from a passphrase with argon2id.
//
// # Architecture boundaries
//
// This package stores opaque strings. It does NOT decode tokens, decide
// validity, or know about sessions. Those responsibilities belong to the
// credential package.
package storage
