// Package credential owns the session credential: decoding its claims
// without a server round trip, persisting it in a [storage.KV], and deciding
// whether it is still usable.
//
// Decoding is deliberately non-verifying. The client never holds the signing
// key; the server remains the authority on signatures. Validation here only
// answers "has this token visibly expired?" and fails closed: anything that
// cannot be decoded, or lacks a subject or an expiry, is invalid.
//
// Clock skew between client and server is not compensated.
package credential
