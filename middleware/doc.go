// Package middleware guards HTTP handlers with a bearer credential.
//
// It is the server-side counterpart of the client pipeline and backs the
// example API and the CLI's local test server. Rejections are written as
// OAuth-style JSON bodies, which the client classifier turns into
// user-facing messages.
package middleware
