package goSession

import "errors"

var (
	// ErrClientNotReady is returned by methods called on a nil or closed client.
	ErrClientNotReady = errors.New("client not ready")
	// ErrBuilderUsed is returned by a second call to Builder.Build.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrEmptyCredential is returned by Login without a token.
	ErrEmptyCredential = errors.New("empty credential")
	// ErrSessionEnded wraps failures of operations dropped because the
	// session ended while they were waiting to retry.
	ErrSessionEnded = errors.New("session ended")
)
