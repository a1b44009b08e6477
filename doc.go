// Package goSession is a resilient API/session layer for HTTP clients.
//
// A [Client] attaches the stored session credential to outgoing calls,
// classifies every failure into a closed taxonomy, retries the ones worth
// retrying with linear backoff, and decides exactly once when a failure
// means the session has ended. Build one with [New]:
//
//	client, err := goSession.New().
//		WithConfig(cfg).
//		WithNavigator(nav).
//		Build()
//
// then route network calls through [Client.HTTPClient] inside
// [Client.Run] or [RunValue].
//
// # Architecture boundaries
//
// goSession is the public surface: [Client], [Builder], [Config] and the
// metrics types. Each concern lives in its own sub-package and can be used
// on its own: credential (token store), apierror (classifier), retry
// (engine), guard (session state machine), transport (RoundTripper),
// notify (sinks) and storage (key-value backends).
//
// # Concurrency
//
// Client methods are safe to call from multiple goroutines after
// [Builder.Build]. Retry state is per call; the session phase is shared and
// changes only through compare-and-swap.
package goSession
