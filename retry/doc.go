// Package retry re-runs failing operations with linear backoff.
//
// Only failures the classifier marks retryable (network, timeout, server)
// are attempted again. Each call to [Engine.Do] gets its own [Session], so
// concurrent operations never share an attempt counter. Before every
// re-attempt the engine consults its abort gate; when the session has ended
// the pending operation is dropped instead of re-issued.
package retry
