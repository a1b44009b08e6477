// Package transport provides the outbound HTTP pipeline.
//
// [Pipeline] is an http.RoundTripper that attaches the stored credential as
// a bearer token and routes every failed exchange through the classifier
// and the session guard. The response and error the wrapped transport
// produced are always handed back to the caller as they were.
package transport
