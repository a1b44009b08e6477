// Package apierror turns arbitrary failures into a closed taxonomy.
//
// Every error a network call can produce, whether a dial failure, a timeout
// or an HTTP status, is mapped by a [Classifier] onto one of eight [Kind]
// values with a [Severity], a user-facing message and a retryable flag. The
// result is an [Envelope], which is itself an error and unwraps to the
// original cause.
package apierror
