package credential

import "errors"

var (
	// ErrMalformed is returned when the token is not a decodable JWT.
	ErrMalformed = errors.New("credential malformed")
	// ErrMissingSubject is returned when the payload has no "sub" claim.
	ErrMissingSubject = errors.New("credential missing subject")
	// ErrMissingExpiry is returned when the payload has no usable "exp" claim.
	ErrMissingExpiry = errors.New("credential missing expiry")
	// ErrNotFound is returned when no credential is stored.
	ErrNotFound = errors.New("credential not found")
	// ErrEmpty is returned when storing an empty token.
	ErrEmpty = errors.New("credential is empty")
)
