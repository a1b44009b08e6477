package credential

import (
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// Credential is a decoded bearer token. Fields are read once at decode time
// and never change for the instance.
type Credential struct {
	Raw       string
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Claims    map[string]any
}

// Decode parses the payload segment of raw without verifying the signature.
//
// A token without "sub" or "exp" is rejected: callers treat such tokens as
// invalid rather than as never-expiring.
//
// Limitations: the header's "alg" must name a signing method registered with
// golang-jwt even though the signature is never checked, so a token with a
// missing or unknown alg is ErrMalformed whatever its payload says. Expiry is
// compared with the local clock and skew is not compensated.
func Decode(raw string) (*Credential, error) {
	if raw == "" {
		return nil, ErrEmpty
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, oops.
			Code("CREDENTIAL_MALFORMED").
			In("credential").
			Wrap(fmt.Errorf("%w: %v", ErrMalformed, err))
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, oops.Code("CREDENTIAL_MISSING_SUBJECT").In("credential").Wrap(ErrMissingSubject)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, oops.
			Code("CREDENTIAL_MISSING_EXPIRY").
			In("credential").
			With("subject", sub).
			Wrap(ErrMissingExpiry)
	}

	c := &Credential{
		Raw:       raw,
		Subject:   sub,
		ExpiresAt: exp.Time,
		Claims:    map[string]any(claims),
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}

	return c, nil
}

// ValidAt reports whether the credential is unexpired at t.
func (c *Credential) ValidAt(t time.Time) bool {
	if c == nil {
		return false
	}
	return t.Before(c.ExpiresAt)
}

// MinutesUntil returns whole minutes remaining at t, never negative.
func (c *Credential) MinutesUntil(t time.Time) int {
	if c == nil {
		return 0
	}
	remaining := c.ExpiresAt.Sub(t)
	if remaining <= 0 {
		return 0
	}
	return int(math.Floor(remaining.Minutes()))
}
