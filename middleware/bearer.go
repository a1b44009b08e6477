package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/transport"
)

// Verifier checks a raw bearer token.
type Verifier interface {
	Verify(token string) (*credential.Credential, error)
}

type credentialContextKey struct{}

// CredentialFromContext returns the credential accepted by [RequireBearer].
func CredentialFromContext(ctx context.Context) (*credential.Credential, bool) {
	c, ok := ctx.Value(credentialContextKey{}).(*credential.Credential)
	return c, ok
}

// RequireBearer rejects requests without a valid bearer token with 401 and
// injects the verified credential into the request context otherwise.
func RequireBearer(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				reject(w, "invalid_token", "verifier not configured")
				return
			}

			token, ok := transport.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(w, "invalid_request", "missing bearer token")
				return
			}

			c, err := v.Verify(token)
			if err != nil {
				reject(w, "invalid_token", "token is invalid or expired")
				return
			}

			ctx := context.WithValue(r.Context(), credentialContextKey{}, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reject(w http.ResponseWriter, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer error="`+code+`"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}
