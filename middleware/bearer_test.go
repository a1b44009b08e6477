package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/middleware"
)

func TestRequireBearer(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	iss, err := credential.NewIssuer(credential.IssuerConfig{
		TTL: time.Hour, SigningMethod: credential.MethodHS256, PrivateKey: []byte("middleware-test-key-0123456789ab"),
	}, clock)
	require.NoError(t, err)
	valid, err := iss.Issue("user-9", nil)
	require.NoError(t, err)

	h := middleware.RequireBearer(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := middleware.CredentialFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(c.Subject))
	}))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, "user-9"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"garbage", "Bearer nope", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
				return
			}
			var doc map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
			assert.NotEmpty(t, doc["error_description"])
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
		})
	}

	clock.Advance(2 * time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
