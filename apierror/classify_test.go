package apierror_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goSession/apierror"
	"github.com/MrEthical07/goSession/i18n"
)

type panicky struct{}

func (panicky) Error() string   { return "panicky" }
func (panicky) StatusCode() int { panic("boom") }

type coded int

func (c coded) Error() string   { return fmt.Sprintf("coded %d", int(c)) }
func (c coded) StatusCode() int { return int(c) }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func newClassifier() *apierror.Classifier {
	return apierror.NewClassifier(nil, nil)
}

func status(code int, body string) error {
	return &apierror.StatusError{Status: code, Method: http.MethodGet, URL: "https://api.test/x", Body: []byte(body)}
}

func TestClassifyTable(t *testing.T) {
	dialRefused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	dialTimeout := &net.OpError{Op: "dial", Net: "tcp", Err: timeoutErr{}}

	tests := []struct {
		name      string
		err       error
		kind      apierror.Kind
		severity  apierror.Severity
		retryable bool
	}{
		{"offline", apierror.ErrOffline, apierror.KindNetwork, apierror.SeverityMedium, true},
		{"wrapped offline", fmt.Errorf("fetch: %w", apierror.ErrOffline), apierror.KindNetwork, apierror.SeverityMedium, true},
		{"connection refused", dialRefused, apierror.KindNetwork, apierror.SeverityMedium, true},
		{"connection reset", &url.Error{Op: "Get", URL: "u", Err: syscall.ECONNRESET}, apierror.KindNetwork, apierror.SeverityMedium, true},
		{"dns not found", &net.DNSError{Err: "no such host", Name: "api.test", IsNotFound: true}, apierror.KindNetwork, apierror.SeverityMedium, true},
		{"dns timeout", &net.DNSError{Err: "timeout", Name: "api.test", IsTimeout: true}, apierror.KindTimeout, apierror.SeverityLow, true},
		{"dial timeout", dialTimeout, apierror.KindTimeout, apierror.SeverityLow, true},
		{"explicit timeout", apierror.ErrTimeout, apierror.KindTimeout, apierror.SeverityLow, true},
		{"deadline", context.DeadlineExceeded, apierror.KindTimeout, apierror.SeverityLow, true},
		{"os deadline", os.ErrDeadlineExceeded, apierror.KindTimeout, apierror.SeverityLow, true},
		{"url timeout", &url.Error{Op: "Get", URL: "u", Err: timeoutErr{}}, apierror.KindTimeout, apierror.SeverityLow, true},
		{"400", status(400, ""), apierror.KindValidation, apierror.SeverityLow, false},
		{"401", status(401, ""), apierror.KindAuthentication, apierror.SeverityMedium, false},
		{"403", status(403, ""), apierror.KindAuthorization, apierror.SeverityMedium, false},
		{"404", status(404, ""), apierror.KindNotFound, apierror.SeverityLow, false},
		{"408", status(408, ""), apierror.KindTimeout, apierror.SeverityLow, true},
		{"429", status(429, ""), apierror.KindTimeout, apierror.SeverityLow, true},
		{"409", status(409, ""), apierror.KindUnknown, apierror.SeverityMedium, false},
		{"418 custom type", coded(418), apierror.KindUnknown, apierror.SeverityMedium, false},
		{"503 custom type", coded(503), apierror.KindServer, apierror.SeverityHigh, true},
		{"canceled", context.Canceled, apierror.KindUnknown, apierror.SeverityMedium, false},
		{"plain", errors.New("boom"), apierror.KindUnknown, apierror.SeverityMedium, false},
		{"nil", nil, apierror.KindUnknown, apierror.SeverityMedium, false},
		{"panicking status", panicky{}, apierror.KindUnknown, apierror.SeverityMedium, false},
	}

	c := newClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env *apierror.Envelope
			require.NotPanics(t, func() { env = c.Classify(context.Background(), tt.err) })
			require.NotNil(t, env)
			assert.Equal(t, tt.kind, env.Kind)
			assert.Equal(t, tt.severity, env.Severity)
			assert.Equal(t, tt.retryable, env.Retryable)
			assert.NotEmpty(t, env.Message)
			if tt.err != nil {
				assert.ErrorIs(t, env, tt.err)
			}
		})
	}
}

func TestServerErrorsAreHighSeverity(t *testing.T) {
	c := newClassifier()
	for _, code := range []int{500, 502, 503, 504} {
		env := c.Classify(context.Background(), status(code, ""))
		assert.Equal(t, apierror.KindServer, env.Kind, "status %d", code)
		assert.Equal(t, apierror.SeverityHigh, env.Severity, "status %d", code)
		assert.True(t, env.Retryable)
		assert.Equal(t, code, env.StatusCode)
	}
}

func TestNeverProducesCritical(t *testing.T) {
	c := newClassifier()
	for code := 100; code < 600; code++ {
		env := c.Classify(context.Background(), coded(code))
		assert.NotEqual(t, apierror.SeverityCritical, env.Severity)
	}
}

func TestMessageFromBody(t *testing.T) {
	c := newClassifier()
	ctx := context.Background()
	fallback := c.Classify(ctx, status(400, "")).Message

	tests := []struct {
		body string
		want string
	}{
		{`{"message":"email is required"}`, "email is required"},
		{`{"error":"invalid_grant","error_description":"code expired"}`, "code expired"},
		{`{"error":"invalid_request"}`, "invalid_request"},
		{`{"error":{"message":"nested reason"}}`, "nested reason"},
		{`{"message":"  "}`, fallback},
		{`{"detail":"unrelated"}`, fallback},
		{`{"message":`, "{\"message\":"},
		{"short plain reason", "short plain reason"},
		{"<html><body>Bad Request</body></html>", fallback},
		{"line one\nline two", fallback},
		{strings.Repeat("x", 300), fallback},
		{"\xff\xfe", fallback},
	}
	for _, tt := range tests {
		env := c.Classify(ctx, status(400, tt.body))
		assert.Equal(t, tt.want, env.Message, "body %q", tt.body)
	}
}

func TestDefaultMessageFollowsContextLanguage(t *testing.T) {
	c := newClassifier()
	catalog := i18n.MustNew()

	en := c.Classify(context.Background(), status(503, ""))
	de := c.Classify(i18n.WithLanguage(context.Background(), "de"), status(503, ""))

	assert.Equal(t, catalog.Translate("error.server", "en"), en.Message)
	assert.Equal(t, catalog.Translate("error.server", "de"), de.Message)
	assert.NotEqual(t, en.Message, de.Message)
}

func TestClassifyWithCustomTranslator(t *testing.T) {
	c := apierror.NewClassifier(i18n.Func(func(key, _ string) string { return "T:" + key }), nil)
	env := c.Classify(context.Background(), errors.New("x"))
	assert.Equal(t, "T:error.unknown", env.Message)
}

func TestClassifyEnvelopeIsCopied(t *testing.T) {
	c := newClassifier()
	first := c.Classify(context.Background(), status(502, ""))
	again := c.Classify(context.Background(), fmt.Errorf("wrapped: %w", first))

	assert.NotSame(t, first, again)
	assert.Equal(t, first.Kind, again.Kind)
	assert.Equal(t, first.Message, again.Message)

	again.Context["attempt"] = 2
	assert.NotContains(t, first.Context, "attempt")
}

func TestStatusContextFields(t *testing.T) {
	env := newClassifier().Classify(context.Background(), status(404, ""))
	assert.Equal(t, http.MethodGet, env.Context["method"])
	assert.Equal(t, "https://api.test/x", env.Context["url"])
}

func TestEnvelopeWithFields(t *testing.T) {
	env := &apierror.Envelope{Kind: apierror.KindServer, Message: "m", Context: map[string]any{"a": 1}}
	out := env.WithFields(map[string]any{"b": 2}).With("c", 3)

	assert.Equal(t, map[string]any{"a": 1}, env.Context)
	assert.Equal(t, map[string]any{"a": 1, "b": 2, "c": 3}, out.Context)
	assert.Equal(t, "SERVER: m", env.Error())
}

func TestKindText(t *testing.T) {
	for _, k := range apierror.Kinds() {
		text, err := k.MarshalText()
		require.NoError(t, err)

		var back apierror.Kind
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, k, back)
	}

	_, err := apierror.ParseKind("NOPE")
	assert.Error(t, err)

	var s apierror.Severity
	require.NoError(t, s.UnmarshalText([]byte("CRITICAL")))
	assert.Equal(t, apierror.SeverityCritical, s)
	assert.Error(t, s.UnmarshalText([]byte("SEVERE")))
}

func TestFromResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			_, _ = io.WriteString(w, "fine")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"message":"maintenance window"}`)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ok")
	require.NoError(t, err)
	assert.Nil(t, apierror.FromResponse(resp, 0))
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/down")
	require.NoError(t, err)
	defer resp.Body.Close()

	se := apierror.FromResponse(resp, 8)
	require.NotNil(t, se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode())
	assert.Equal(t, http.MethodGet, se.Method)
	assert.Equal(t, `{"messag`, string(se.Body))

	full, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"message":"maintenance window"}`, string(full))

	assert.Nil(t, apierror.FromResponse(nil, 0))
}
