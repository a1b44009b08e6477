package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"os"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/MrEthical07/goSession/i18n"
)

var (
	// ErrOffline marks a failure caused by the host having no connectivity.
	ErrOffline = errors.New("apierror: offline")
	// ErrTimeout marks a failure caused by an explicit timeout.
	ErrTimeout = errors.New("apierror: timeout")
)

const maxPlainMessage = 200

// Classifier maps failures to envelopes. The zero value is not usable; use
// [NewClassifier].
type Classifier struct {
	translator i18n.Translator
	logger     *slog.Logger
}

// NewClassifier returns a Classifier resolving default messages through
// translator. A nil translator uses the embedded catalogs.
func NewClassifier(translator i18n.Translator, logger *slog.Logger) *Classifier {
	if translator == nil {
		translator = i18n.MustNew()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{translator: translator, logger: logger}
}

// Classify maps err to an envelope. It never returns nil and never panics.
//
// Rules are applied in order and the first match wins: connectivity
// failures, then timeouts, then HTTP status codes. Anything else is
// KindUnknown. An err that already is an *Envelope is returned as a copy.
func (c *Classifier) Classify(ctx context.Context, err error) (env *Envelope) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WarnContext(ctx, "classifier recovered from panic", "panic", r)
			env = c.envelope(ctx, KindUnknown, err, 0, "")
		}
	}()

	if err == nil {
		return c.envelope(ctx, KindUnknown, nil, 0, "")
	}

	var existing *Envelope
	if errors.As(err, &existing) && existing != nil {
		return existing.clone()
	}

	if isNetwork(err) {
		return c.envelope(ctx, KindNetwork, err, 0, "")
	}
	if isTimeout(err) {
		return c.envelope(ctx, KindTimeout, err, 0, "")
	}

	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		status := coded.StatusCode()
		env := c.envelope(ctx, kindForStatus(status), err, status, serverMessage(err))
		var se *StatusError
		if errors.As(err, &se) {
			if se.Method != "" {
				env.Context["method"] = se.Method
			}
			if se.URL != "" {
				env.Context["url"] = se.URL
			}
		}
		return env
	}

	return c.envelope(ctx, KindUnknown, err, 0, "")
}

func (c *Classifier) envelope(ctx context.Context, kind Kind, cause error, status int, msg string) *Envelope {
	if msg == "" {
		msg = c.translator.Translate(kind.MessageKey(), i18n.LanguageFrom(ctx))
	}
	return &Envelope{
		Kind:       kind,
		Severity:   kind.Severity(),
		Message:    msg,
		Retryable:  kind.Retryable(),
		StatusCode: status,
		Cause:      cause,
		Context:    map[string]any{},
	}
}

func isNetwork(err error) bool {
	if errors.Is(err, ErrOffline) {
		return true
	}
	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ECONNABORTED,
		syscall.EHOSTUNREACH,
		syscall.ENETUNREACH,
		syscall.ENETDOWN,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" && !opErr.Timeout() {
		return true
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func kindForStatus(status int) Kind {
	switch {
	case status == 400:
		return KindValidation
	case status == 401:
		return KindAuthentication
	case status == 403:
		return KindAuthorization
	case status == 404:
		return KindNotFound
	case status == 408 || status == 429:
		return KindTimeout
	case status >= 500 && status <= 599:
		return KindServer
	default:
		return KindUnknown
	}
}

// serverMessage extracts a human message from an error response body.
func serverMessage(err error) string {
	var se *StatusError
	if !errors.As(err, &se) || len(se.Body) == 0 {
		return ""
	}
	body := se.Body

	var doc map[string]any
	if json.Unmarshal(body, &doc) == nil {
		for _, field := range []string{"message", "error_description", "error"} {
			switch v := doc[field].(type) {
			case string:
				if s := strings.TrimSpace(v); s != "" {
					return s
				}
			case map[string]any:
				if s, ok := v["message"].(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
		return ""
	}

	text := strings.TrimSpace(string(body))
	if text == "" || !utf8.ValidString(text) || strings.HasPrefix(text, "<") ||
		strings.ContainsAny(text, "\n\r") || utf8.RuneCountInString(text) > maxPlainMessage {
		return ""
	}
	return text
}
