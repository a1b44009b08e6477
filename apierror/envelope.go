package apierror

import (
	"fmt"
	"maps"
)

// Envelope is a classified failure.
type Envelope struct {
	Kind       Kind
	Severity   Severity
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
	Context    map[string]any
}

func (e *Envelope) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the original failure.
func (e *Envelope) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// With returns a copy of e with key set in its context.
func (e *Envelope) With(key string, value any) *Envelope {
	out := e.clone()
	out.Context[key] = value
	return out
}

// WithFields returns a copy of e with fields merged into its context.
func (e *Envelope) WithFields(fields map[string]any) *Envelope {
	out := e.clone()
	maps.Copy(out.Context, fields)
	return out
}

func (e *Envelope) clone() *Envelope {
	out := *e
	out.Context = make(map[string]any, len(e.Context)+1)
	maps.Copy(out.Context, e.Context)
	return &out
}
