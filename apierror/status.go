package apierror

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxBodyBytes caps how much of an error response body is buffered.
const DefaultMaxBodyBytes = 64 << 10

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Status int
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.Status)
	if e.Method == "" && e.URL == "" {
		return fmt.Sprintf("http status %d %s", e.Status, text)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, text)
}

// StatusCode returns the HTTP status.
func (e *StatusError) StatusCode() int {
	return e.Status
}

// FromResponse returns a StatusError for resp when its status is 400 or
// above, otherwise nil.
//
// Up to maxBody bytes of the body are copied into the error. resp.Body is
// replaced so the caller can still read the full body. A maxBody of zero or
// less uses DefaultMaxBodyBytes.
func FromResponse(resp *http.Response, maxBody int64) *StatusError {
	if resp == nil || resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	se := &StatusError{Status: resp.StatusCode, Header: resp.Header.Clone()}
	if req := resp.Request; req != nil {
		se.Method = req.Method
		if req.URL != nil {
			se.URL = req.URL.Redacted()
		}
	}

	if resp.Body != nil && resp.Body != http.NoBody {
		head, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		se.Body = head
		resp.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(head), resp.Body), resp.Body}
	}
	return se
}
