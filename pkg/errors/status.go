package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError reports a non-2xx answer from an upstream HTTP service.
// Callers translate it into their own taxonomy since the meaning of, say, a
// 404 depends on which request produced it.
type StatusError struct {
	Service    string
	Endpoint   string
	StatusCode int
	RequestID  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d %s", e.Service, e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports a 404 answer.
func (e *StatusError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsRetryable reports a 429 or 5xx answer.
func (e *StatusError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// StatusCodeOf returns the upstream status carried anywhere in err's chain.
func StatusCodeOf(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}
