package spark

import (
	"errors"
	"fmt"
)

// UpstreamError is returned when an upstream HTTP API (Reddit, the completion
// API) responds with a non-success status. It carries the status code and the
// raw body so callers can decide whether the failure is retryable.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// IsRateLimited reports whether err is an upstream HTTP 429.
func IsRateLimited(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == 429
}

// IsAuthFailure reports whether err looks like an authorization/scope problem
// on the upstream API (the one case where callers retry after a token refresh).
func IsAuthFailure(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && (ue.StatusCode == 401 || ue.StatusCode == 403)
}
