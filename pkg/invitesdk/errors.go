package invitesdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// APIError is a non-2xx response from the service. Compare against the
// predefined errors with errors.Is; only the status code is matched.
type APIError struct {
	StatusCode int
	Message    string

	// RetryAfter is set for 429 and 503 responses.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.StatusCode == e.StatusCode
}

// Temporary reports whether the same request may succeed if retried later.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

var (
	ErrInvalidRequest  = &APIError{StatusCode: http.StatusBadRequest}
	ErrUnauthenticated = &APIError{StatusCode: http.StatusUnauthorized}
	ErrForbidden       = &APIError{StatusCode: http.StatusForbidden}
	ErrNotFound        = &APIError{StatusCode: http.StatusNotFound}

	// ErrConflict covers an already used invite and an email that already
	// has an account.
	ErrConflict = &APIError{StatusCode: http.StatusConflict}

	ErrExpired     = &APIError{StatusCode: http.StatusGone}
	ErrRateLimited = &APIError{StatusCode: http.StatusTooManyRequests}
	ErrUnavailable = &APIError{StatusCode: http.StatusServiceUnavailable}
)

// parseErrorResponse converts an error response into an *APIError.
// Returns nil if the response indicates success (2xx status code).
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		apiErr.Message = errResp.Error
	}

	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}

	return apiErr
}
