package clients

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured is returned when a client has no credentials or endpoint
var ErrNotConfigured = errors.New("client not configured")

// APIError represents a non-2xx response from a remote API
type APIError struct {
	Provider   string
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s API error (status %d, %s): %s", e.Provider, e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// RateLimited reports whether the provider rejected the call for quota or rate reasons
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}

// AsAPIError unwraps err into an APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

var (
	// ErrEmptyResponse means the provider answered 2xx without any text
	ErrEmptyResponse = errors.New("empty response content")
	// ErrMalformedResponse means a 2xx body could not be decoded
	ErrMalformedResponse = errors.New("malformed response")
)
