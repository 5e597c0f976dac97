package catalog

import "fmt"

// AuthenticationError represents a rejected session, typically an expired
// or invalid mam_id cookie on the user-details call.
type AuthenticationError struct {
	Operation  string // The operation that required authentication
	StatusCode int    // HTTP status code returned by the service
	Err        error  // Underlying error, if any
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed during %s (HTTP %d)", e.Operation, e.StatusCode)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// NetworkError represents network failures and API errors including non-2xx
// responses, connection timeouts, and rate limiting.
type NetworkError struct {
	Operation  string // The operation that failed (e.g., "fetch_torrent", "fetch_batch")
	StatusCode int    // HTTP status code, if applicable (0 for non-HTTP errors)
	APIMessage string // Error message from the API or network layer
	Err        error  // Underlying error, if any
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("network error during %s (HTTP %d): %s", e.Operation, e.StatusCode, e.APIMessage)
	}
	return fmt.Sprintf("network error during %s: %s", e.Operation, e.APIMessage)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
