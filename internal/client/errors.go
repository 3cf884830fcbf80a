package client

import "fmt"

// TransportError represents a network or HTTP-level failure. Forward
// refreshes swallow it as "no new data"; backward pagination retries it.
type TransportError struct {
	// StatusCode is the HTTP status, 0 for connection-level failures.
	StatusCode int

	// Err is the underlying cause, nil for plain bad-status responses.
	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feed transport: %v", e.Err)
	}
	return fmt.Sprintf("feed transport: unexpected status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponse represents a response body that could not be decoded.
// Callers treat it like an empty result; it never propagates into a merge.
type MalformedResponse struct {
	Err error
}

func (e *MalformedResponse) Error() string {
	return fmt.Sprintf("feed response malformed: %v", e.Err)
}

func (e *MalformedResponse) Unwrap() error {
	return e.Err
}
