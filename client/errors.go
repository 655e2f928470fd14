package client

import "fmt"

// APIRequestError is a non-2xx, non-429 response from the shop API.
// These are terminal for the current run and are never retried.
type APIRequestError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *APIRequestError) Error() string {
	return fmt.Sprintf("api request failed: %s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// APITransportError is a network-level failure (timeout, connection reset).
// The client does not retry these; retry policy belongs to the caller.
type APITransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *APITransportError) Error() string {
	return fmt.Sprintf("api transport error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *APITransportError) Unwrap() error { return e.Err }
