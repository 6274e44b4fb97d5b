package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Configuration errors, raised before any network call is attempted.
var (
	// ErrManagedTokenConflict is returned by NewClient when an explicit
	// token is supplied while token management is enabled.
	ErrManagedTokenConflict = errors.New("metadata: explicit token cannot be combined with managed token mode")

	// ErrNoToken is returned when an authenticated call is issued and no
	// token is available: the caller must supply one via SetToken or
	// enable managed token mode.
	ErrNoToken = errors.New("metadata: no token available, call RefreshToken or enable managed token mode")
)

// APIError is any error returned from the metadata service, typically
// with a status code in the 400s or 500s.
type APIError struct {
	// Status is the HTTP status code of the failure response.
	Status int

	// Body is the decoded JSON error body, nil when the body was not JSON.
	Body map[string]any

	// Reasons holds the reason strings extracted from the body's errors
	// array, in response order. Entries without a reason are skipped.
	Reasons []string
}

func (e *APIError) Error() string {
	msg := strconv.Itoa(e.Status)
	if len(e.Reasons) > 0 {
		msg += ": " + strings.Join(e.Reasons, "; ")
	}
	return msg
}

// newAPIError classifies a failure response, pulling reason strings out
// of the body's errors array when the body parses as JSON.
func newAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{Status: status}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}
	apiErr.Body = body

	entries, ok := body["errors"].([]any)
	if !ok {
		return apiErr
	}
	for _, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if reason, ok := fields["reason"].(string); ok {
			apiErr.Reasons = append(apiErr.Reasons, reason)
		}
	}
	return apiErr
}

// ConnectionError reports a transport-level timeout talking to the
// metadata service. It usually means the process is not running on an
// instance with access to the link-local metadata endpoint.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("metadata: cannot reach the metadata service, verify that you are running inside an instance: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// InvalidRequestError reports a programmer error in how an API call was
// described: an unsupported HTTP method or response content type.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "metadata: invalid request: " + e.Reason
}

// DecodeError reports a response payload that does not match its
// declared content type, such as user data that is not valid base64.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("metadata: decoding %s response: %v", e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// WatchError wraps an error raised by a poller inside a watch loop.
type WatchError struct {
	Err error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("metadata: watch poll failed: %v", e.Err)
}

func (e *WatchError) Unwrap() error { return e.Err }
