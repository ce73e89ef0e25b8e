// ABOUTME: Error types surfaced by the completion client.
// ABOUTME: Distinguishes missing configuration, rejected requests, and transport failures.

package llm

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when the client has no API key. Callers
// degrade to a fixed unavailability message rather than crashing.
var ErrNotConfigured = errors.New("llm: api key not configured")

// RequestError is a non-success status from the completion provider. Message
// carries the provider's own error description when one was present in the
// response body.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("llm: provider rejected request (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm: provider rejected request (status %d)", e.StatusCode)
}
