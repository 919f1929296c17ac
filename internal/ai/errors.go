package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrAPIKeyMissing is returned before any network call when a non-local
// endpoint is configured without a credential.
var ErrAPIKeyMissing = errors.New("API key is not configured")

// UpstreamError is a non-success HTTP response from the completion endpoint.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	msg := e.Body
	var parsed struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(e.Body), &parsed) == nil && parsed.Error != nil && parsed.Error.Message != "" {
		msg = parsed.Error.Message
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return fmt.Sprintf("API error: status %d", e.Status)
	}
	return fmt.Sprintf("API error (%d): %s", e.Status, msg)
}

// TransportError is a network-level failure talking to the endpoint.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "API request failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }
