// Package llm provides clients for external text-generation services.
package llm

import (
	"context"
	"fmt"
)

// Message is one chat turn sent to a text-generation endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextGenerator is an interface for generating text from chat messages.
type TextGenerator interface {
	GenerateContent(ctx context.Context, messages []Message) (string, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// UpstreamError reports a non-2xx response from a text-generation service.
// The call is never retried; surfacing the status to the caller is the whole
// error policy.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s api error: status=%d body=%s", e.Service, e.StatusCode, e.Body)
}
