// Package llm provides the completion provider used by every pipeline
// stage: context summaries, query generation, and final answers.
package llm

import (
	"context"
	"errors"
)

// Client is the interface completion providers implement.
type Client interface {
	// Complete sends one non-streaming request and returns the reply.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Factory builds a Client for a credential. The pipeline calls it once
// per request so a newly saved key takes effect immediately.
type Factory func(apiKey string) Client

// ErrUnauthorized marks errors where the provider rejected the
// credential. Test with [IsAuthError].
var ErrUnauthorized = errors.New("provider rejected credential")

// IsAuthError reports whether err means the credential was rejected.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
