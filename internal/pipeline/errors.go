package pipeline

import (
	"errors"
	"fmt"

	"github.com/nawka12/AiChanWeb/internal/llm"
)

// Messages shown to the user for each failure class.
const (
	MsgNoCredential  = "API key is not set. Please set up your Anthropic API key in the settings."
	MsgBadCredential = "There was an error with the API key. Please check your Anthropic API key in the settings."
	MsgGeneric       = "I apologize, but there was an error processing your request. Please try again later."
	MsgSearchFailed  = "There was an error processing your search request."
)

// ConfigurationError means no provider credential is available. It is
// raised before any provider call or state change.
type ConfigurationError struct{}

func (*ConfigurationError) Error() string { return "provider credential is not set" }

// SearchError is any failure while preparing web results: summarizing
// context, writing queries, or running them. No answer is produced.
type SearchError struct {
	Stage string
	Err   error
}

func (e *SearchError) Error() string { return fmt.Sprintf("search %s: %v", e.Stage, e.Err) }
func (e *SearchError) Unwrap() error { return e.Err }

// ProviderError is a completion failure outside the search phase.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return "provider: " + e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }

// Auth reports whether the provider rejected the credential.
func (e *ProviderError) Auth() bool { return llm.IsAuthError(e.Err) }

// UserMessage maps err to the text shown to the user.
func UserMessage(err error) string {
	var (
		cfgErr    *ConfigurationError
		searchErr *SearchError
		provErr   *ProviderError
	)
	switch {
	case errors.As(err, &cfgErr):
		return MsgNoCredential
	case errors.As(err, &searchErr):
		return MsgSearchFailed
	case errors.As(err, &provErr) && provErr.Auth():
		return MsgBadCredential
	default:
		return MsgGeneric
	}
}
