package llm

import (
	"log/slog"

	"github.com/nawka12/AiChanWeb/internal/chat"
)

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// Request is a provider-neutral completion request.
type Request struct {
	// Model overrides the client's default model when set.
	Model    string
	System   string
	Messages []chat.Turn

	MaxTokens int

	// Temperature is omitted from the wire request when nil.
	Temperature *float32
}

// Response is the provider-neutral reply. Text is the concatenation of
// every text block and may be empty.
type Response struct {
	Text       string
	Model      string
	StopReason string

	InputTokens  int
	OutputTokens int
}

// Temperature returns a pointer for [Request.Temperature].
func Temperature(t float32) *float32 { return &t }
