package prompts

import (
	"strings"

	"github.com/nawka12/AiChanWeb/internal/chat"
)

const contextPersona = `Your job is to analyze conversations and write a concise context summary that captures the key information needed to understand follow-up questions.`

// Context returns the persona for the rolling context summary.
func Context() string {
	return contextPersona
}

// ContextPrompt renders the turns to plain text, one per line, after
// the previous summary if there is one.
func ContextPrompt(prior string, turns []chat.Turn) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = t.Content.String()
	}
	conversation := "Last conversation: " + strings.Join(lines, "\n")
	if prior == "" {
		return conversation
	}
	return "Last context summary: " + prior + "\n" + conversation
}
