package prompts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nawka12/AiChanWeb/internal/chat"
)

var fixedNow = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

func TestSystem(t *testing.T) {
	tests := []struct {
		cmd      chat.Command
		contains string
		absent   string
	}{
		{cmd: chat.Offline, contains: "You're using offline mode.", absent: "connected to the internet with the"},
		{cmd: chat.Search, contains: "connected to the internet with the search command", absent: "offline mode."},
		{cmd: chat.DeepSearch, contains: "connected to the internet with the deepsearch command", absent: "offline mode."},
	}
	for _, tt := range tests {
		t.Run(string(tt.cmd), func(t *testing.T) {
			got := System(tt.cmd, DefaultUsername, fixedNow)
			assert.Contains(t, got, tt.contains)
			assert.NotContains(t, got, tt.absent)
			assert.Contains(t, got, "Ai-chan")
			assert.Contains(t, got, "Kizuna Ai")
			assert.Contains(t, got, "October 16, 2026")
			assert.Contains(t, got, "up to 3 search results")
			assert.Contains(t, got, "up to 10 search results")
			assert.True(t, strings.HasSuffix(got, "You are talking to User."))
		})
	}
}

func TestQueryPersonas(t *testing.T) {
	single := Query("alice", fixedNow)
	assert.Contains(t, single, "a web search query")
	assert.Contains(t, single, "October 16, 2026")
	assert.Contains(t, single, "their name is alice")
	assert.NotContains(t, single, "commas")

	deep := DeepQuery("alice", fixedNow)
	assert.Contains(t, deep, "separated by commas")
	assert.Contains(t, deep, "assume you know nothing")
	assert.Contains(t, deep, "their name is alice")
}

func TestQueryPrompt(t *testing.T) {
	assert.Equal(t, "Question: Who won?", QueryPrompt("", "Who won?"))
	assert.Equal(t, "Context: talking about F1\nQuestion: Who won?", QueryPrompt("talking about F1", "Who won?"))
}

func TestContextPrompt(t *testing.T) {
	turns := []chat.Turn{
		chat.UserText("What is this?"),
		{Role: chat.RoleAssistant, Content: chat.Parts(
			chat.Part{Type: "text", Text: "It is"},
			chat.Part{Type: "image"},
			chat.Part{Type: "text", Text: "a cat."},
		)},
	}

	assert.Equal(t,
		"Last conversation: What is this?\nIt is [Image] a cat.",
		ContextPrompt("", turns))
	assert.Equal(t,
		"Last context summary: pets\nLast conversation: What is this?\nIt is [Image] a cat.",
		ContextPrompt("pets", turns))
}

func TestContext(t *testing.T) {
	assert.Contains(t, Context(), "context summary")
}
