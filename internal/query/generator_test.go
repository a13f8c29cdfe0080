package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nawka12/AiChanWeb/internal/chat"
	"github.com/nawka12/AiChanWeb/internal/llm"
)

type cannedClient struct {
	reply string
	err   error
	reqs  []llm.Request
}

func (c *cannedClient) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	c.reqs = append(c.reqs, req)
	if c.err != nil {
		return nil, c.err
	}
	return &llm.Response{Text: c.reply}, nil
}

var fixedClock = WithClock(func() time.Time { return time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC) })

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     chat.Command
		reply   string
		summary string
		want    []string
		persona string
	}{
		{
			name:    "search returns one trimmed query",
			cmd:     chat.Search,
			reply:   "  capital of France \n",
			want:    []string{"capital of France"},
			persona: "a web search query",
		},
		{
			name:    "search keeps commas inside the query",
			cmd:     chat.Search,
			reply:   "Paris, France population",
			want:    []string{"Paris, France population"},
			persona: "a web search query",
		},
		{
			name:    "deepsearch splits and trims",
			cmd:     chat.DeepSearch,
			reply:   "F1 2026 results , F1 standings,Verstappen wins",
			want:    []string{"F1 2026 results", "F1 standings", "Verstappen wins"},
			persona: "separated by commas",
		},
		{
			name:    "deepsearch keeps repeated queries",
			cmd:     chat.DeepSearch,
			reply:   "a, a",
			want:    []string{"a", "a"},
			persona: "separated by commas",
		},
		{
			name:    "summary goes into the prompt",
			cmd:     chat.Search,
			reply:   "q",
			summary: "talking about racing",
			want:    []string{"q"},
			persona: "a web search query",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &cannedClient{reply: tt.reply}
			got, err := New(client, nil, fixedClock).Generate(context.Background(), tt.cmd, "Who won?", tt.summary)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			require.Len(t, client.reqs, 1)
			req := client.reqs[0]
			assert.Contains(t, req.System, tt.persona)
			assert.Contains(t, req.System, "October 16, 2026")
			assert.Equal(t, MaxTokens, req.MaxTokens)
			require.NotNil(t, req.Temperature)
			assert.InDelta(t, Temperature, *req.Temperature, 0.0001)

			wantPrompt := "Question: Who won?"
			if tt.summary != "" {
				wantPrompt = "Context: " + tt.summary + "\n" + wantPrompt
			}
			assert.Equal(t, wantPrompt, req.Messages[0].Content.String())
		})
	}
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("provider failure", func(t *testing.T) {
		_, err := New(&cannedClient{err: errors.New("boom")}, nil).Generate(context.Background(), chat.Search, "q", "")
		assert.Error(t, err)
	})
	t.Run("empty reply", func(t *testing.T) {
		_, err := New(&cannedClient{reply: " , ,"}, nil).Generate(context.Background(), chat.DeepSearch, "q", "")
		assert.Error(t, err)
	})
	t.Run("offline mode", func(t *testing.T) {
		client := &cannedClient{reply: "q"}
		_, err := New(client, nil).Generate(context.Background(), chat.Offline, "q", "")
		assert.Error(t, err)
		assert.Empty(t, client.reqs)
	})
}

func TestWithUsername(t *testing.T) {
	client := &cannedClient{reply: "q"}
	_, err := New(client, nil, WithUsername("alice")).Generate(context.Background(), chat.Search, "who am I", "")
	require.NoError(t, err)
	assert.Contains(t, client.reqs[0].System, "their name is alice")
}

func TestSplitQueries(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, SplitQueries(" a ,b c,"))
	assert.Empty(t, SplitQueries(""))
}
