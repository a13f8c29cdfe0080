// Package transcript renders a stored conversation as a standalone HTML
// page. Assistant turns are markdown; user turns are shown verbatim.
package transcript

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/yuin/goldmark"

	"github.com/nawka12/AiChanWeb/internal/chat"
)

// Page is the input to [Render].
type Page struct {
	UserID       string
	Conversation []chat.Turn
	SearchLog    []chat.SearchStatusRecord
	Command      chat.Command
	Generated    time.Time
}

type entry struct {
	Role   chat.Role
	Body   template.HTML
	Search *chat.SearchStatus
}

var pageTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8">
<title>Ai-chan conversation {{.UserID}}</title>
<style>
body { font-family: sans-serif; font-size: 14px; line-height: 1.5; max-width: 48em; margin: 2em auto; }
.turn { margin: 1em 0; padding: 0.5em 1em; border-radius: 6px; }
.user { background: #eef4ff; white-space: pre-wrap; }
.assistant { background: #f6f6f6; }
.search { color: #666; font-size: 12px; }
</style></head>
<body>
<h1>Conversation {{.UserID}}</h1>
<p class="search">Mode: {{.Command}} &middot; exported {{.Generated}}</p>
{{range .Entries}}{{if .Search}}<div class="search">{{.Search.Content}}{{range .Search.Queries}} &middot; {{.}}{{end}}</div>
{{end}}<div class="turn {{.Role}}">{{.Body}}</div>
{{end}}</body></html>
`))

// Render writes the page for p to w.
func Render(w io.Writer, p Page) error {
	searches := make(map[int]chat.SearchStatus, len(p.SearchLog))
	for _, rec := range p.SearchLog {
		searches[rec.MessageIndex] = rec.Status
	}

	entries := make([]entry, 0, len(p.Conversation))
	for i, turn := range p.Conversation {
		e := entry{Role: turn.Role}
		if s, ok := searches[i]; ok {
			e.Search = &s
		}
		if turn.Role == chat.RoleAssistant {
			body, err := markdown(turn.Content.String())
			if err != nil {
				return fmt.Errorf("render turn %d: %w", i, err)
			}
			e.Body = body
		} else {
			e.Body = template.HTML(template.HTMLEscapeString(turn.Content.String()))
		}
		entries = append(entries, e)
	}

	generated := p.Generated
	if generated.IsZero() {
		generated = time.Now()
	}

	return pageTemplate.Execute(w, struct {
		UserID    string
		Command   chat.Command
		Generated string
		Entries   []entry
	}{
		UserID:    p.UserID,
		Command:   p.Command,
		Generated: generated.UTC().Format(time.RFC3339),
		Entries:   entries,
	})
}

// markdown converts src to HTML. Raw HTML in src is dropped by the
// renderer, so the result is safe to embed.
func markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
