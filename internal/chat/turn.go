// Package chat defines the conversation data model shared by the
// session store, the pipeline stages, and the HTTP layer: turns and
// their content, the mode a request runs in, and the search trail
// recorded against a turn.
package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Role identifies who produced a turn.
type Role string

// Turn roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ImagePlaceholder stands in for non-text parts when content is
// flattened to plain text.
const ImagePlaceholder = "[Image]"

// Part is one element of multi-part content.
type Part struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *ImageSource `json:"source,omitempty"`
}

// ImageSource is an inline image payload.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// IsText reports whether the part carries text.
func (p Part) IsText() bool { return p.Type == "text" }

func (p Part) equal(o Part) bool {
	if p.Type != o.Type || p.Text != o.Text {
		return false
	}
	if p.Source == nil || o.Source == nil {
		return p.Source == o.Source
	}
	return *p.Source == *o.Source
}

// Content is either a plain string or an ordered list of parts. The
// two shapes are distinct: "hi" and [{type:text,text:hi}] are not
// equal, and each round-trips through JSON in its own shape.
type Content struct {
	text    string
	parts   []Part
	isParts bool
}

// Text returns string content.
func Text(s string) Content { return Content{text: s} }

// Parts returns multi-part content. The slice is copied.
func Parts(parts ...Part) Content {
	return Content{parts: slices.Clone(parts), isParts: true}
}

// IsParts reports whether c is multi-part content.
func (c Content) IsParts() bool { return c.isParts }

// PartList returns a copy of the parts of multi-part content, or nil.
func (c Content) PartList() []Part { return slices.Clone(c.parts) }

// String flattens c to plain text. Text parts are joined with a single
// space and every other part becomes [ImagePlaceholder].
func (c Content) String() string {
	if !c.isParts {
		return c.text
	}
	out := make([]string, 0, len(c.parts))
	for _, p := range c.parts {
		if p.IsText() {
			out = append(out, p.Text)
		} else {
			out = append(out, ImagePlaceholder)
		}
	}
	return strings.Join(out, " ")
}

// Equal reports structural equality.
func (c Content) Equal(o Content) bool {
	if c.isParts != o.isParts {
		return false
	}
	if !c.isParts {
		return c.text == o.text
	}
	return slices.EqualFunc(c.parts, o.parts, Part.equal)
}

// MarshalJSON emits a JSON string or a JSON array.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.isParts {
		if c.parts == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.parts)
	}
	return json.Marshal(c.text)
}

// UnmarshalJSON accepts a JSON string or a JSON array of parts.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("chat: empty content")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Text(s)
		return nil
	case '[':
		var parts []Part
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = Content{parts: parts, isParts: true}
		return nil
	default:
		return fmt.Errorf("chat: content must be a string or an array, got %.20s", data)
	}
}

// Turn is one message in a conversation.
type Turn struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// UserText builds a user turn with string content.
func UserText(s string) Turn { return Turn{Role: RoleUser, Content: Text(s)} }

// AssistantText builds an assistant turn with string content.
func AssistantText(s string) Turn { return Turn{Role: RoleAssistant, Content: Text(s)} }

// Equal reports whether t and o have the same role and content.
func (t Turn) Equal(o Turn) bool {
	return t.Role == o.Role && t.Content.Equal(o.Content)
}

// SearchStatus is the terminal progress message of a search.
type SearchStatus struct {
	Content string   `json:"content"`
	Queries []string `json:"queries"`
}

// SearchStatusRecord ties a search trail to the conversation position
// at which the search began.
type SearchStatusRecord struct {
	MessageIndex int          `json:"messageIndex"`
	Status       SearchStatus `json:"status"`
}
