// Package stream delivers pipeline events to the client that submitted
// the request, either as server-sent events or as WebSocket frames.
package stream

import (
	"github.com/nawka12/AiChanWeb/internal/chat"
)

// Event types.
const (
	TypeSearchStatus = "searchStatus"
	TypeFinal        = "final"
	TypeError        = "error"
)

// Event is one record on the outbound stream. Only the fields relevant
// to Type are set.
type Event struct {
	Type string `json:"type"`

	// searchStatus
	Content      string   `json:"content,omitempty"`
	Queries      []string `json:"queries,omitempty"`
	MessageIndex *int     `json:"messageIndex,omitempty"`

	// final
	Response     string      `json:"response,omitempty"`
	Conversation []chat.Turn `json:"conversation,omitempty"`

	// error
	Error string `json:"error,omitempty"`
}

// Progress builds a searchStatus event without a message index.
func Progress(content string, queries []string) Event {
	return Event{Type: TypeSearchStatus, Content: content, Queries: queries}
}

// Completed builds the terminal searchStatus event of a search.
func Completed(content string, queries []string, messageIndex int) Event {
	return Event{Type: TypeSearchStatus, Content: content, Queries: queries, MessageIndex: &messageIndex}
}

// Final builds the terminal event. A nil conversation is omitted.
func Final(response string, conversation []chat.Turn) Event {
	return Event{Type: TypeFinal, Response: response, Conversation: conversation}
}

// Failure builds an error event.
func Failure(message string) Event {
	return Event{Type: TypeError, Error: message}
}

// Emitter writes events for one request in the order Emit is called.
//
// Emit errors mean the client is gone. Callers may ignore them: the
// request runs to completion regardless and later writes fail the same
// way.
type Emitter interface {
	Emit(ev Event) error

	// Started reports whether anything has been written yet. Until
	// then the transport can still answer with a plain error response.
	Started() bool
}

// Recorder is an [Emitter] that keeps events in memory.
type Recorder struct {
	Events []Event
}

// Emit implements [Emitter].
func (r *Recorder) Emit(ev Event) error {
	r.Events = append(r.Events, ev)
	return nil
}

// Started implements [Emitter].
func (r *Recorder) Started() bool { return len(r.Events) > 0 }

// Last returns the most recent event, or the zero Event.
func (r *Recorder) Last() Event {
	if len(r.Events) == 0 {
		return Event{}
	}
	return r.Events[len(r.Events)-1]
}
