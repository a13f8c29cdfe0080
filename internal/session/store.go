// Package session holds per-user conversation state for the lifetime of
// the process.
//
// Each mutation is atomic on its own, but nothing serializes a whole
// request: two requests for one user may both read the same
// conversation, and their later writes interleave. Clients are expected
// to run one tab per user id. A caller that needs a stricter discipline
// can wrap a [Store] without changing the pipeline.
package session

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/nawka12/AiChanWeb/internal/chat"
)

// Session is a snapshot of one user's state. Mutating a snapshot does
// not affect the store.
type Session struct {
	Conversation []chat.Turn
	Summary      string
	SearchLog    []chat.SearchStatusRecord
	Command      chat.Command
}

func newSession() *Session {
	return &Session{
		Conversation: []chat.Turn{},
		SearchLog:    []chat.SearchStatusRecord{},
		Command:      chat.Offline,
	}
}

func (s *Session) clone() Session {
	return Session{
		Conversation: slices.Clone(s.Conversation),
		Summary:      s.Summary,
		SearchLog:    slices.Clone(s.SearchLog),
		Command:      s.Command,
	}
}

// Store is the keyed session store the pipeline and the HTTP layer
// depend on.
type Store interface {
	// Get returns a snapshot of the session, creating a default one
	// for an unseen id.
	Get(userID string) Session

	// Peek returns a snapshot without creating anything. The bool is
	// false when the id has no session.
	Peek(userID string) (Session, bool)

	// Reset removes all state for the id. Unknown ids are fine.
	Reset(userID string)

	// SetCommand records the active mode without touching the
	// conversation.
	SetCommand(userID string, cmd chat.Command)

	// SetSummary overwrites the rolling context summary.
	SetSummary(userID, summary string)

	// AppendTurns merges turns into the stored conversation and
	// returns the resulting conversation.
	AppendTurns(userID string, turns ...chat.Turn) []chat.Turn

	// AppendSearchStatus adds one record to the search log.
	AppendSearchStatus(userID string, rec chat.SearchStatusRecord)
}

// MemoryStore is a [Store] backed by an in-process cache. Entries never
// expire; only Reset removes them.
type MemoryStore struct {
	// mu makes each read-modify-write a single step. It is held only
	// for the copy, never across a provider call.
	mu     sync.Mutex
	cache  *cache.Cache
	logger *slog.Logger
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		// No default expiration and no janitor goroutine.
		cache:  cache.New(cache.NoExpiration, 0),
		logger: logger.With("component", "session"),
	}
}

func (m *MemoryStore) lookup(userID string) (*Session, bool) {
	v, ok := m.cache.Get(userID)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// loadOrCreate must be called with mu held.
func (m *MemoryStore) loadOrCreate(userID string) *Session {
	if s, ok := m.lookup(userID); ok {
		return s
	}
	s := newSession()
	m.cache.Set(userID, s, cache.NoExpiration)
	m.logger.Debug("session created", "user_id", userID, "sessions", m.cache.ItemCount())
	return s
}

// Get implements [Store].
func (m *MemoryStore) Get(userID string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadOrCreate(userID).clone()
}

// Peek implements [Store].
func (m *MemoryStore) Peek(userID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.lookup(userID)
	if !ok {
		return Session{}, false
	}
	return s.clone(), true
}

// Reset implements [Store].
func (m *MemoryStore) Reset(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Delete(userID)
	m.logger.Debug("session reset", "user_id", userID)
}

// SetCommand implements [Store].
func (m *MemoryStore) SetCommand(userID string, cmd chat.Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadOrCreate(userID).Command = cmd
}

// SetSummary implements [Store].
func (m *MemoryStore) SetSummary(userID, summary string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadOrCreate(userID).Summary = summary
}

// AppendTurns implements [Store].
func (m *MemoryStore) AppendTurns(userID string, turns ...chat.Turn) []chat.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.loadOrCreate(userID)
	s.Conversation = chat.Merge(s.Conversation, turns)
	return slices.Clone(s.Conversation)
}

// AppendSearchStatus implements [Store].
func (m *MemoryStore) AppendSearchStatus(userID string, rec chat.SearchStatusRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.loadOrCreate(userID)
	s.SearchLog = append(s.SearchLog, rec)
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.ItemCount()
}
