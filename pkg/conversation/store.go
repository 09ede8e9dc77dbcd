package conversation

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/traceline/traceline/pkg/sdk"
)

// Store is an ephemeral in-memory record of conversation turns, keyed by
// conversation id. Turns never persist across restarts; it exists so clients
// can hold a multi-turn Q&A thread against one session.
type Store struct {
	mu       sync.RWMutex
	turns    map[string][]sdk.ChatMessage
	metadata map[string]map[string]any
}

// NewStore creates an empty conversation store
func NewStore() *Store {
	return &Store{
		turns:    make(map[string][]sdk.ChatMessage),
		metadata: make(map[string]map[string]any),
	}
}

// GenerateID returns a fresh random conversation identifier
func (s *Store) GenerateID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// Append records one turn at the end of a conversation
func (s *Store) Append(conversationID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[conversationID] = append(s.turns[conversationID], sdk.ChatMessage{Role: role, Content: content})
}

// Get returns a copy of the turns recorded for a conversation
func (s *Store) Get(conversationID string) []sdk.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]sdk.ChatMessage(nil), s.turns[conversationID]...)
}

// SetMetadata attaches debugging metadata to a conversation, replacing any
// previous value
func (s *Store) SetMetadata(conversationID string, metadata map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[conversationID] = metadata
}

// Metadata returns the debugging metadata attached to a conversation
func (s *Store) Metadata(conversationID string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata[conversationID]
}
