package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tarunlokjeet/historia/internal/model/chat"
)

// MemoryStore keeps turns in process memory. Used when no DATABASE_URL is
// configured and throughout the test suite.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	turns  []chat.Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Append(_ context.Context, sessionID, role, content string) (chat.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := chat.Turn{
		ID:        s.nextID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	s.nextID++
	s.turns = append(s.turns, turn)
	return turn, nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Turn, len(s.turns))
	copy(out, s.turns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *MemoryStore) ListSessions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	sessions := make([]string, 0)
	for _, t := range s.turns {
		if !seen[t.SessionID] {
			seen[t.SessionID] = true
			sessions = append(sessions, t.SessionID)
		}
	}
	return sessions, nil
}

func (s *MemoryStore) ListBySession(_ context.Context, sessionID string) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Turn, 0)
	for _, t := range s.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() {}
