package store

import (
	"context"
	"testing"

	"github.com/tarunlokjeet/historia/internal/model/chat"
)

func TestAppendAssignsServerSideFields(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	turn, err := s.Append(ctx, "sess-1", chat.RoleUser, "hello")
	if err != nil {
		t.Fatalf("Append err: %v", err)
	}
	if turn.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if turn.Timestamp.IsZero() {
		t.Fatal("expected server-side timestamp")
	}
}

func TestListAllOrderedByTimestamp(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// Interleave sessions; ordering must hold across all of them.
	s.Append(ctx, "a", chat.RoleUser, "1")
	s.Append(ctx, "b", chat.RoleUser, "2")
	s.Append(ctx, "a", chat.RoleAssistant, "3")
	s.Append(ctx, "c", chat.RoleUser, "4")

	turns, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll err: %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(turns))
	}
	for i := 1; i < len(turns); i++ {
		if turns[i].Timestamp.Before(turns[i-1].Timestamp) {
			t.Fatalf("turns out of timestamp order at index %d", i)
		}
	}
}

func TestListBySessionFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Append(ctx, "a", chat.RoleUser, "mine")
	s.Append(ctx, "b", chat.RoleUser, "theirs")
	s.Append(ctx, "a", chat.RoleAssistant, "also mine")

	turns, err := s.ListBySession(ctx, "a")
	if err != nil {
		t.Fatalf("ListBySession err: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns for session a, got %d", len(turns))
	}
	for _, turn := range turns {
		if turn.SessionID != "a" {
			t.Fatalf("unexpected session %s in results", turn.SessionID)
		}
	}

	empty, err := s.ListBySession(ctx, "nope")
	if err != nil {
		t.Fatalf("ListBySession err: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no turns for unknown session, got %d", len(empty))
	}
}

func TestListSessionsDistinct(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Append(ctx, "a", chat.RoleUser, "1")
	s.Append(ctx, "a", chat.RoleAssistant, "2")
	s.Append(ctx, "b", chat.RoleUser, "3")

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions err: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 distinct sessions, got %v", sessions)
	}
}
