package store

import (
	"context"
	"errors"

	"github.com/tarunlokjeet/historia/internal/model/chat"
)

var ErrSessionNotFound = errors.New("session not found")

// MessageStore persists chat turns. The surface is append-only: turns are
// never updated or deleted once written.
type MessageStore interface {
	Append(ctx context.Context, sessionID, role, content string) (chat.Turn, error)
	ListAll(ctx context.Context) ([]chat.Turn, error)
	ListSessions(ctx context.Context) ([]string, error)
	ListBySession(ctx context.Context, sessionID string) ([]chat.Turn, error)
	Close()
}
