package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tarunlokjeet/historia/internal/model/chat"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages (session_id);
`

// PostgresStore persists turns in a single messages table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Append(ctx context.Context, sessionID, role, content string) (chat.Turn, error) {
	turn := chat.Turn{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (session_id, role, content, timestamp) VALUES ($1, $2, $3, $4) RETURNING id`,
		turn.SessionID, turn.Role, turn.Content, turn.Timestamp,
	).Scan(&turn.ID)
	if err != nil {
		return chat.Turn{}, fmt.Errorf("insert message: %w", err)
	}
	return turn, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]chat.Turn, error) {
	return s.query(ctx,
		`SELECT id, session_id, role, content, timestamp FROM messages ORDER BY timestamp ASC`)
}

func (s *PostgresStore) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT session_id FROM messages`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, id)
	}
	return sessions, rows.Err()
}

func (s *PostgresStore) ListBySession(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	return s.query(ctx,
		`SELECT id, session_id, role, content, timestamp FROM messages WHERE session_id = $1`, sessionID)
}

func (s *PostgresStore) query(ctx context.Context, sql string, args ...any) ([]chat.Turn, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	turns := make([]chat.Turn, 0)
	for rows.Next() {
		var t chat.Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Content, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
