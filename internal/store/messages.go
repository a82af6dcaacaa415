package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewMessage is the write shape for a single turn. SQLQuery and SQLResults
// are only set on assistant turns that carried an extracted query.
type NewMessage struct {
	ConversationID uuid.UUID
	Role           string
	Content        string
	SQLQuery       *string
	SQLResults     json.RawMessage
}

// Turn is the bounded-history read shape fed back to the model as context.
type Turn struct {
	Role    string
	Content string
}

// Message is the full transcript row, as served to clients.
type Message struct {
	ID             uuid.UUID       `json:"id"`
	ConversationID uuid.UUID       `json:"conversation_id"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	SQLQuery       *string         `json:"sql_query"`
	SQLResults     json.RawMessage `json:"sql_results"`
	CreatedAt      time.Time       `json:"created_at"`
}

// InsertMessage writes one immutable turn.
func (s *Store) InsertMessage(ctx context.Context, m NewMessage) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, sql_query, sql_results, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		id, m.ConversationID, m.Role, m.Content, m.SQLQuery, m.SQLResults,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert message: %w", err)
	}
	return id, nil
}

// RecentMessages returns the last limit turns of a conversation, oldest first.
func (s *Store) RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]Turn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT role, content FROM (
			SELECT role, content, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ConversationMessages returns the full transcript of a conversation,
// oldest first. Callers are responsible for ownership checks.
func (s *Store) ConversationMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, role, content, sql_query, sql_results, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.SQLQuery, &m.SQLResults, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
