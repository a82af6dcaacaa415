package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QueryLog is a write-only audit entry for an attempted SQL execution.
type QueryLog struct {
	UserID   uuid.UUID
	Query    string
	Results  json.RawMessage
	Error    *string
	Duration time.Duration
}

func (s *Store) InsertQueryLog(ctx context.Context, l QueryLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sql_queries (id, user_id, query, results, error, execution_time_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		uuid.New(), l.UserID, l.Query, l.Results, l.Error, l.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert query log: %w", err)
	}
	return nil
}
