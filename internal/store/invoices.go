package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Invoice struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Filename         string          `json:"filename"`
	OriginalFilename string          `json:"original_filename"`
	FilePath         string          `json:"file_path"`
	FileSize         int64           `json:"file_size"`
	MimeType         string          `json:"mime_type"`
	ExtractedData    json.RawMessage `json:"extracted_data"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type NewInvoice struct {
	UserID           uuid.UUID
	Filename         string
	OriginalFilename string
	FilePath         string
	FileSize         int64
	MimeType         string
	ExtractedData    json.RawMessage
}

func (s *Store) InsertInvoice(ctx context.Context, n NewInvoice) (*Invoice, error) {
	inv := Invoice{
		ID:               uuid.New(),
		UserID:           n.UserID,
		Filename:         n.Filename,
		OriginalFilename: n.OriginalFilename,
		FilePath:         n.FilePath,
		FileSize:         n.FileSize,
		MimeType:         n.MimeType,
		ExtractedData:    n.ExtractedData,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO invoices (id, user_id, filename, original_filename, file_path, file_size, mime_type, extracted_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING created_at, updated_at`,
		inv.ID, inv.UserID, inv.Filename, inv.OriginalFilename, inv.FilePath, inv.FileSize, inv.MimeType, inv.ExtractedData,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}
	return &inv, nil
}

// ListInvoices returns the user's invoices, newest first.
func (s *Store) ListInvoices(ctx context.Context, userID uuid.UUID) ([]Invoice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, filename, original_filename, file_path, file_size, mime_type, extracted_data, created_at, updated_at
		FROM invoices
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.Filename, &inv.OriginalFilename, &inv.FilePath,
			&inv.FileSize, &inv.MimeType, &inv.ExtractedData, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// GetInvoice fetches a single invoice, scoped to its owner.
func (s *Store) GetInvoice(ctx context.Context, id, userID uuid.UUID) (*Invoice, error) {
	var inv Invoice
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, filename, original_filename, file_path, file_size, mime_type, extracted_data, created_at, updated_at
		FROM invoices
		WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&inv.ID, &inv.UserID, &inv.Filename, &inv.OriginalFilename, &inv.FilePath,
		&inv.FileSize, &inv.MimeType, &inv.ExtractedData, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &inv, nil
}

// DeleteInvoice removes an invoice row, scoped to its owner.
func (s *Store) DeleteInvoice(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM invoices WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
