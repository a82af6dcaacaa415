package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/quillhq/scrivener/internal/events"
	"github.com/quillhq/scrivener/internal/extractor"
	"github.com/quillhq/scrivener/internal/objstore"
	"github.com/quillhq/scrivener/internal/store"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

// allowedTypes maps accepted MIME types to the object-key extension.
var allowedTypes = map[string]string{
	"application/pdf": "pdf",
	"image/png":       "png",
	"image/jpeg":      "jpg",
	"image/jpg":       "jpg",
}

// Store is the slice of the persistence layer the invoice flow needs.
type Store interface {
	InsertInvoice(ctx context.Context, n store.NewInvoice) (*store.Invoice, error)
	ListInvoices(ctx context.Context, userID uuid.UUID) ([]store.Invoice, error)
	GetInvoice(ctx context.Context, id, userID uuid.UUID) (*store.Invoice, error)
	DeleteInvoice(ctx context.Context, id, userID uuid.UUID) error
}

// FieldExtractor turns document text into structured invoice fields.
type FieldExtractor interface {
	Fields(ctx context.Context, documentText string) (extractor.InvoiceFields, error)
}

// TextExtractor recovers text from an uploaded document for the field
// extractor to work on.
type TextExtractor interface {
	Text(ctx context.Context, mimeType string, data []byte) (string, error)
}

// PlaceholderText stands in until PDF parsing and OCR are wired up.
type PlaceholderText struct{}

func (PlaceholderText) Text(_ context.Context, mimeType string, _ []byte) (string, error) {
	if mimeType == "application/pdf" {
		return "PDF text extraction is not wired up yet", nil
	}
	return "OCR text extraction is not wired up yet", nil
}

// Service runs the upload pipeline: validate, store the file, extract fields
// best-effort, persist metadata.
type Service struct {
	store    Store
	objects  objstore.ObjectStore
	fields   FieldExtractor
	text     TextExtractor
	events   *events.Publisher
	maxBytes int64
	logger   *slog.Logger
}

func NewService(s Store, o objstore.ObjectStore, f FieldExtractor, t TextExtractor, ev *events.Publisher, maxBytes int64, logger *slog.Logger) *Service {
	return &Service{store: s, objects: o, fields: f, text: t, events: ev, maxBytes: maxBytes, logger: logger}
}

// Upload validates and stores one uploaded document. The stored file is the
// deliverable: field extraction failures degrade to empty metadata, but an
// object-store or metadata-row failure aborts the upload. When the metadata
// row cannot be written, the already-stored object is removed best-effort so
// the two stores do not drift apart.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, originalName, mimeType string, data []byte) (*store.Invoice, string, error) {
	ext, ok := allowedTypes[mimeType]
	if !ok {
		return nil, "", ErrUnsupportedType
	}
	if int64(len(data)) > s.maxBytes {
		return nil, "", ErrTooLarge
	}

	key := fmt.Sprintf("%s/%d.%s", userID, time.Now().UnixMilli(), ext)

	// Images are normalized before storage; the row below still records the
	// original size and type.
	stored, optErr := optimizeImage(mimeType, data)
	if optErr != nil {
		s.logger.Warn("image optimization failed, storing original", "mime_type", mimeType, "error", optErr)
	}

	if err := s.objects.Upload(ctx, key, mimeType, stored); err != nil {
		return nil, "", fmt.Errorf("store file: %w", err)
	}

	extracted := s.extract(ctx, mimeType, data)

	inv, err := s.store.InsertInvoice(ctx, store.NewInvoice{
		UserID:           userID,
		Filename:         key,
		OriginalFilename: originalName,
		FilePath:         key,
		FileSize:         int64(len(data)),
		MimeType:         mimeType,
		ExtractedData:    extracted,
	})
	if err != nil {
		if rmErr := s.objects.Remove(ctx, key); rmErr != nil {
			s.logger.Error("failed to clean up orphaned object", "path", key, "error", rmErr)
		}
		return nil, "", fmt.Errorf("save invoice: %w", err)
	}

	if s.events != nil {
		if pubErr := s.events.Publish(events.SubjectInvoiceStored, map[string]any{
			"invoice_id": inv.ID.String(),
			"user_id":    userID.String(),
			"mime_type":  mimeType,
			"file_size":  len(data),
		}); pubErr != nil {
			s.logger.Warn("failed to publish invoice event", "invoice_id", inv.ID, "error", pubErr)
		}
	}

	return inv, s.objects.PublicURL(key), nil
}

// extract runs text recovery and field extraction, degrading to an empty
// object on any failure.
func (s *Service) extract(ctx context.Context, mimeType string, data []byte) json.RawMessage {
	text, err := s.text.Text(ctx, mimeType, data)
	if err != nil {
		s.logger.Warn("text extraction failed", "mime_type", mimeType, "error", err)
		return json.RawMessage(`{}`)
	}

	fields, err := s.fields.Fields(ctx, text)
	if err != nil {
		s.logger.Warn("field extraction failed", "error", err)
		return json.RawMessage(`{}`)
	}

	out, err := json.Marshal(fields)
	if err != nil {
		s.logger.Warn("failed to encode extracted fields", "error", err)
		return json.RawMessage(`{}`)
	}
	return out
}

// List returns the user's invoices, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]store.Invoice, error) {
	return s.store.ListInvoices(ctx, userID)
}

// Delete removes an invoice and its stored object. A storage removal failure
// is logged and the row is deleted anyway.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	inv, err := s.store.GetInvoice(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.objects.Remove(ctx, inv.FilePath); err != nil {
		s.logger.Warn("failed to remove stored object", "path", inv.FilePath, "error", err)
	}

	return s.store.DeleteInvoice(ctx, id, userID)
}
