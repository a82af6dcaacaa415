package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/quillhq/scrivener/internal/invoice"
	"github.com/quillhq/scrivener/internal/store"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// A little headroom over the document limit for multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusBadRequest, "File size too large. Maximum size is 10MB.")
			return
		}
		s.writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("failed to read upload", "user_id", userID, "error", err)
		s.writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	inv, publicURL, err := s.invoices.Upload(r.Context(), userID, header.Filename, mimeType, data)
	switch {
	case errors.Is(err, invoice.ErrUnsupportedType):
		s.writeError(w, http.StatusBadRequest, "Invalid file type. Only PDF, PNG, and JPEG files are allowed.")
		return
	case errors.Is(err, invoice.ErrTooLarge):
		s.writeError(w, http.StatusBadRequest, "File size too large. Maximum size is 10MB.")
		return
	case err != nil:
		s.logger.Error("upload failed", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeData(w, http.StatusOK, map[string]any{
		"invoice":    inv,
		"public_url": publicURL,
	})
}

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	invoices, err := s.invoices.List(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to list invoices", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if invoices == nil {
		invoices = []store.Invoice{}
	}
	s.writeData(w, http.StatusOK, invoices)
}

func (s *Server) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	err = s.invoices.Delete(r.Context(), userID, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "Invoice not found")
		return
	case err != nil:
		s.logger.Error("failed to delete invoice", "user_id", userID, "invoice_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success":true,"message":"Invoice deleted"}`))
}
