package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/quillhq/scrivener/internal/auth"
	"github.com/quillhq/scrivener/internal/chat"
	"github.com/quillhq/scrivener/internal/invoice"
)

type Server struct {
	router    *chi.Mux
	port      int
	verifier  auth.Verifier
	chat      *chat.Service
	invoices  *invoice.Service
	maxUpload int64
	logger    *slog.Logger
}

func NewServer(port int, verifier auth.Verifier, chatSvc *chat.Service, invoiceSvc *invoice.Service, maxUpload int64, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      port,
		verifier:  verifier,
		chat:      chatSvc,
		invoices:  invoiceSvc,
		maxUpload: maxUpload,
		logger:    logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/status", s.status)
	router.Post("/api/v1/chat", s.handleChat)
	router.Get("/api/v1/conversations", s.listConversations)
	router.Get("/api/v1/conversations/{id}/messages", s.listMessages)
	router.Post("/api/v1/upload", s.handleUpload)
	router.Get("/api/v1/invoices", s.listInvoices)
	router.Delete("/api/v1/invoices/{id}", s.deleteInvoice)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"service": "scrivener",
		"status":  "ok",
	})
}

// authenticate resolves the bearer credential to a user identity, writing a
// uniform 401 on any failure.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	userID, err := s.verifier.Resolve(r.Context(), token)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

func (s *Server) writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
