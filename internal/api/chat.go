package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/quillhq/scrivener/internal/store"
)

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	IncludeSQL     bool   `json:"include_sql"`
}

type chatResponse struct {
	Message        string          `json:"message"`
	ConversationID uuid.UUID       `json:"conversation_id"`
	SQLQuery       *string         `json:"sql_query"`
	SQLResults     json.RawMessage `json:"sql_results"`
	SQLError       *string         `json:"sql_error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if req.Message == "" {
		s.writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	convID := uuid.Nil
	if req.ConversationID != "" {
		id, err := uuid.Parse(req.ConversationID)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid conversation_id")
			return
		}
		convID = id
	}

	result, err := s.chat.HandleTurn(r.Context(), userID, convID, req.Message, req.IncludeSQL)
	if err != nil {
		s.logger.Error("chat turn failed", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeData(w, http.StatusOK, chatResponse{
		Message:        result.Message,
		ConversationID: result.ConversationID,
		SQLQuery:       result.SQLQuery,
		SQLResults:     result.SQLResults,
		SQLError:       result.SQLError,
	})
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	convs, err := s.chat.Conversations(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to list conversations", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]map[string]any, 0, len(convs))
	for _, c := range convs {
		out = append(out, map[string]any{
			"id":         c.ID,
			"title":      c.Title,
			"created_at": c.CreatedAt,
			"updated_at": c.UpdatedAt,
		})
	}
	s.writeData(w, http.StatusOK, out)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	convID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid conversation id")
		return
	}

	messages, err := s.chat.Messages(r.Context(), userID, convID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "Conversation not found")
		return
	case err != nil:
		s.logger.Error("failed to load transcript", "user_id", userID, "conversation_id", convID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if messages == nil {
		messages = []store.Message{}
	}
	s.writeData(w, http.StatusOK, messages)
}
