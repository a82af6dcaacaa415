package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/quillhq/scrivener/internal/events"
	"github.com/quillhq/scrivener/internal/llm"
	"github.com/quillhq/scrivener/internal/sqlrunner"
	"github.com/quillhq/scrivener/internal/store"
)

// historyWindow is the bounded context fed back to the model.
const historyWindow = 10

// Store is the slice of the persistence layer the chat pipeline needs.
type Store interface {
	CreateConversation(ctx context.Context, userID uuid.UUID, title string) (uuid.UUID, error)
	TouchConversation(ctx context.Context, id uuid.UUID) error
	GetConversation(ctx context.Context, id, userID uuid.UUID) (*store.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]store.Conversation, error)
	InsertMessage(ctx context.Context, m store.NewMessage) (uuid.UUID, error)
	RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]store.Turn, error)
	ConversationMessages(ctx context.Context, conversationID uuid.UUID) ([]store.Message, error)
	InsertQueryLog(ctx context.Context, l store.QueryLog) error
}

// Completer is the model-provider collaborator.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, profile llm.Profile) (string, error)
}

// Service orchestrates one chat turn: conversation resolution, bounded
// history, model call, SQL extraction, optional execution, and persistence.
type Service struct {
	store  Store
	llm    Completer
	runner sqlrunner.Runner
	events *events.Publisher
	logger *slog.Logger
}

func NewService(s Store, c Completer, r sqlrunner.Runner, ev *events.Publisher, logger *slog.Logger) *Service {
	return &Service{store: s, llm: c, runner: r, events: ev, logger: logger}
}

// TurnResult is the unified outcome of one turn. SQLResults is nil unless the
// caller opted into execution and the model produced a query.
type TurnResult struct {
	ConversationID uuid.UUID
	Message        string
	SQLQuery       *string
	SQLResults     json.RawMessage
	SQLError       *string
}

// HandleTurn runs the turn pipeline. Only two steps are fatal: creating the
// conversation when none exists, and the model call itself. Every other step
// degrades: its failure is logged and the turn still returns an answer.
func (s *Service) HandleTurn(ctx context.Context, userID, conversationID uuid.UUID, message string, includeSQL bool) (*TurnResult, error) {
	convID := conversationID
	if convID == uuid.Nil {
		id, err := s.store.CreateConversation(ctx, userID, deriveTitle(message))
		if err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		convID = id
	}

	history := s.history(ctx, convID)

	if _, err := s.store.InsertMessage(ctx, store.NewMessage{
		ConversationID: convID,
		Role:           llm.RoleUser,
		Content:        message,
	}); err != nil {
		// The caller still gets an answer; the transcript may now diverge
		// from what the model saw.
		s.logger.Error("failed to persist user turn", "conversation_id", convID, "error", err)
	}

	raw, err := s.llm.Complete(ctx, assemble(includeSQL, history, message), llm.ChatProfile)
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}

	body, sql := extractSQL(raw)

	result := &TurnResult{
		ConversationID: convID,
		Message:        body,
		SQLQuery:       sql,
	}

	if includeSQL && sql != nil {
		result.SQLResults, result.SQLError = s.runSQL(ctx, userID, *sql)
	}

	if _, err := s.store.InsertMessage(ctx, store.NewMessage{
		ConversationID: convID,
		Role:           llm.RoleAssistant,
		Content:        body,
		SQLQuery:       sql,
		SQLResults:     result.SQLResults,
	}); err != nil {
		s.logger.Error("failed to persist assistant turn", "conversation_id", convID, "error", err)
	}

	if err := s.store.TouchConversation(ctx, convID); err != nil {
		s.logger.Error("failed to touch conversation", "conversation_id", convID, "error", err)
	}

	if s.events != nil {
		if err := s.events.Publish(events.SubjectTurnCompleted, map[string]any{
			"conversation_id": convID.String(),
			"user_id":         userID.String(),
			"has_sql":         sql != nil,
		}); err != nil {
			s.logger.Warn("failed to publish turn event", "conversation_id", convID, "error", err)
		}
	}

	return result, nil
}

// Conversations lists the user's conversations, most recently active first.
func (s *Service) Conversations(ctx context.Context, userID uuid.UUID) ([]store.Conversation, error) {
	return s.store.ListConversations(ctx, userID)
}

// Messages returns the full transcript of one of the user's conversations,
// oldest first. A conversation owned by someone else reads as store.ErrNotFound.
func (s *Service) Messages(ctx context.Context, userID, conversationID uuid.UUID) ([]store.Message, error) {
	if _, err := s.store.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return s.store.ConversationMessages(ctx, conversationID)
}

// history fetches the bounded context window. A fetch failure degrades to an
// empty window: context is best-effort, not correctness-critical.
func (s *Service) history(ctx context.Context, conversationID uuid.UUID) []llm.Message {
	turns, err := s.store.RecentMessages(ctx, conversationID, historyWindow)
	if err != nil {
		s.logger.Error("failed to fetch conversation history", "conversation_id", conversationID, "error", err)
		return nil
	}
	out := make([]llm.Message, len(turns))
	for i, t := range turns {
		out[i] = llm.Message{Role: t.Role, Content: t.Content}
	}
	return out
}

// runSQL hands the extracted query to the execution collaborator and logs the
// attempt. A query-log write failure is not surfaced.
func (s *Service) runSQL(ctx context.Context, userID uuid.UUID, query string) (json.RawMessage, *string) {
	start := time.Now()
	results, runErr := s.runner.Run(ctx, query)

	var errText *string
	if runErr != nil {
		msg := runErr.Error()
		errText = &msg
		s.logger.Error("sql execution failed", "user_id", userID, "error", runErr)
	}

	if err := s.store.InsertQueryLog(ctx, store.QueryLog{
		UserID:   userID,
		Query:    query,
		Results:  results,
		Error:    errText,
		Duration: time.Since(start),
	}); err != nil {
		s.logger.Error("failed to write query log", "user_id", userID, "error", err)
	}

	return results, errText
}

// deriveTitle takes the first 50 characters of the opening message, with a
// truncation ellipsis when longer.
func deriveTitle(message string) string {
	r := []rune(message)
	if len(r) <= 50 {
		return message
	}
	return string(r[:50]) + "…"
}
