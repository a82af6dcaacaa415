package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/quillhq/scrivener/internal/store"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func postChat(srv *Server, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestChat_Success(t *testing.T) {
	cs := &fakeChatStore{}
	srv := newTestServer(cs, &fakeCompleter{response: "answer\n```sql\nSELECT 1\n```"}, &fakeInvoiceStore{})

	w := postChat(srv, "good-token", `{"message":"how many rows?","include_sql":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !env.Success {
		t.Error("expected success envelope")
	}

	var data struct {
		Message        string          `json:"message"`
		ConversationID string          `json:"conversation_id"`
		SQLQuery       *string         `json:"sql_query"`
		SQLResults     json.RawMessage `json:"sql_results"`
		SQLError       *string         `json:"sql_error"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if !strings.Contains(data.Message, "answer") {
		t.Errorf("expected model answer, got %q", data.Message)
	}
	if data.ConversationID == "" {
		t.Error("expected conversation_id in response")
	}
	if data.SQLQuery == nil || *data.SQLQuery != "SELECT 1" {
		t.Errorf("expected extracted sql, got %v", data.SQLQuery)
	}
	if data.SQLError != nil {
		t.Errorf("expected null sql_error, got %q", *data.SQLError)
	}
	if cs.created != 1 {
		t.Errorf("expected exactly one conversation created, got %d", cs.created)
	}
}

func TestChat_ReusesConversation(t *testing.T) {
	cs := &fakeChatStore{}
	srv := newTestServer(cs, &fakeCompleter{response: "ok"}, &fakeInvoiceStore{})

	w := postChat(srv, "good-token", `{"message":"first"}`)
	var env envelope
	json.NewDecoder(w.Body).Decode(&env)
	var data struct {
		ConversationID string `json:"conversation_id"`
	}
	json.Unmarshal(env.Data, &data)

	w2 := postChat(srv, "good-token", `{"message":"second","conversation_id":"`+data.ConversationID+`"}`)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w2.Code)
	}
	if cs.created != 1 {
		t.Errorf("second call must not create a conversation, got %d creations", cs.created)
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{response: "ok"}, &fakeInvoiceStore{})

	w := postChat(srv, "good-token", `{"message":""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestChat_NonStringMessage(t *testing.T) {
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{response: "ok"}, &fakeInvoiceStore{})

	w := postChat(srv, "good-token", `{"message":123}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestChat_Unauthenticated(t *testing.T) {
	cs := &fakeChatStore{}
	srv := newTestServer(cs, &fakeCompleter{response: "ok"}, &fakeInvoiceStore{})

	w := postChat(srv, "bad-token", `{"message":"hello"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if cs.created != 0 || len(cs.messages) != 0 {
		t.Error("unauthenticated request must cause no side effects")
	}
}

func TestChat_InvalidConversationID(t *testing.T) {
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{response: "ok"}, &fakeInvoiceStore{})

	w := postChat(srv, "good-token", `{"message":"hi","conversation_id":"not-a-uuid"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestChat_ModelFailure(t *testing.T) {
	cs := &fakeChatStore{}
	srv := newTestServer(cs, &fakeCompleter{err: errors.New("rate limited")}, &fakeInvoiceStore{})

	w := postChat(srv, "good-token", `{"message":"hello"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if env.Error != "Internal server error" {
		t.Errorf("internal detail must not leak, got %q", env.Error)
	}
	// The user turn was persisted before the model call failed.
	if len(cs.messages) != 1 || cs.messages[0].Role != "user" {
		t.Errorf("expected user turn persisted, got %+v", cs.messages)
	}
}

func TestListMessages(t *testing.T) {
	cs := &fakeChatStore{}
	srv := newTestServer(cs, &fakeCompleter{}, &fakeInvoiceStore{})

	convID := uuid.New()
	owner := srv.verifier.(*fakeVerifier).userID
	cs.conversation = &store.Conversation{ID: convID, UserID: owner}
	cs.transcript = []store.Message{
		{ID: uuid.New(), ConversationID: convID, Role: "user", Content: "how many?"},
		{ID: uuid.New(), ConversationID: convID, Role: "assistant", Content: "three"},
	}

	req := httptest.NewRequest("GET", "/api/v1/conversations/"+convID.String()+"/messages", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	var msgs []store.Message
	if err := json.Unmarshal(env.Data, &msgs); err != nil {
		t.Fatalf("failed to decode messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "how many?" || msgs[1].Content != "three" {
		t.Errorf("transcript out of order: %+v", msgs)
	}
}

func TestListMessages_ForeignConversation(t *testing.T) {
	cs := &fakeChatStore{}
	srv := newTestServer(cs, &fakeCompleter{}, &fakeInvoiceStore{})

	// Owned by someone else entirely.
	convID := uuid.New()
	cs.conversation = &store.Conversation{ID: convID, UserID: uuid.New()}
	cs.transcript = []store.Message{{Role: "user", Content: "secret"}}

	req := httptest.NewRequest("GET", "/api/v1/conversations/"+convID.String()+"/messages", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestListMessages_BadID(t *testing.T) {
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{}, &fakeInvoiceStore{})

	req := httptest.NewRequest("GET", "/api/v1/conversations/not-a-uuid/messages", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestListConversations(t *testing.T) {
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{}, &fakeInvoiceStore{})

	req := httptest.NewRequest("GET", "/api/v1/conversations", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	var convs []map[string]any
	if err := json.Unmarshal(env.Data, &convs); err != nil {
		t.Fatalf("failed to decode conversations: %v", err)
	}
	if len(convs) != 1 || convs[0]["title"] != "earlier chat" {
		t.Errorf("unexpected conversations %+v", convs)
	}
}
