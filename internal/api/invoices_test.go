package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/quillhq/scrivener/internal/chat"
	"github.com/quillhq/scrivener/internal/invoice"
	"github.com/quillhq/scrivener/internal/sqlrunner"
	"github.com/quillhq/scrivener/internal/store"
)

func multipartUpload(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	part.Write(data)
	mw.Close()

	return &buf, mw.FormDataContentType()
}

func TestUpload_Success(t *testing.T) {
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{}, &fakeInvoiceStore{})

	body, contentType := multipartUpload(t, "march.pdf", "application/pdf", []byte("pdf bytes"))
	req := httptest.NewRequest("POST", "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
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
	var data struct {
		Invoice   store.Invoice `json:"invoice"`
		PublicURL string        `json:"public_url"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.Invoice.OriginalFilename != "march.pdf" {
		t.Errorf("unexpected original filename %q", data.Invoice.OriginalFilename)
	}
	if data.PublicURL == "" {
		t.Error("expected public_url in response")
	}
}

func TestUpload_NoFile(t *testing.T) {
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{}, &fakeInvoiceStore{})

	req := httptest.NewRequest("POST", "/api/v1/upload", bytes.NewReader(nil))
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestUpload_BadType(t *testing.T) {
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{}, &fakeInvoiceStore{})

	body, contentType := multipartUpload(t, "x.gif", "image/gif", []byte("gif"))
	req := httptest.NewRequest("POST", "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestUpload_OversizedBody(t *testing.T) {
	// A tight cap so the multipart reader hits the request body limit.
	logger := discardLogger()
	chatSvc := chat.NewService(&fakeChatStore{}, &fakeCompleter{}, sqlrunner.Placeholder{}, nil, logger)
	invoiceSvc := invoice.NewService(&fakeInvoiceStore{}, fakeObjects{}, fakeFields{}, invoice.PlaceholderText{}, nil, 1024, logger)
	srv := NewServer(8780, &fakeVerifier{userID: uuid.New()}, chatSvc, invoiceSvc, 1024, logger)

	big := bytes.Repeat([]byte("x"), 2*1024*1024)
	body, contentType := multipartUpload(t, "huge.pdf", "application/pdf", big)
	req := httptest.NewRequest("POST", "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if env.Error != "File size too large. Maximum size is 10MB." {
		t.Errorf("expected the size error body, got %q", env.Error)
	}
}

func TestUpload_Unauthenticated(t *testing.T) {
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{}, &fakeInvoiceStore{})

	body, contentType := multipartUpload(t, "x.pdf", "application/pdf", []byte("pdf"))
	req := httptest.NewRequest("POST", "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestListInvoices(t *testing.T) {
	inv := &store.Invoice{ID: uuid.New(), OriginalFilename: "march.pdf"}
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{}, &fakeInvoiceStore{invoice: inv})

	req := httptest.NewRequest("GET", "/api/v1/invoices", nil)
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
	var invoices []store.Invoice
	if err := json.Unmarshal(env.Data, &invoices); err != nil {
		t.Fatalf("failed to decode invoices: %v", err)
	}
	if len(invoices) != 1 || invoices[0].OriginalFilename != "march.pdf" {
		t.Errorf("unexpected invoices %+v", invoices)
	}
}

func TestListInvoices_EmptyIsArray(t *testing.T) {
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{}, &fakeInvoiceStore{})

	req := httptest.NewRequest("GET", "/api/v1/invoices", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(env.Data) != "[]" {
		t.Errorf("expected empty array, got %s", env.Data)
	}
}

func TestDeleteInvoice(t *testing.T) {
	inv := &store.Invoice{ID: uuid.New(), FilePath: "u/1.pdf"}
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{}, &fakeInvoiceStore{invoice: inv})

	req := httptest.NewRequest("DELETE", "/api/v1/invoices/"+inv.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
}

func TestDeleteInvoice_NotFound(t *testing.T) {
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{}, &fakeInvoiceStore{})

	req := httptest.NewRequest("DELETE", "/api/v1/invoices/"+uuid.New().String(), nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestDeleteInvoice_BadID(t *testing.T) {
	srv := newTestServer(&fakeChatStore{}, &fakeCompleter{}, &fakeInvoiceStore{})

	req := httptest.NewRequest("DELETE", "/api/v1/invoices/not-a-uuid", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
