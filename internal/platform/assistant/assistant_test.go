package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func backend(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-1" {
			t.Errorf("authorization = %q", auth)
		}
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("expected system+user messages, got %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
}

func TestChat(t *testing.T) {
	srv := backend(t, "Three appointments tomorrow.")
	defer srv.Close()

	c := New("key-1", "test-model", srv.URL, WithHTTPClient(srv.Client()))
	reply, err := c.Chat(context.Background(), "How busy is tomorrow?")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply != "Three appointments tomorrow." {
		t.Errorf("reply = %q", reply)
	}
}

func TestChat_Disabled(t *testing.T) {
	c := New("", "", "")
	if c.Enabled() {
		t.Error("client without key should be disabled")
	}
	if _, err := c.Chat(context.Background(), "hi"); err == nil {
		t.Error("expected error from a disabled client")
	}
}

func TestChat_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New("key-1", "m", srv.URL, WithHTTPClient(srv.Client()))
	if _, err := c.Chat(context.Background(), "hi"); err == nil {
		t.Error("expected error for non-200 backend response")
	}
}

func TestHandler_Chat(t *testing.T) {
	srv := backend(t, "ok")
	defer srv.Close()

	h := NewHandler(New("key-1", "m", srv.URL, WithHTTPClient(srv.Client())))
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Chat(e.NewContext(req, rec)); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_ChatDisabled(t *testing.T) {
	h := NewHandler(New("", "", ""))
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.Chat(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %v", err)
	}
}

func TestHandler_EmptyMessage(t *testing.T) {
	h := NewHandler(New("key-1", "m", "http://unused"))
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"  "}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.Chat(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
