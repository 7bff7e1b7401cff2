package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// -- Mock Store --

type mockStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
	tokens   map[string]*RefreshToken
}

func newMockStore() *mockStore {
	return &mockStore{
		accounts: make(map[string]*Account),
		tokens:   make(map[string]*RefreshToken),
	}
}

func (m *mockStore) CreateAccount(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	m.accounts[a.Email] = a
	return nil
}

func (m *mockStore) GetAccountByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[email]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return a, nil
}

func (m *mockStore) SaveRefreshToken(_ context.Context, t *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.CreatedAt = time.Now()
	m.tokens[t.Hash] = t
	return nil
}

func (m *mockStore) GetRefreshToken(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return t, nil
}

func (m *mockStore) DeleteRefreshToken(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, hash)
	return nil
}

func (m *mockStore) DeleteExpiredRefreshTokens(_ context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, t := range m.tokens {
		if t.ExpiresAt.Before(now) {
			delete(m.tokens, h)
		}
	}
	return nil
}

func seedAccount(t *testing.T, store *mockStore, email, password string) *Account {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	a := &Account{Email: email, PasswordHash: hash}
	store.CreateAccount(context.Background(), a)
	return a
}

// -- Token tests --

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("expected password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	uid := uuid.New().String()
	tok, err := MakeAccessToken(uid, testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := ParseAccessToken(tok, testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != uid {
		t.Errorf("uid = %q, want %q", claims.UserID, uid)
	}
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	tok, _ := MakeAccessToken("uid", testSecret)
	if _, err := ParseAccessToken(tok, "another-secret-another-secret--"); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestParseAccessToken_Garbage(t *testing.T) {
	if _, err := ParseAccessToken("not.a.jwt", testSecret); err == nil {
		t.Error("expected error for garbage token")
	}
}

func TestRefreshTokenHashing(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw == hash {
		t.Error("raw token must differ from its hash")
	}
	if HashRefreshToken(raw) != hash {
		t.Error("hash mismatch")
	}
}

// -- Handler tests --

func postJSON(e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestLogin_Success(t *testing.T) {
	store := newMockStore()
	seedAccount(t, store, "doc@clinic.test", "s3cret")
	h := NewHandler(store, testSecret)
	e := echo.New()

	c, rec := postJSON(e, "/", `{"email":"doc@clinic.test","password":"s3cret"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("expected both tokens in response")
	}
	if _, err := ParseAccessToken(resp.AccessToken, testSecret); err != nil {
		t.Errorf("issued access token does not parse: %v", err)
	}
}

func TestLogin_SweepsExpiredRefreshTokens(t *testing.T) {
	store := newMockStore()
	account := seedAccount(t, store, "doc@clinic.test", "s3cret")
	h := NewHandler(store, testSecret)
	e := echo.New()

	store.SaveRefreshToken(context.Background(), &RefreshToken{
		Hash:      "stale",
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	})

	c, _ := postJSON(e, "/", `{"email":"doc@clinic.test","password":"s3cret"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetRefreshToken(context.Background(), "stale"); err == nil {
		t.Error("expected the expired refresh token to be swept on login")
	}
	// The freshly issued token must survive the sweep.
	if len(store.tokens) != 1 {
		t.Errorf("expected exactly the new token to remain, got %d", len(store.tokens))
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	store := newMockStore()
	seedAccount(t, store, "doc@clinic.test", "s3cret")
	h := NewHandler(store, testSecret)
	e := echo.New()

	c, _ := postJSON(e, "/", `{"email":"doc@clinic.test","password":"nope"}`)
	err := h.Login(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	h := NewHandler(newMockStore(), testSecret)
	e := echo.New()

	c, _ := postJSON(e, "/", `{"email":"nobody@clinic.test","password":"x"}`)
	err := h.Login(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	h := NewHandler(newMockStore(), testSecret)
	e := echo.New()

	c, _ := postJSON(e, "/", `{}`)
	err := h.Login(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	store := newMockStore()
	account := seedAccount(t, store, "doc@clinic.test", "s3cret")
	h := NewHandler(store, testSecret)
	e := echo.New()

	raw, hash, _ := GenerateRefreshToken()
	store.SaveRefreshToken(context.Background(), &RefreshToken{
		Hash:      hash,
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	})

	c, rec := postJSON(e, "/", `{"refresh_token":"`+raw+`"}`)
	if err := h.Refresh(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// The old token must no longer be accepted.
	c2, _ := postJSON(e, "/", `{"refresh_token":"`+raw+`"}`)
	err := h.Refresh(c2)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 on token reuse, got %v", err)
	}
}

func TestRefresh_Expired(t *testing.T) {
	store := newMockStore()
	account := seedAccount(t, store, "doc@clinic.test", "s3cret")
	h := NewHandler(store, testSecret)
	e := echo.New()

	raw, hash, _ := GenerateRefreshToken()
	store.SaveRefreshToken(context.Background(), &RefreshToken{
		Hash:      hash,
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	c, _ := postJSON(e, "/", `{"refresh_token":"`+raw+`"}`)
	err := h.Refresh(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %v", err)
	}
}

func TestLogout_DeletesToken(t *testing.T) {
	store := newMockStore()
	account := seedAccount(t, store, "doc@clinic.test", "s3cret")
	h := NewHandler(store, testSecret)
	e := echo.New()

	raw, hash, _ := GenerateRefreshToken()
	store.SaveRefreshToken(context.Background(), &RefreshToken{
		Hash:      hash,
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	})

	c, rec := postJSON(e, "/", `{"refresh_token":"`+raw+`"}`)
	if err := h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if _, err := store.GetRefreshToken(context.Background(), hash); err == nil {
		t.Error("expected token to be deleted")
	}
}

// -- Middleware tests --

func TestJWTMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	uid := uuid.New().String()
	tok, _ := MakeAccessToken(uid, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		if got := UserIDFromEchoContext(c); got != uid {
			t.Errorf("user_id = %q, want %q", got, uid)
		}
		return c.String(http.StatusOK, "ok")
	}
	if err := JWTMiddleware(testSecret)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	err := JWTMiddleware(testSecret)(handler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_SkipsLoginAndHealth(t *testing.T) {
	e := echo.New()
	for _, path := range []string{"/health", "/health/db", "/api/v1/auth/login"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath(path)

		handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
		if err := JWTMiddleware(testSecret)(handler)(c); err != nil {
			t.Errorf("path %s should skip auth, got %v", path, err)
		}
	}
}
