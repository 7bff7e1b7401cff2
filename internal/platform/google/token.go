// Package google talks to the Calendar and Sheets REST APIs using a
// service account. No SDK: a signed JWT assertion is exchanged for a
// bearer token, and the two clients are thin JSON wrappers over
// net/http.
package google

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenURL = "https://oauth2.googleapis.com/token"
	grantJWT = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	ScopeCalendar = "https://www.googleapis.com/auth/calendar"
	ScopeSheets   = "https://www.googleapis.com/auth/spreadsheets"

	// expiryMargin keeps us from handing out a token that dies mid-request.
	expiryMargin = 60 * time.Second
)

// TokenSource mints and caches service-account access tokens for a
// fixed scope set. Safe for concurrent use.
type TokenSource struct {
	email    string
	key      *rsa.PrivateKey
	scopes   []string
	client   *http.Client
	tokenURL string

	mu      sync.Mutex
	token   string
	expires time.Time
}

type TokenOption func(*TokenSource)

// WithTokenURL overrides the exchange endpoint. Tests point it at a
// local server.
func WithTokenURL(u string) TokenOption {
	return func(ts *TokenSource) { ts.tokenURL = u }
}

func WithHTTPClient(c *http.Client) TokenOption {
	return func(ts *TokenSource) { ts.client = c }
}

func NewTokenSource(saEmail, pemKey string, scopes []string, opts ...TokenOption) (*TokenSource, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	ts := &TokenSource{
		email:    saEmail,
		key:      key,
		scopes:   scopes,
		client:   &http.Client{Timeout: 15 * time.Second},
		tokenURL: tokenURL,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts, nil
}

// Token returns a cached access token, refreshing when it is within
// the expiry margin.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.token != "" && time.Now().Before(ts.expires.Add(-expiryMargin)) {
		return ts.token, nil
	}
	token, expiresIn, err := ts.exchange(ctx)
	if err != nil {
		return "", err
	}
	ts.token = token
	ts.expires = time.Now().Add(time.Duration(expiresIn) * time.Second)
	return token, nil
}

func (ts *TokenSource) assertion() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   ts.email,
		"scope": strings.Join(ts.scopes, " "),
		"aud":   ts.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(ts.key)
}

func (ts *TokenSource) exchange(ctx context.Context) (string, int, error) {
	assertion, err := ts.assertion()
	if err != nil {
		return "", 0, fmt.Errorf("sign assertion: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", grantJWT)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", 0, fmt.Errorf("token exchange returned %d: %s", resp.StatusCode, body)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, fmt.Errorf("decode token response: %w", err)
	}
	if out.AccessToken == "" {
		return "", 0, fmt.Errorf("token exchange returned an empty token")
	}
	return out.AccessToken, out.ExpiresIn, nil
}
