package google

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

const sheetsBaseURL = "https://sheets.googleapis.com/v4"

// SheetsClient appends rows to one spreadsheet.
type SheetsClient struct {
	tokens  *TokenSource
	sheetID string
	rng     string
	client  *http.Client
	baseURL string
}

type SheetsOption func(*SheetsClient)

func WithSheetsBaseURL(u string) SheetsOption {
	return func(c *SheetsClient) { c.baseURL = u }
}

func WithSheetsHTTPClient(hc *http.Client) SheetsOption {
	return func(c *SheetsClient) { c.client = hc }
}

// WithRange sets the A1 range rows are appended under. Defaults to "A1".
func WithRange(rng string) SheetsOption {
	return func(c *SheetsClient) { c.rng = rng }
}

func NewSheetsClient(tokens *TokenSource, sheetID string, opts ...SheetsOption) *SheetsClient {
	c := &SheetsClient{
		tokens:  tokens,
		sheetID: sheetID,
		rng:     "A1",
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: sheetsBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AppendRow appends one row of cell values.
func (c *SheetsClient) AppendRow(ctx context.Context, values []interface{}) error {
	u := c.baseURL + "/spreadsheets/" + url.PathEscape(c.sheetID) +
		"/values/" + url.PathEscape(c.rng) + ":append?valueInputOption=USER_ENTERED"
	body := map[string]interface{}{
		"values": [][]interface{}{values},
	}
	return doJSON(ctx, c.client, c.tokens, http.MethodPost, u, body, nil)
}
