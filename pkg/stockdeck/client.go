// Package stockdeck provides a Go client for the stockdeck backend API.
package stockdeck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"stockdeck/internal/util"
)

// ErrNotFound is returned when the backend does not know the requested
// resource, e.g. a snapshot for an unknown symbol.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// TokenSource supplies the current identity token for outgoing requests.
// An empty token means the request is sent without credentials; the server
// is responsible for rejecting it.
type TokenSource interface {
	Token() string
}

// ClientOpts configures a Client.
type ClientOpts struct {
	BaseURL string
	Tokens  TokenSource
	// RateLimitPerMin caps outgoing requests. Zero disables limiting.
	RateLimitPerMin int
	Logger          *slog.Logger
}

// Client talks to the stockdeck backend API. The token is read from the
// TokenSource immediately before every request, so token refreshes are
// picked up without rebuilding the client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *util.RateLimiter
	log        *slog.Logger
}

// NewClient creates a backend API client.
func NewClient(opts ClientOpts) *Client {
	c := &Client{
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     opts.Tokens,
		log:        opts.Logger,
	}
	if opts.RateLimitPerMin > 0 {
		c.limiter = util.NewRateLimiter(opts.RateLimitPerMin)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// ListIndices retrieves the available market indices.
func (c *Client) ListIndices(ctx context.Context) ([]Index, error) {
	var out []Index
	if err := c.do(ctx, http.MethodGet, "/indices", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSnapshot retrieves the current quote for a symbol. Unknown symbols
// yield an error wrapping ErrNotFound.
func (c *Client) GetSnapshot(ctx context.Context, symbol string) (*Quote, error) {
	var out Quote
	if err := c.do(ctx, http.MethodGet, "/indices/"+url.PathEscape(symbol), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetHistorical retrieves the close-price series for a symbol between from
// and to (epoch seconds, from < to). Callers must check the series Status
// before plotting; a non-OK status carries no data.
func (c *Client) GetHistorical(ctx context.Context, symbol string, from, to int64) (*HistoricalSeries, error) {
	q := url.Values{}
	q.Set("from", strconv.FormatInt(from, 10))
	q.Set("to", strconv.FormatInt(to, 10))
	var out HistoricalSeries
	if err := c.do(ctx, http.MethodGet, "/indices/"+url.PathEscape(symbol)+"/historical", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAlerts retrieves the stored price alerts.
func (c *Client) ListAlerts(ctx context.Context) ([]Alert, error) {
	var out []Alert
	if err := c.do(ctx, http.MethodGet, "/alerts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAlert stores a new price alert. The server assigns the ID and
// creation time, returned in the created record.
func (c *Client) CreateAlert(ctx context.Context, spec AlertSpec) (*Alert, error) {
	var out Alert
	if err := c.do(ctx, http.MethodPost, "/alerts", nil, spec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAlert removes an alert by ID. Deleting an unknown ID is an error,
// not a no-op.
func (c *Client) DeleteAlert(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/alerts/"+url.PathEscape(id), nil, nil, nil)
}

// GetStats retrieves the API usage snapshot.
func (c *Client) GetStats(ctx context.Context) (*UsageStats, error) {
	var out UsageStats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
			apiErr.Message = eb.Error
		}
		c.log.Debug("backend request failed", "method", method, "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%s %s: %w", method, path, apiErr)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
