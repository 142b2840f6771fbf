// Package auth wraps the external identity provider and holds the
// process-wide session state derived from it.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the identity provider's REST surface (Identity Toolkit
// style: password sign-in plus refresh-token exchange).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an identity provider client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Tokens is the credential set issued by the identity provider.
type Tokens struct {
	IDToken      string
	RefreshToken string
	UserID       string
	Email        string
	ExpiresIn    time.Duration
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// The provider encodes expiry as a string of seconds.
type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	ExpiresIn    string `json:"expiresIn"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	ExpiresIn    string `json:"expires_in"`
}

type providerError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn exchanges an email/password pair for tokens.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Tokens, error) {
	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("encoding sign-in request: %w", err)
	}

	u := c.baseURL + "/v1/accounts:signInWithPassword?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign-in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sign-in: %s", decodeProviderError(resp))
	}

	var sr signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding sign-in response: %w", err)
	}
	return &Tokens{
		IDToken:      sr.IDToken,
		RefreshToken: sr.RefreshToken,
		UserID:       sr.LocalID,
		Email:        sr.Email,
		ExpiresIn:    parseExpiry(sr.ExpiresIn),
	}, nil
}

// Refresh exchanges a refresh token for a fresh ID token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	u := c.baseURL + "/v1/token?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token refresh: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token refresh: %s", decodeProviderError(resp))
	}

	var rr refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("decoding refresh response: %w", err)
	}
	return &Tokens{
		IDToken:      rr.IDToken,
		RefreshToken: rr.RefreshToken,
		UserID:       rr.UserID,
		ExpiresIn:    parseExpiry(rr.ExpiresIn),
	}, nil
}

func decodeProviderError(resp *http.Response) string {
	var pe providerError
	if err := json.NewDecoder(resp.Body).Decode(&pe); err == nil && pe.Error.Message != "" {
		return pe.Error.Message
	}
	return resp.Status
}

func parseExpiry(s string) time.Duration {
	secs, err := strconv.Atoi(s)
	if err != nil || secs <= 0 {
		return time.Hour
	}
	return time.Duration(secs) * time.Second
}
