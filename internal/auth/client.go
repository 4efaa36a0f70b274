// Package auth wraps the hosted authentication provider: current user id or
// none, sign in, sign out, and an event stream of auth-state transitions
// that the storage facade and migration coordinator react to.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// ErrInvalidCredentials is returned when the provider rejects a sign-in.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Session is what the provider hands back on a successful sign-in.
type Session struct {
	UserID      string `json:"userId"`
	AccessToken string `json:"accessToken"`
	Anonymous   bool   `json:"anonymous"`
}

// Client talks to the hosted auth API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates an auth API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID string `json:"id"`
	} `json:"user"`
}

func (c *Client) post(ctx context.Context, path string, body any, out any) (int, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return resp.StatusCode, ErrInvalidCredentials
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(msg))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// SignIn exchanges email/password credentials for a session. The raw
// password is only ever sent to the provider; it is never stored or hashed
// locally.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var tok tokenResponse
	if _, err := c.post(ctx, "/token", map[string]string{
		"grant_type": "password",
		"email":      email,
		"password":   password,
	}, &tok); err != nil {
		return nil, err
	}
	return &Session{UserID: tok.User.ID, AccessToken: tok.AccessToken}, nil
}

// SignInAnonymously creates an anonymous account. The product is
// anonymous-first: every device session gets an identity immediately.
func (c *Client) SignInAnonymously(ctx context.Context) (*Session, error) {
	var tok tokenResponse
	if _, err := c.post(ctx, "/signup", map[string]bool{"anonymous": true}, &tok); err != nil {
		return nil, err
	}
	return &Session{UserID: tok.User.ID, AccessToken: tok.AccessToken, Anonymous: true}, nil
}

// SignOut revokes the session token. A failed revocation is reported but
// the local session is discarded by the provider regardless.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.post(ctx, "/logout", map[string]string{"access_token": accessToken}, nil)
	return err
}
