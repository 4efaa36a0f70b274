// Package remote implements the storage contract against the hosted
// per-user row API. Rows are snake_case on the wire and translated to the
// camelCase client model at this boundary.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 30 * time.Second

// ErrConflict maps an HTTP 409 from the row API. For book inserts the
// server enforces uniqueness on (user_id, isbn), so a conflict is the dedup
// signal rather than a failure.
var ErrConflict = fmt.Errorf("remote: row conflict")

// errNotFound is internal; lookup reads translate it to a nil result.
var errNotFound = fmt.Errorf("remote: row not found")

// Client performs row-level CRUD against the hosted table API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a row-API client. apiKey may be empty for servers that
// do not require one.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// do executes the request and decodes a JSON response into out (which may be
// nil for responses without a useful body).
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func userQuery(userID string) url.Values {
	q := url.Values{}
	q.Set("user_id", userID)
	return q
}

func (c *Client) listBooks(ctx context.Context, userID string, extra url.Values) ([]bookRow, error) {
	q := userQuery(userID)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/books", q, nil)
	if err != nil {
		return nil, err
	}
	var rows []bookRow
	if err := c.do(req, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) getBook(ctx context.Context, userID, id string) (*bookRow, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/books/"+url.PathEscape(id), userQuery(userID), nil)
	if err != nil {
		return nil, err
	}
	var row bookRow
	if err := c.do(req, &row); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (c *Client) insertBook(ctx context.Context, row bookRow) (*bookRow, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/books", nil, row)
	if err != nil {
		return nil, err
	}
	var created bookRow
	if err := c.do(req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) patchBook(ctx context.Context, userID, id string, fields map[string]any) (*bookRow, error) {
	req, err := c.newRequest(ctx, http.MethodPatch, "/books/"+url.PathEscape(id), userQuery(userID), fields)
	if err != nil {
		return nil, err
	}
	var updated bookRow
	if err := c.do(req, &updated); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &updated, nil
}

func (c *Client) deleteBook(ctx context.Context, userID, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/books/"+url.PathEscape(id), userQuery(userID), nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil && err != errNotFound {
		return err
	}
	return nil
}

func (c *Client) listClips(ctx context.Context, userID string, extra url.Values) ([]clipRow, error) {
	q := userQuery(userID)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/clips", q, nil)
	if err != nil {
		return nil, err
	}
	var rows []clipRow
	if err := c.do(req, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) getClip(ctx context.Context, userID, id string) (*clipRow, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/clips/"+url.PathEscape(id), userQuery(userID), nil)
	if err != nil {
		return nil, err
	}
	var row clipRow
	if err := c.do(req, &row); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (c *Client) insertClip(ctx context.Context, row clipRow) (*clipRow, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/clips", nil, row)
	if err != nil {
		return nil, err
	}
	var created clipRow
	if err := c.do(req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) updateClip(ctx context.Context, userID, id string, fields map[string]any) error {
	req, err := c.newRequest(ctx, http.MethodPatch, "/clips/"+url.PathEscape(id), userQuery(userID), fields)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) deleteClips(ctx context.Context, userID string, extra url.Values) error {
	q := userQuery(userID)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	req, err := c.newRequest(ctx, http.MethodDelete, "/clips", q, nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil && err != errNotFound {
		return err
	}
	return nil
}

func (c *Client) deleteClip(ctx context.Context, userID, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/clips/"+url.PathEscape(id), userQuery(userID), nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil && err != errNotFound {
		return err
	}
	return nil
}

func (c *Client) getSetting(ctx context.Context, userID, key string) (*settingRow, error) {
	q := userQuery(userID)
	q.Set("key", key)
	req, err := c.newRequest(ctx, http.MethodGet, "/settings", q, nil)
	if err != nil {
		return nil, err
	}
	var rows []settingRow
	if err := c.do(req, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// upsertSetting follows the check-then-write pattern: insert when absent,
// patch the existing row otherwise.
func (c *Client) upsertSetting(ctx context.Context, userID, key, value string) error {
	existing, err := c.getSetting(ctx, userID, key)
	if err != nil {
		return err
	}
	if existing == nil {
		req, err := c.newRequest(ctx, http.MethodPost, "/settings", nil, settingRow{
			UserID: userID,
			Key:    key,
			Value:  value,
		})
		if err != nil {
			return err
		}
		return c.do(req, nil)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, "/settings/"+url.PathEscape(existing.ID), userQuery(userID), map[string]any{"value": value})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
