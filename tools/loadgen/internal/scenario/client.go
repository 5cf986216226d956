// Package scenario drives a weighted request mix against a running API
// instance. Identifiers harvested from responses feed the parameter
// pool so that detail requests reference real rows.
package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a thin API client that carries the bearer token obtained at
// login.
type Client struct {
	base  string
	http  *http.Client
	token string
}

// NewClient targets a base URL like http://localhost:8080.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login authenticates against /api/v1/auth/login and stores the access
// token for subsequent requests.
func (c *Client) Login(ctx context.Context, login, password string) error {
	body, err := json.Marshal(loginRequest{Login: login, Password: password})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login: unexpected status %d", resp.StatusCode)
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("login: decode response: %w", err)
	}
	if out.AccessToken == "" {
		return fmt.Errorf("login: empty access token")
	}
	c.token = out.AccessToken
	return nil
}

// Get issues an authenticated GET and discards the body.
func (c *Client) Get(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return nil
}

// GetJSON issues an authenticated GET and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

// ListPage is the paginated list envelope returned when page_size is
// set. Rows decode to generic maps so callers can pull out the fields
// they need.
type ListPage struct {
	Data  []map[string]any `json:"data"`
	Total int64            `json:"total"`
}

// ListRows fetches one page of a list endpoint.
func (c *Client) ListRows(ctx context.Context, path string) ([]map[string]any, error) {
	var page ListPage
	if err := c.GetJSON(ctx, path, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}
