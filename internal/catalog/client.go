package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Envelope is the upstream response wrapper: {success, data?, error?}.
type Envelope[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// Client fetches categories and products from the upstream catalog API.
type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) FetchCategories(ctx context.Context) ([]Category, error) {
	return fetch[[]Category](ctx, c, "/categories")
}

func (c *Client) FetchProducts(ctx context.Context) ([]Product, error) {
	return fetch[[]Product](ctx, c, "/products")
}

func fetch[T any](ctx context.Context, c *Client, path string) (T, error) {
	var zero T
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("catalog fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, fmt.Errorf("catalog fetch %s: status %d", path, resp.StatusCode)
	}

	var env Envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, fmt.Errorf("catalog fetch %s: decode: %w", path, err)
	}
	if !env.Success {
		if env.Error != nil {
			return zero, fmt.Errorf("catalog fetch %s: %w", path, env.Error)
		}
		return zero, fmt.Errorf("catalog fetch %s: unsuccessful response", path)
	}
	return env.Data, nil
}
