// Package client is a REST client for the status page layout API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"statusboard/internal/domain"
	models "statusboard/internal/domain/models/statuspage"
	spSvc "statusboard/internal/domain/services/statuspage"
	"statusboard/internal/httputil"

	"golang.org/x/sync/singleflight"
)

// DefaultTimeout is the default HTTP timeout for API requests
const DefaultTimeout = 30 * time.Second

// Client talks to the status page API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	// concurrent fetches of the same page share one request
	pages singleflight.Group
}

// Option configures a Client
type Option func(*Client)

// WithToken sends a bearer token with every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the timeout of each request
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the API served at baseURL, e.g. "http://localhost:8080"
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Problem    httputil.ProblemDetail
}

func (e *APIError) Error() string {
	if e.Problem.Detail != "" {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Problem.Detail)
	}
	return fmt.Sprintf("API error (status %d)", e.StatusCode)
}

// Is maps response codes onto the domain sentinels
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return target == domain.ErrValidation
	case http.StatusUnauthorized:
		return target == domain.ErrUnauthorized
	case http.StatusNotFound:
		return target == domain.ErrNotFound
	case http.StatusConflict:
		return target == domain.ErrConflict
	}
	return false
}

// ListStatusPages lists pages without their items
func (c *Client) ListStatusPages(ctx context.Context) ([]models.StatusPage, error) {
	var pages []models.StatusPage
	if err := c.do(ctx, http.MethodGet, "/api/status-pages", nil, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// CreateStatusPage creates a page with its initial layout.
// A subdomain that is taken yields a domain.ConflictError naming the existing page.
func (c *Client) CreateStatusPage(ctx context.Context, req *spSvc.CreateStatusPageRequest) (*models.StatusPage, error) {
	var page models.StatusPage
	err := c.do(ctx, http.MethodPost, "/api/status-pages", req, &page)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		existingID := page.ID
		if existingID == "" {
			existingID = apiErr.Problem.ExtraString("resourceId")
		}
		if existingID != "" {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("subdomain '%s' already exists", req.Subdomain),
				ResourceType: "status_page",
				ResourceID:   existingID,
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetStatusPage fetches a page with its items.
// Concurrent calls for the same id share one request and its result; do not modify it.
func (c *Client) GetStatusPage(ctx context.Context, id string) (*models.StatusPage, error) {
	ch := c.pages.DoChan(id, func() (interface{}, error) {
		var page models.StatusPage
		if err := c.do(context.WithoutCancel(ctx), http.MethodGet, pagePath(id, ""), nil, &page); err != nil {
			return nil, err
		}
		return &page, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.StatusPage), nil
	}
}

// GetLayout fetches the nested tree and its flattened form
func (c *Client) GetLayout(ctx context.Context, id string) (*models.Layout, error) {
	var l models.Layout
	if err := c.do(ctx, http.MethodGet, pagePath(id, "/layout"), nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Project asks the server where a drag would land
func (c *Client) Project(ctx context.Context, id string, req *spSvc.DragRequest) (*models.Projection, error) {
	var p models.Projection
	if err := c.do(ctx, http.MethodPost, pagePath(id, "/layout/projection"), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Drop applies a drag on the server and returns the new layout
func (c *Client) Drop(ctx context.Context, id string, req *spSvc.DragRequest) (*models.Layout, error) {
	var l models.Layout
	if err := c.do(ctx, http.MethodPost, pagePath(id, "/layout/drop"), req, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateItems replaces the ordering of a page's items
func (c *Client) UpdateItems(ctx context.Context, id string, items []models.ServerSideItem) error {
	body := spSvc.UpdateItemsRequest{StatusPageItems: items}
	return c.do(ctx, http.MethodPut, pagePath(id, "/items"), body, nil)
}

func pagePath(id, suffix string) string {
	return "/api/status-pages/" + url.PathEscape(id) + suffix
}

// do sends body as JSON and decodes the response into out.
// On a 409 the body is still decoded into out, since the API returns the existing resource.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/problem+json") {
			_ = json.Unmarshal(data, &apiErr.Problem)
		} else if resp.StatusCode == http.StatusConflict && out != nil {
			_ = json.Unmarshal(data, out)
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
