// Package client talks to the tracker HTTP API and keeps a local view of
// the entries for dashboards.
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
	"strconv"
	"strings"
	"time"

	"tracker/internal/core"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response. It unwraps to the matching core sentinel
// so callers can use errors.Is(err, core.ErrNotFound).
type APIError struct {
	Status int
	Code   string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Code, e.Status)
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case core.CodeNotFound:
		return core.ErrNotFound
	case core.CodeNoFields:
		return core.ErrNoFields
	case core.CodeInvalidBody:
		return core.ErrInvalidEntry
	}
	return nil
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client with its 10s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q must be http or https", baseURL)
	}
	c := &Client{baseURL: u, httpClient: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// entryBody is the create request shape.
type entryBody struct {
	Pillar      string    `json:"pillar"`
	Task        string    `json:"task"`
	Description string    `json:"description,omitempty"`
	TimeSaved   float64   `json:"timeSaved"`
	MoneySaved  float64   `json:"moneySaved"`
	Date        core.Date `json:"date"`
}

func (c *Client) Health(ctx context.Context) error {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &out); err != nil {
		return err
	}
	if !out.OK {
		return errors.New("api reports unhealthy")
	}
	return nil
}

func (c *Client) Summary(ctx context.Context) (core.Summary, error) {
	var s core.Summary
	err := c.do(ctx, http.MethodGet, "/api/summary", nil, nil, &s)
	return s, err
}

// Summarize is Summary under the name stores use.
func (c *Client) Summarize(ctx context.Context) (core.Summary, error) {
	return c.Summary(ctx)
}

// List returns entries newest first.
func (c *Client) List(ctx context.Context, f core.ListFilter) ([]core.Entry, error) {
	q := url.Values{}
	if f.Pillar != "" {
		q.Set("pillar", f.Pillar)
	}
	if !f.Since.IsZero() {
		q.Set("since", f.Since.String())
	}
	var out struct {
		Entries []core.Entry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/entries", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (c *Client) Create(ctx context.Context, e core.NewEntry) (core.Entry, error) {
	body := entryBody{
		Pillar:      e.Pillar,
		Task:        e.Task,
		Description: e.Description,
		TimeSaved:   e.TimeSaved,
		MoneySaved:  e.MoneySaved,
		Date:        e.Date,
	}
	var out core.Entry
	err := c.do(ctx, http.MethodPost, "/api/entries", nil, body, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, id int64, p core.EntryPatch) (core.Entry, error) {
	var out core.Entry
	err := c.do(ctx, http.MethodPut, entryPath(id), nil, p, &out)
	return out, err
}

// Delete reports whether the entry existed.
func (c *Client) Delete(ctx context.Context, id int64) (bool, error) {
	var out struct {
		Deleted bool `json:"deleted"`
	}
	err := c.do(ctx, http.MethodDelete, entryPath(id), nil, nil, &out)
	return out.Deleted, err
}

func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/entries", nil, nil, nil)
}

func entryPath(id int64) string {
	return "/api/entries/" + strconv.FormatInt(id, 10)
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb) == nil {
			apiErr.Code = eb.Error
		}
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
