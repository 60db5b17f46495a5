// Package bookapi implements the service.Service interface against the
// reading-tracker REST API.
package bookapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"booktrack/internal/config"
	"booktrack/internal/service"
	"booktrack/internal/session"
)

const (
	// DefaultRequestTimeout bounds ordinary API calls.
	DefaultRequestTimeout = 10 * time.Second

	// DefaultSummaryTimeout bounds summary generation, which is slow.
	DefaultSummaryTimeout = 60 * time.Second

	booksPath = "/books"
)

// Options configure a Client.
type Options struct {
	BaseURL        string
	Tokens         session.TokenProvider
	HTTPClient     *http.Client
	UserAgent      string
	RequestTimeout time.Duration
	SummaryTimeout time.Duration
}

// Client implements service.Service over HTTP.
type Client struct {
	pipeline       *Pipeline
	requestTimeout time.Duration
	summaryTimeout time.Duration
}

var _ service.Service = (*Client)(nil)

// New creates a client for the API at opts.BaseURL.
func New(opts Options) (*Client, error) {
	if opts.Tokens == nil {
		return nil, errors.New("bookapi: token provider required")
	}
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		pipeline:       NewPipeline(base, opts.Tokens, opts.HTTPClient, opts.UserAgent),
		requestTimeout: opts.RequestTimeout,
		summaryTimeout: opts.SummaryTimeout,
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = DefaultRequestTimeout
	}
	if c.summaryTimeout <= 0 {
		c.summaryTimeout = DefaultSummaryTimeout
	}
	return c, nil
}

// NewFromConfig creates a client using the configured URL, timeouts and
// session chain.
func NewFromConfig(cfg *config.Config, userAgent string) (*Client, error) {
	request, summary := cfg.Timeouts()
	return New(Options{
		BaseURL:        cfg.APIURL,
		Tokens:         session.ProviderFor(cfg),
		UserAgent:      userAgent,
		RequestTimeout: request,
		SummaryTimeout: summary,
	})
}

// ListBooks returns the user's books, newest first, optionally filtered.
func (c *Client) ListBooks(ctx context.Context, filter service.Filter) ([]service.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req := Request{Method: http.MethodGet, Path: booksPath}
	if !filter.IsNone() {
		req.Query = url.Values{"status_filter": {string(filter.Status)}}
	}
	raw, err := c.pipeline.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	books := []service.Book{}
	if err := decode(raw, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// CreateBook adds a book. The draft is sent as given.
func (c *Client) CreateBook(ctx context.Context, draft service.Draft) (service.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	raw, err := c.pipeline.Execute(ctx, Request{
		Method: http.MethodPost,
		Path:   booksPath,
		Body:   draft,
	})
	if err != nil {
		return service.Book{}, err
	}
	return decodeBook(raw)
}

// DeleteBook removes a book.
func (c *Client) DeleteBook(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	_, err := c.pipeline.Execute(ctx, Request{Method: http.MethodDelete, Path: bookPath(id)})
	return err
}

// SetStatus changes only the status of a book.
func (c *Client) SetStatus(ctx context.Context, id string, status service.Status) (service.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	raw, err := c.pipeline.Execute(ctx, Request{
		Method: http.MethodPatch,
		Path:   bookPath(id),
		Body: struct {
			Status service.Status `json:"status"`
		}{status},
	})
	if err != nil {
		return service.Book{}, err
	}
	return decodeBook(raw)
}

// FetchSummary asks the server to generate a summary of a book.
func (c *Client) FetchSummary(ctx context.Context, id string) (service.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.summaryTimeout)
	defer cancel()

	raw, err := c.pipeline.Execute(ctx, Request{Method: http.MethodGet, Path: bookPath(id) + "/summary"})
	if err != nil {
		return service.Summary{}, err
	}
	var s service.Summary
	if err := decode(raw, &s); err != nil {
		return service.Summary{}, err
	}
	return s, nil
}

// Ping checks that the API is reachable. It needs no session.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	_, err := c.pipeline.do(ctx, Request{Method: http.MethodGet, Path: "/"}, "")
	return err
}

func bookPath(id string) string {
	return booksPath + "/" + url.PathEscape(id)
}

func decodeBook(raw json.RawMessage) (service.Book, error) {
	var b service.Book
	if err := decode(raw, &b); err != nil {
		return service.Book{}, err
	}
	if b.ID == "" {
		return service.Book{}, &service.DecodeError{Err: errors.New("book without id")}
	}
	return b, nil
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return &service.DecodeError{Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &service.DecodeError{Err: err}
	}
	return nil
}

// parseBaseURL validates the configured API URL.
func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = config.DefaultAPIURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
