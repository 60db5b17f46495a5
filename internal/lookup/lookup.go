// Package lookup searches Google Books to fill in book titles and authors.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	books "google.golang.org/api/books/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"booktrack/internal/service"
)

const (
	// APITimeout bounds a single search.
	APITimeout = 10 * time.Second

	// MaxResults is the largest page the Books API returns.
	MaxResults = 40

	// DefaultLimit is the number of candidates returned when none is given.
	DefaultLimit = 5
)

// Candidate is one search hit.
type Candidate struct {
	VolumeID  string
	Title     string
	Authors   []string
	Published string
}

// Author returns the authors joined for display and storage.
func (c Candidate) Author() string {
	return strings.Join(c.Authors, ", ")
}

// Draft returns a draft for adding the candidate with status.
func (c Candidate) Draft(status service.Status) service.Draft {
	return service.Draft{Title: c.Title, Author: c.Author(), Status: status}
}

// Client searches the Google Books volumes API.
type Client struct {
	svc *books.Service
}

// New creates a lookup client. apiKey may be empty; anonymous requests are
// subject to lower quotas.
func New(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	base := []option.ClientOption{option.WithoutAuthentication()}
	if apiKey != "" {
		base = []option.ClientOption{option.WithAPIKey(apiKey)}
	}
	svc, err := books.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create books service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Search returns up to limit candidates for query, skipping volumes without
// a title.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxResults {
		limit = MaxResults
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	resp, err := c.svc.Volumes.List(query).
		MaxResults(int64(limit)).
		PrintType("books").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapError(err)
	}

	var out []Candidate
	for _, v := range resp.Items {
		if v == nil || v.VolumeInfo == nil || strings.TrimSpace(v.VolumeInfo.Title) == "" {
			continue
		}
		info := v.VolumeInfo
		out = append(out, Candidate{
			VolumeID:  v.Id,
			Title:     strings.TrimSpace(info.Title),
			Authors:   info.Authors,
			Published: info.PublishedDate,
		})
	}
	return out, nil
}

func wrapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return service.NewHTTPError(apiErr.Code, service.ErrorBody{
			Detail:    apiErr.Message,
			HasDetail: apiErr.Message != "",
		})
	}
	return &service.NetworkError{Op: "search books", Err: err}
}
