package bookapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"booktrack/internal/service"
	"booktrack/internal/session"
)

// maxErrorBody caps how much of a failed response is read.
const maxErrorBody = 64 << 10

// Request describes one API call relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Pipeline attaches the session token to outgoing requests and turns
// responses into decoded JSON or typed errors.
type Pipeline struct {
	base      *url.URL
	tokens    session.TokenProvider
	http      *http.Client
	userAgent string
}

// NewPipeline creates a Pipeline rooted at base.
func NewPipeline(base *url.URL, tokens session.TokenProvider, httpClient *http.Client, userAgent string) *Pipeline {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Pipeline{base: base, tokens: tokens, http: httpClient, userAgent: userAgent}
}

// Execute sends r with the current session token.
// No request is sent when there is no session.
func (p *Pipeline) Execute(ctx context.Context, r Request) (json.RawMessage, error) {
	token, ok, err := p.tokens.CurrentToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !ok {
		return nil, service.ErrUnauthenticated
	}
	return p.do(ctx, r, token)
}

// do sends r; token may be empty for public endpoints.
func (p *Pipeline) do(ctx context.Context, r Request, token string) (json.RawMessage, error) {
	req, err := p.newRequest(ctx, r, token)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := p.http.Do(req)
	if err != nil {
		slog.Debug("http_request",
			"method", r.Method,
			"path", r.Path,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil, &service.NetworkError{Op: r.Method + " " + r.Path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	slog.Debug("http_request",
		"method", r.Method,
		"path", r.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, service.NewHTTPError(resp.StatusCode, decodeErrorBody(data))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &service.NetworkError{Op: "read " + r.Path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, &service.DecodeError{Err: fmt.Errorf("%s %s: invalid JSON body", r.Method, r.Path)}
	}
	return json.RawMessage(data), nil
}

func (p *Pipeline) newRequest(ctx context.Context, r Request, token string) (*http.Request, error) {
	u := p.base.JoinPath(r.Path)
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	for k, vs := range r.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	// Set last so a caller header cannot replace the session token.
	req.Header.Del("Authorization")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// decodeErrorBody extracts the server's reason from a failed response.
// detail is either a string or a list of validation errors.
func decodeErrorBody(data []byte) service.ErrorBody {
	var raw struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || len(raw.Detail) == 0 {
		return service.ErrorBody{}
	}

	var detail string
	if err := json.Unmarshal(raw.Detail, &detail); err == nil {
		if detail == "" {
			return service.ErrorBody{}
		}
		return service.ErrorBody{Detail: detail, HasDetail: true}
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return service.ErrorBody{Detail: strings.Join(msgs, "; "), HasDetail: true}
		}
	}
	return service.ErrorBody{}
}
