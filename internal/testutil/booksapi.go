package testutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"booktrack/internal/service"
)

// RecordedRequest is one request seen by a BooksAPI.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// BooksAPI is an httptest server speaking the reading-tracker REST API,
// backed by a FakeService.
type BooksAPI struct {
	*httptest.Server

	// Service holds the books and injected errors.
	Service *FakeService

	// Token is the bearer token the server accepts.
	Token string

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewBooksAPI starts a BooksAPI accepting token. The server is closed when
// the test ends.
func NewBooksAPI(t *testing.T, token string) *BooksAPI {
	t.Helper()
	api := &BooksAPI{Service: NewFakeService(), Token: token}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(api.record)
	r.Get("/", api.handleRoot)
	r.Route("/books", func(r chi.Router) {
		r.Use(api.requireToken)
		r.Get("/", api.handleList)
		r.Post("/", api.handleCreate)
		r.Delete("/{bookID}", api.handleDelete)
		r.Patch("/{bookID}", api.handleUpdate)
		r.Get("/{bookID}/summary", api.handleSummary)
	})

	api.Server = httptest.NewServer(r)
	t.Cleanup(api.Close)
	return api
}

// Requests returns the requests received so far.
func (a *BooksAPI) Requests() []RecordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]RecordedRequest, len(a.requests))
	copy(out, a.requests)
	return out
}

func (a *BooksAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		a.mu.Lock()
		a.requests = append(a.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		a.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (a *BooksAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+a.Token {
			writeDetail(w, http.StatusUnauthorized, "Invalid authentication credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *BooksAPI) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reading tracker API"})
}

func (a *BooksAPI) handleList(w http.ResponseWriter, r *http.Request) {
	var filter service.Filter
	if raw := r.URL.Query().Get("status_filter"); raw != "" {
		status, err := service.ParseStatus(raw)
		if err != nil {
			writeValidation(w, "Input should be 'reading', 'completed' or 'wishlist'")
			return
		}
		filter = service.ByStatus(status)
	}
	books, err := a.Service.ListBooks(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (a *BooksAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	var draft service.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeValidation(w, "JSON decode error")
		return
	}
	if draft.Status == "" {
		draft.Status = service.StatusReading
	}
	if err := draft.Validate(); err != nil {
		writeValidation(w, err.Error())
		return
	}
	book, err := a.Service.CreateBook(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (a *BooksAPI) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.Service.DeleteBook(r.Context(), bookID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *BooksAPI) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status service.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.Status.Valid() {
		writeValidation(w, "Input should be 'reading', 'completed' or 'wishlist'")
		return
	}
	book, err := a.Service.SetStatus(r.Context(), bookID(r), body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (a *BooksAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	s, err := a.Service.FetchSummary(r.Context(), bookID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func bookID(r *http.Request) string {
	id := chi.URLParam(r, "bookID")
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}

func writeError(w http.ResponseWriter, err error) {
	var httpErr *service.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Body.HasDetail {
			writeDetail(w, httpErr.Status, httpErr.Body.Detail)
		} else {
			w.WriteHeader(httpErr.Status)
		}
		return
	}
	writeDetail(w, http.StatusInternalServerError, err.Error())
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{
			{"loc": []string{"body"}, "msg": msg, "type": "value_error"},
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
