package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"

	"booktrack/internal/service"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	c, err := New(context.Background(), "",
		option.WithHTTPClient(server.Client()),
		option.WithEndpoint(server.URL+"/"),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return c
}

func TestSearch(t *testing.T) {
	var gotQuery, gotMax string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/volumes") {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("q")
		gotMax = r.URL.Query().Get("maxResults")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"kind": "books#volumes",
			"totalItems": 3,
			"items": [
				{"id": "v1", "volumeInfo": {"title": "Dune", "authors": ["Frank Herbert"], "publishedDate": "1965"}},
				{"id": "v2", "volumeInfo": {"title": "  "}},
				{"id": "v3", "volumeInfo": {"title": "Good Omens", "authors": ["Terry Pratchett", "Neil Gaiman"]}}
			]
		}`))
	})

	found, err := c.Search(context.Background(), " dune ", 3)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if gotQuery != "dune" || gotMax != "3" {
		t.Errorf("expected q=dune maxResults=3, got q=%q maxResults=%q", gotQuery, gotMax)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(found))
	}
	if found[0].Title != "Dune" || found[0].Author() != "Frank Herbert" || found[0].Published != "1965" {
		t.Errorf("unexpected first candidate: %+v", found[0])
	}
	if got := found[1].Author(); got != "Terry Pratchett, Neil Gaiman" {
		t.Errorf("expected joined authors, got %q", got)
	}

	d := found[0].Draft(service.StatusWishlist)
	if d.Title != "Dune" || d.Author != "Frank Herbert" || d.Status != service.StatusWishlist {
		t.Errorf("unexpected draft: %+v", d)
	}
}

func TestSearch_LimitClamped(t *testing.T) {
	var gotMax string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMax = r.URL.Query().Get("maxResults")
		_, _ = w.Write([]byte(`{"items": []}`))
	})

	if _, err := c.Search(context.Background(), "x", 500); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if gotMax != "40" {
		t.Errorf("expected maxResults=40, got %q", gotMax)
	}
	if _, err := c.Search(context.Background(), "x", 0); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if gotMax != "5" {
		t.Errorf("expected default maxResults=5, got %q", gotMax)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("expected no request")
	})
	if _, err := c.Search(context.Background(), "  ", 5); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestSearch_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "Daily limit exceeded"}}`))
	})

	_, err := c.Search(context.Background(), "dune", 5)
	if service.StatusCode(err) != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if !strings.Contains(err.Error(), "Daily limit exceeded") {
		t.Errorf("expected API message, got %q", err.Error())
	}
}

func TestSearch_NoResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalItems": 0}`))
	})
	found, err := c.Search(context.Background(), "zzzz", 5)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no candidates, got %d", len(found))
	}
}
