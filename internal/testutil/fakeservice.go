// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"booktrack/internal/service"
)

// ErrNotFound mirrors the API's response for a missing or foreign book.
var ErrNotFound = service.NewHTTPError(http.StatusNotFound, service.ErrorBody{
	Detail:    "Book not found or unauthorized",
	HasDetail: true,
})

// FakeService is an in-memory implementation of service.Service for testing.
// Books are kept newest first, the order the API returns them in.
type FakeService struct {
	mu     sync.RWMutex
	books  []service.Book
	nextID int

	// Error injection for testing
	ListBooksErr    error
	CreateBookErr   error
	DeleteBookErr   error
	SetStatusErr    error
	FetchSummaryErr error
	PingErr         error

	// Call counters
	ListCalls    int
	CreateCalls  int
	DeleteCalls  int
	StatusCalls  int
	SummaryCalls int

	// LastFilter is the filter passed to the most recent ListBooks call.
	LastFilter service.Filter
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{}
}

// AddBook appends a book to the end of the listing and returns it.
// An empty id is assigned one.
func (f *FakeService) AddBook(id, title, author string, status service.Status) service.Book {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == "" {
		id = f.newID()
	}
	b := service.Book{
		ID:        id,
		UserID:    "user-1",
		Title:     title,
		Author:    author,
		Status:    status,
		CreatedAt: "2024-01-01T00:00:00Z",
	}
	f.books = append(f.books, b)
	return b
}

// Books returns a copy of the stored books.
func (f *FakeService) Books() []service.Book {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Book, len(f.books))
	copy(out, f.books)
	return out
}

// ListBooks implements service.Service.
func (f *FakeService) ListBooks(ctx context.Context, filter service.Filter) ([]service.Book, error) {
	f.mu.Lock()
	f.ListCalls++
	f.LastFilter = filter
	f.mu.Unlock()
	if f.ListBooksErr != nil {
		return nil, f.ListBooksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := []service.Book{}
	for _, b := range f.books {
		if filter.IsNone() || b.Status == filter.Status {
			result = append(result, b)
		}
	}
	return result, nil
}

// CreateBook implements service.Service.
func (f *FakeService) CreateBook(ctx context.Context, draft service.Draft) (service.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.CreateBookErr != nil {
		return service.Book{}, f.CreateBookErr
	}

	b := service.Book{
		ID:        f.newID(),
		UserID:    "user-1",
		Title:     draft.Title,
		Author:    draft.Author,
		Status:    draft.Status,
		CreatedAt: "2024-06-01T12:00:00Z",
	}
	f.books = append([]service.Book{b}, f.books...)
	return b, nil
}

// DeleteBook implements service.Service.
func (f *FakeService) DeleteBook(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if f.DeleteBookErr != nil {
		return f.DeleteBookErr
	}

	for i, b := range f.books {
		if b.ID == id {
			f.books = append(f.books[:i], f.books[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// SetStatus implements service.Service.
func (f *FakeService) SetStatus(ctx context.Context, id string, status service.Status) (service.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatusCalls++
	if f.SetStatusErr != nil {
		return service.Book{}, f.SetStatusErr
	}

	for i, b := range f.books {
		if b.ID == id {
			f.books[i].Status = status
			return f.books[i], nil
		}
	}
	return service.Book{}, ErrNotFound
}

// FetchSummary implements service.Service.
func (f *FakeService) FetchSummary(ctx context.Context, id string) (service.Summary, error) {
	f.mu.Lock()
	f.SummaryCalls++
	f.mu.Unlock()
	if f.FetchSummaryErr != nil {
		return service.Summary{}, f.FetchSummaryErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, b := range f.books {
		if b.ID == id {
			return service.Summary{
				BookID:  b.ID,
				Title:   b.Title,
				Author:  b.Author,
				Summary: fmt.Sprintf("A summary of %s by %s.", b.Title, b.Author),
			}, nil
		}
	}
	return service.Summary{}, ErrNotFound
}

// Ping reports PingErr.
func (f *FakeService) Ping(ctx context.Context) error {
	return f.PingErr
}

func (f *FakeService) newID() string {
	f.nextID++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", f.nextID)
}
