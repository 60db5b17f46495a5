// Package collection holds the client-side copy of the user's books and keeps
// it reconciled with the server.
//
// The store only changes in response to a successful server call: a Load
// replaces the whole collection, and Create, Delete and SetStatus apply the
// confirmed result. A failed call leaves the collection as it was.
package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"booktrack/internal/service"
)

// ErrStaleLoad is returned by Load when a newer Load was started before this
// one finished. Its result is discarded.
var ErrStaleLoad = errors.New("stale load discarded")

// Lister fetches the books for a filter.
type Lister interface {
	ListBooks(ctx context.Context, filter service.Filter) ([]service.Book, error)
}

// Snapshot is a copy of the store's state.
type Snapshot struct {
	Books               []service.Book
	Filter              service.Filter
	Loaded              bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// Counts returns per-status counts of the snapshot's books.
func (s Snapshot) Counts() service.Counts {
	return service.CountBooks(s.Books)
}

// Store coordinates concurrent access to the collection.
type Store struct {
	mu         sync.RWMutex
	snapshot   Snapshot
	generation uint64
	now        func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{now: time.Now}
}

// Load fetches the books for filter and replaces the collection with them.
// On failure the collection is kept and the error is recorded and returned.
func (s *Store) Load(ctx context.Context, lister Lister, filter service.Filter) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	books, err := lister.ListBooks(ctx, filter)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return ErrStaleLoad
	}
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = s.now()
		s.snapshot.ConsecutiveFailures++
		return err
	}

	s.snapshot.Books = cloneBooks(books)
	s.snapshot.Filter = filter
	s.snapshot.Loaded = true
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = s.now()
	s.snapshot.ConsecutiveFailures = 0
	return nil
}

// Insert puts book at the front of the collection. A book with the same id
// is replaced in place instead.
func (s *Store) Insert(book service.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(book.ID); i >= 0 {
		s.snapshot.Books[i] = book
		return
	}
	books := make([]service.Book, 0, len(s.snapshot.Books)+1)
	books = append(books, book)
	s.snapshot.Books = append(books, s.snapshot.Books...)
}

// Remove drops the book with id. Unknown ids are ignored.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}
	books := make([]service.Book, 0, len(s.snapshot.Books)-1)
	books = append(books, s.snapshot.Books[:i]...)
	s.snapshot.Books = append(books, s.snapshot.Books[i+1:]...)
}

// Replace substitutes the book with the same id, keeping its position.
// Unknown ids are ignored.
func (s *Store) Replace(book service.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(book.ID); i >= 0 {
		s.snapshot.Books[i] = book
	}
}

// Create validates draft, creates it on the server and inserts the result.
func (s *Store) Create(ctx context.Context, svc service.Service, draft service.Draft) (service.Book, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return service.Book{}, err
	}
	book, err := svc.CreateBook(ctx, draft)
	if err != nil {
		return service.Book{}, err
	}
	s.Insert(book)
	return book, nil
}

// Delete deletes the book on the server, then removes it locally.
func (s *Store) Delete(ctx context.Context, svc service.Service, id string) error {
	if err := svc.DeleteBook(ctx, id); err != nil {
		return err
	}
	s.Remove(id)
	return nil
}

// SetStatus changes the status on the server and replaces the local entry
// with the server's copy.
func (s *Store) SetStatus(ctx context.Context, svc service.Service, id string, status service.Status) (service.Book, error) {
	if !status.Valid() {
		return service.Book{}, fmt.Errorf("%w: invalid status: %s", service.ErrInvalidBook, status)
	}
	book, err := svc.SetStatus(ctx, id, status)
	if err != nil {
		return service.Book{}, err
	}
	s.Replace(book)
	return book, nil
}

// Books returns a copy of the collection in display order.
func (s *Store) Books() []service.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBooks(s.snapshot.Books)
}

// Filter returns the filter of the last successful Load.
func (s *Store) Filter() service.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Filter
}

// Counts returns per-status counts of the collection.
func (s *Store) Counts() service.Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return service.CountBooks(s.snapshot.Books)
}

// At returns the book at 1-based position n.
func (s *Store) At(n int) (service.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n < 1 || n > len(s.snapshot.Books) {
		return service.Book{}, false
	}
	return s.snapshot.Books[n-1], true
}

// Find returns the book with id.
func (s *Store) Find(id string) (service.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.snapshot.Books[i], true
	}
	return service.Book{}, false
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Books = cloneBooks(s.snapshot.Books)
	return snap
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id string) int {
	for i, b := range s.snapshot.Books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func cloneBooks(books []service.Book) []service.Book {
	if len(books) == 0 {
		return nil
	}
	dup := make([]service.Book, len(books))
	copy(dup, books)
	return dup
}
