// Package service defines the backend-agnostic interface for book operations.
package service

import "context"

// Service defines the interface for book backend operations.
// All remote book API calls go through this interface.
// Commands never import the HTTP backend directly.
type Service interface {
	// ListBooks returns the user's books in server order.
	// The zero Filter lists every book; a set filter narrows the listing
	// server-side to one status.
	ListBooks(ctx context.Context, filter Filter) ([]Book, error)

	// CreateBook creates a book. The server assigns id and created_at.
	CreateBook(ctx context.Context, draft Draft) (Book, error)

	// DeleteBook deletes a book by ID.
	DeleteBook(ctx context.Context, id string) error

	// SetStatus changes only the status of a book and returns the updated book.
	SetStatus(ctx context.Context, id string, status Status) (Book, error)

	// FetchSummary generates a summary for a book.
	// Slow, and every call re-incurs the generation cost; callers cache.
	FetchSummary(ctx context.Context, id string) (Summary, error)
}
