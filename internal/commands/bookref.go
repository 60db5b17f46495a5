package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"booktrack/internal/collection"
	"booktrack/internal/service"
)

// BookRef is a parsed book reference: a row number in the current listing
// or a book id.
type BookRef struct {
	Num int    // 1-based row number, 0 when ID is set
	ID  string // canonical book id
}

// ErrBookRefRequired indicates no book reference was provided.
var ErrBookRefRequired = errors.New("book reference required")

// ParseBookRef parses a book reference.
//
// Parsing rules:
// 1. All digits: a row number (must be >= 1)
// 2. A UUID in any accepted form: that book's id
// 3. Otherwise: error: invalid book reference: <ref>
func ParseBookRef(arg string) (BookRef, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return BookRef{}, ErrBookRefRequired
	}

	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil || num < 1 {
			return BookRef{}, fmt.Errorf("book number out of range: %s", arg)
		}
		return BookRef{Num: num}, nil
	}

	id, err := uuid.Parse(arg)
	if err != nil {
		return BookRef{}, fmt.Errorf("invalid book reference: %s", arg)
	}
	return BookRef{ID: id.String()}, nil
}

// resolveBook finds the book ref points at. Row numbers refer to the
// store's listing, loading it unfiltered first when it was never loaded.
// An id not in the store resolves to a book carrying only that id.
func resolveBook(ctx context.Context, store *collection.Store, svc service.Service, ref BookRef) (service.Book, error) {
	if ref.ID != "" {
		if b, ok := store.Find(ref.ID); ok {
			return b, nil
		}
		return service.Book{ID: ref.ID}, nil
	}

	if !store.Snapshot().Loaded {
		if err := store.Load(ctx, svc, service.Filter{}); err != nil {
			return service.Book{}, err
		}
	}
	b, ok := store.At(ref.Num)
	if !ok {
		return service.Book{}, &refError{fmt.Sprintf("book number out of range: %d", ref.Num)}
	}
	return b, nil
}

// refError is a reference that does not resolve to a book.
type refError struct {
	msg string
}

func (e *refError) Error() string {
	return e.msg
}

// isAllDigits returns true if s is non-empty and contains only ASCII digits.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
