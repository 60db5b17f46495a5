package service

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Status is the reading state of a book.
type Status string

const (
	StatusReading   Status = "reading"
	StatusCompleted Status = "completed"
	StatusWishlist  Status = "wishlist"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusReading, StatusCompleted, StatusWishlist}

// ParseStatus parses a status name (case-insensitive, trimmed).
func ParseStatus(s string) (Status, error) {
	want := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range Statuses {
		if st == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status: %s", s)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusReading, StatusCompleted, StatusWishlist:
		return true
	}
	return false
}

// Filter narrows a listing to one status. The zero value means no filter.
type Filter struct {
	Status Status
}

// ByStatus returns a filter for the given status.
func ByStatus(s Status) Filter {
	return Filter{Status: s}
}

// IsNone reports whether the filter is unset.
func (f Filter) IsNone() bool {
	return f.Status == ""
}

func (f Filter) String() string {
	if f.IsNone() {
		return "all"
	}
	return string(f.Status)
}

// ParseFilter parses a filter name. Empty and "all" mean no filter.
func ParseFilter(s string) (Filter, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" || trimmed == "all" {
		return Filter{}, nil
	}
	status, err := ParseStatus(trimmed)
	if err != nil {
		return Filter{}, err
	}
	return ByStatus(status), nil
}

// Book mirrors a book record returned by the API.
type Book struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id,omitempty"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Status    Status `json:"status"`
	CreatedAt string `json:"created_at"`
}

// Limits enforced by the API on book fields.
const (
	MaxTitleLength  = 500
	MaxAuthorLength = 200
)

// Draft is the payload for creating a book.
type Draft struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Status Status `json:"status"`
}

// Normalize trims title and author and defaults the status to reading.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Author = strings.TrimSpace(d.Author)
	if d.Status == "" {
		d.Status = StatusReading
	}
	return d
}

// Validate checks the draft against the API's field limits.
// Errors wrap ErrInvalidBook.
func (d Draft) Validate() error {
	switch n := utf8.RuneCountInString(d.Title); {
	case n == 0:
		return fmt.Errorf("%w: title required", ErrInvalidBook)
	case n > MaxTitleLength:
		return fmt.Errorf("%w: title too long: %d characters (max %d)", ErrInvalidBook, n, MaxTitleLength)
	}
	switch n := utf8.RuneCountInString(d.Author); {
	case n == 0:
		return fmt.Errorf("%w: author required", ErrInvalidBook)
	case n > MaxAuthorLength:
		return fmt.Errorf("%w: author too long: %d characters (max %d)", ErrInvalidBook, n, MaxAuthorLength)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: invalid status: %s", ErrInvalidBook, d.Status)
	}
	return nil
}

// Summary is the generated summary of a book.
type Summary struct {
	BookID  string `json:"book_id"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Summary string `json:"summary"`
}

// Counts aggregates a collection by status.
type Counts struct {
	Total     int
	Reading   int
	Completed int
	Wishlist  int
}

// CountBooks computes per-status counts for books.
func CountBooks(books []Book) Counts {
	c := Counts{Total: len(books)}
	for _, b := range books {
		switch b.Status {
		case StatusReading:
			c.Reading++
		case StatusCompleted:
			c.Completed++
		case StatusWishlist:
			c.Wishlist++
		}
	}
	return c
}
