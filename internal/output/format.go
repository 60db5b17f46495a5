// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"booktrack/internal/lookup"
	"booktrack/internal/service"
)

// statusWidth fits the longest status name.
const statusWidth = 9

// styles renders for one writer; output that is not a terminal is plain.
type styles struct {
	reading   lipgloss.Style
	completed lipgloss.Style
	wishlist  lipgloss.Style
	title     lipgloss.Style
	muted     lipgloss.Style
	label     lipgloss.Style
}

func stylesFor(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		reading:   r.NewStyle().Foreground(lipgloss.Color("#5fafff")),
		completed: r.NewStyle().Foreground(lipgloss.Color("#5fd75f")),
		wishlist:  r.NewStyle().Foreground(lipgloss.Color("#d7af5f")),
		title:     r.NewStyle().Bold(true),
		muted:     r.NewStyle().Foreground(lipgloss.Color("#808080")),
		label:     r.NewStyle().Faint(true),
	}
}

func (s styles) status(st service.Status) string {
	padded := fmt.Sprintf("%-*s", statusWidth, st)
	switch st {
	case service.StatusReading:
		return s.reading.Render(padded)
	case service.StatusCompleted:
		return s.completed.Render(padded)
	case service.StatusWishlist:
		return s.wishlist.Render(padded)
	}
	return padded
}

// FormatBook formats a numbered book line.
// Format: "{N:>4}  {STATUS:<9}  {TITLE} by {AUTHOR}\n"
func FormatBook(w io.Writer, num int, book service.Book) {
	st := stylesFor(w)
	fmt.Fprintf(w, "%4d  %s  %s by %s\n",
		num, st.status(book.Status), st.title.Render(normalize(book.Title)), normalize(book.Author))
}

// FormatBooks formats a numbered listing, or a notice when it is empty.
func FormatBooks(w io.Writer, books []service.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "no books found")
		return
	}
	for i, b := range books {
		FormatBook(w, i+1, b)
	}
}

// FormatCounts formats the per-status totals on one line.
func FormatCounts(w io.Writer, c service.Counts) {
	st := stylesFor(w)
	fmt.Fprintf(w, "%s %d  %s %d  %s %d  %s %d\n",
		st.label.Render("Total:"), c.Total,
		st.reading.Render("Reading:"), c.Reading,
		st.completed.Render("Completed:"), c.Completed,
		st.wishlist.Render("Wishlist:"), c.Wishlist,
	)
}

// FormatSummary formats a generated summary under its book heading.
func FormatSummary(w io.Writer, s service.Summary) {
	st := stylesFor(w)
	fmt.Fprintf(w, "%s by %s\n\n", st.title.Render(normalize(s.Title)), normalize(s.Author))
	fmt.Fprintln(w, strings.TrimSpace(s.Summary))
}

// FormatCandidate formats a numbered search result.
func FormatCandidate(w io.Writer, num int, c lookup.Candidate) {
	st := stylesFor(w)
	author := c.Author()
	if author == "" {
		author = "unknown author"
	}
	line := fmt.Sprintf("%4d  %s by %s", num, st.title.Render(normalize(c.Title)), author)
	if c.Published != "" {
		line += " " + st.muted.Render("("+c.Published+")")
	}
	fmt.Fprintln(w, line)
}

// normalize flattens a field for one-line display.
// Empty or whitespace-only values become "(untitled)".
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.TrimSpace(s) == "" {
		return "(untitled)"
	}
	return s
}
