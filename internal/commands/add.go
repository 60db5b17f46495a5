package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"booktrack/internal/collection"
	"booktrack/internal/config"
	"booktrack/internal/exitcode"
	"booktrack/internal/lookup"
	"booktrack/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	author   string
	status   string
	query    string
	searcher Searcher
}

// SetAuthor sets the author (for testing).
func (c *AddCmd) SetAuthor(author string) {
	c.author = author
}

// SetStatus sets the initial status (for testing).
func (c *AddCmd) SetStatus(status string) {
	c.status = status
}

// SetLookup sets the search query and searcher (for testing).
func (c *AddCmd) SetLookup(query string, s Searcher) {
	c.query = query
	c.searcher = s
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Add a book" }
func (c *AddCmd) Usage() string {
	return "booktrack add [--author <author>] [--status <status>] [--lookup <query>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.author, "author", "", "")
	fs.StringVar(&c.author, "a", "", "")
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.status, "s", "", "")
	fs.StringVar(&c.query, "lookup", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	draft := service.Draft{
		Title:  strings.Join(args, " "),
		Author: c.author,
	}
	if c.status != "" {
		status, err := service.ParseStatus(c.status)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		draft.Status = status
	}

	if strings.TrimSpace(c.query) != "" {
		searcher, code := c.lookupSearcher(ctx, cfg, errOut)
		if searcher == nil {
			return code
		}
		found, err := firstCandidate(ctx, searcher, c.query)
		if err != nil {
			return reportLookupError(errOut, err)
		}
		filled := found.Draft(draft.Status)
		if strings.TrimSpace(draft.Title) == "" {
			draft.Title = filled.Title
		}
		if strings.TrimSpace(draft.Author) == "" {
			draft.Author = filled.Author
		}
	}

	book, err := collection.New().Create(ctx, svc, draft)
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "added: %s by %s\n", book.Title, book.Author)
	}
	return exitcode.Success
}

func (c *AddCmd) lookupSearcher(ctx context.Context, cfg *config.Config, errOut io.Writer) (Searcher, int) {
	if c.searcher != nil {
		return c.searcher, exitcode.Success
	}
	client, err := lookup.New(ctx, cfg.GoogleBooksKey)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, exitcode.BackendError
	}
	return client, exitcode.Success
}

func firstCandidate(ctx context.Context, s Searcher, query string) (lookup.Candidate, error) {
	found, err := s.Search(ctx, query, 1)
	if err != nil {
		return lookup.Candidate{}, err
	}
	if len(found) == 0 {
		return lookup.Candidate{}, &refError{fmt.Sprintf("no books found for %q", query)}
	}
	return found[0], nil
}
