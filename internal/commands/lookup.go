package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"booktrack/internal/config"
	"booktrack/internal/exitcode"
	"booktrack/internal/lookup"
	"booktrack/internal/output"
	"booktrack/internal/service"
)

func init() {
	Register(&LookupCmd{})
}

// Searcher finds book candidates by free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]lookup.Candidate, error)
}

// LookupCmd implements the lookup command.
type LookupCmd struct {
	limit    int
	searcher Searcher
}

// SetSearcher sets the searcher (for testing).
func (c *LookupCmd) SetSearcher(s Searcher) {
	c.searcher = s
}

// SetLimit sets the result limit (for testing).
func (c *LookupCmd) SetLimit(n int) {
	c.limit = n
}

func (c *LookupCmd) Name() string      { return "lookup" }
func (c *LookupCmd) Aliases() []string { return []string{"search"} }
func (c *LookupCmd) Synopsis() string  { return "Search Google Books" }
func (c *LookupCmd) Usage() string     { return "booktrack lookup [--limit <n>] <query...>" }
func (c *LookupCmd) NeedsAuth() bool   { return false }

func (c *LookupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.limit, "limit", lookup.DefaultLimit, "")
	fs.IntVar(&c.limit, "n", lookup.DefaultLimit, "")
}

func (c *LookupCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		fmt.Fprintln(errOut, "error: search query required")
		return exitcode.UserError
	}
	if c.limit < 1 || c.limit > lookup.MaxResults {
		fmt.Fprintf(errOut, "error: invalid limit: %d (1-%d)\n", c.limit, lookup.MaxResults)
		return exitcode.UserError
	}

	searcher := c.searcher
	if searcher == nil {
		client, err := lookup.New(ctx, cfg.GoogleBooksKey)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.BackendError
		}
		searcher = client
	}

	found, err := searcher.Search(ctx, query, c.limit)
	if err != nil {
		return reportLookupError(errOut, err)
	}
	if len(found) == 0 {
		fmt.Fprintln(out, "no books found")
		return exitcode.Success
	}
	for i, cand := range found {
		output.FormatCandidate(out, i+1, cand)
	}
	return exitcode.Success
}

// reportLookupError reports a Google Books failure. Its status codes say
// nothing about the booktrack session.
func reportLookupError(errOut io.Writer, err error) int {
	var refErr *refError
	if errors.As(err, &refErr) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	fmt.Fprintf(errOut, "error: book lookup failed: %v\n", err)
	return exitcode.BackendError
}
