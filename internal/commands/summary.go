package commands

import (
	"context"
	"flag"
	"io"

	"booktrack/internal/collection"
	"booktrack/internal/config"
	"booktrack/internal/exitcode"
	"booktrack/internal/output"
	"booktrack/internal/service"
	"booktrack/internal/summary"
)

func init() {
	Register(&SummaryCmd{})
}

// SummaryCmd implements the summary command.
type SummaryCmd struct{}

func (c *SummaryCmd) Name() string      { return "summary" }
func (c *SummaryCmd) Aliases() []string { return nil }
func (c *SummaryCmd) Synopsis() string  { return "Generate a summary of a book" }
func (c *SummaryCmd) Usage() string     { return "booktrack summary <ref>" }
func (c *SummaryCmd) NeedsAuth() bool   { return true }

func (c *SummaryCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SummaryCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return reportRefError(errOut, ErrBookRefRequired)
	}
	ref, err := ParseBookRef(args[0])
	if err != nil {
		return reportRefError(errOut, err)
	}

	book, err := resolveBook(ctx, collection.New(), svc, ref)
	if err != nil {
		return reportError(errOut, err)
	}

	cache := summary.New(svc)
	if _, _, err := cache.Toggle(ctx, book.ID); err != nil {
		return reportError(errOut, err)
	}
	s, _ := cache.Get(book.ID)
	output.FormatSummary(out, s)
	return exitcode.Success
}
