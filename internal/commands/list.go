package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"booktrack/internal/collection"
	"booktrack/internal/config"
	"booktrack/internal/exitcode"
	"booktrack/internal/output"
	"booktrack/internal/service"
)

func init() {
	Register(&ListCmd{})
	Register(&StatsCmd{})
}

// ListCmd implements the list command.
// Handles both `booktrack` (no args) and `booktrack list --status <s>`.
type ListCmd struct {
	status string
}

// SetStatus sets the status filter (for testing).
func (c *ListCmd) SetStatus(status string) {
	c.status = status
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List books" }
func (c *ListCmd) Usage() string     { return "booktrack list [--status <status>]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.status, "s", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	store, code := loadStore(ctx, svc, c.status, errOut)
	if store == nil {
		return code
	}

	books := store.Books()
	output.FormatBooks(out, books)
	if len(books) > 0 && !cfg.Quiet {
		fmt.Fprintln(out)
		output.FormatCounts(out, store.Counts())
	}
	return exitcode.Success
}

// StatsCmd implements the stats command.
type StatsCmd struct {
	status string
}

func (c *StatsCmd) Name() string      { return "stats" }
func (c *StatsCmd) Aliases() []string { return nil }
func (c *StatsCmd) Synopsis() string  { return "Show book counts by status" }
func (c *StatsCmd) Usage() string     { return "booktrack stats [--status <status>]" }
func (c *StatsCmd) NeedsAuth() bool   { return true }

func (c *StatsCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.status, "s", "", "")
}

func (c *StatsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	store, code := loadStore(ctx, svc, c.status, errOut)
	if store == nil {
		return code
	}
	output.FormatCounts(out, store.Counts())
	return exitcode.Success
}

// loadStore parses the status filter and loads a fresh store with it.
// On failure it reports the error and returns a nil store.
func loadStore(ctx context.Context, svc service.Service, status string, errOut io.Writer) (*collection.Store, int) {
	filter, err := service.ParseFilter(status)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, exitcode.UserError
	}
	store := collection.New()
	if err := store.Load(ctx, svc, filter); err != nil {
		return nil, reportError(errOut, err)
	}
	return store, exitcode.Success
}
