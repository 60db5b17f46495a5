package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"booktrack/internal/collection"
	"booktrack/internal/config"
	"booktrack/internal/exitcode"
	"booktrack/internal/service"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd implements the status command.
type StatusCmd struct{}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return []string{"mark"} }
func (c *StatusCmd) Synopsis() string  { return "Change the status of a book" }
func (c *StatusCmd) Usage() string     { return "booktrack status <ref> <reading|completed|wishlist>" }
func (c *StatusCmd) NeedsAuth() bool   { return true }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return reportRefError(errOut, ErrBookRefRequired)
	}
	ref, err := ParseBookRef(args[0])
	if err != nil {
		return reportRefError(errOut, err)
	}
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: status required")
		return exitcode.UserError
	}
	status, err := service.ParseStatus(args[1])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	store := collection.New()
	book, err := resolveBook(ctx, store, svc, ref)
	if err != nil {
		return reportError(errOut, err)
	}
	updated, err := store.SetStatus(ctx, svc, book.ID, status)
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "%s: %s\n", updated.Title, updated.Status)
	}
	return exitcode.Success
}
