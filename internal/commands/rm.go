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
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a book" }
func (c *RmCmd) Usage() string     { return "booktrack rm <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return reportRefError(errOut, ErrBookRefRequired)
	}
	ref, err := ParseBookRef(args[0])
	if err != nil {
		return reportRefError(errOut, err)
	}

	store := collection.New()
	book, err := resolveBook(ctx, store, svc, ref)
	if err != nil {
		return reportError(errOut, err)
	}
	if err := store.Delete(ctx, svc, book.ID); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
