package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"booktrack/internal/collection"
	"booktrack/internal/config"
	"booktrack/internal/exitcode"
	"booktrack/internal/output"
	"booktrack/internal/service"
	"booktrack/internal/summary"
)

func init() {
	Register(&ShellCmd{})
}

// ShellCmd implements the interactive shell. The collection and the shown
// summaries live for the whole session.
type ShellCmd struct {
	in io.Reader
}

// SetInput sets the line source (for testing).
func (c *ShellCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *ShellCmd) Name() string      { return "shell" }
func (c *ShellCmd) Aliases() []string { return nil }
func (c *ShellCmd) Synopsis() string  { return "Interactive session" }
func (c *ShellCmd) Usage() string     { return "booktrack shell" }
func (c *ShellCmd) NeedsAuth() bool   { return true }

func (c *ShellCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShellCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	in := c.in
	if in == nil {
		in = os.Stdin
	}
	sh := &shell{
		svc:    svc,
		store:  collection.New(),
		cache:  summary.New(svc),
		out:    out,
		errOut: errOut,
	}

	if code, done := sh.report(sh.store.Load(ctx, svc, service.Filter{})); done {
		return code
	}
	sh.list()

	scanner := bufio.NewScanner(in)
	for {
		if !cfg.Quiet {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return exitcode.Success
		}
		if code, done := sh.exec(ctx, line); done {
			return code
		}
		if ctx.Err() != nil {
			return exitcode.UserError
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(errOut, "error: read input: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}

type shell struct {
	svc    service.Service
	store  *collection.Store
	cache  *summary.Cache
	out    io.Writer
	errOut io.Writer
}

// exec runs one shell line. done is true when the session must end.
func (sh *shell) exec(ctx context.Context, line string) (int, bool) {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "ls", "list":
		sh.list()
	case "refresh":
		if code, done := sh.reload(ctx, sh.store.Filter()); done {
			return code, true
		}
	case "filter":
		filter, err := service.ParseFilter(rest)
		if err != nil {
			fmt.Fprintf(sh.errOut, "error: %v\n", err)
			return exitcode.UserError, false
		}
		if code, done := sh.reload(ctx, filter); done {
			return code, true
		}
	case "stats":
		output.FormatCounts(sh.out, sh.store.Counts())
	case "add":
		draft, err := parseShellDraft(rest)
		if err != nil {
			fmt.Fprintf(sh.errOut, "error: %v\n", err)
			return exitcode.UserError, false
		}
		book, err := sh.store.Create(ctx, sh.svc, draft)
		if code, done := sh.report(err); err != nil {
			return code, done
		}
		fmt.Fprintf(sh.out, "added: %s by %s\n", book.Title, book.Author)
	case "rm", "delete":
		book, code, done := sh.resolve(ctx, rest)
		if book == nil {
			return code, done
		}
		if code, done := sh.report(sh.store.Delete(ctx, sh.svc, book.ID)); code != exitcode.Success {
			return code, done
		}
		sh.cache.Forget(book.ID)
		fmt.Fprintf(sh.out, "deleted: %s\n", book.Title)
	case "mark", "status":
		refArg, statusArg, _ := strings.Cut(rest, " ")
		status, err := service.ParseStatus(statusArg)
		if err != nil {
			fmt.Fprintf(sh.errOut, "error: %v\n", err)
			return exitcode.UserError, false
		}
		book, code, done := sh.resolve(ctx, refArg)
		if book == nil {
			return code, done
		}
		updated, err := sh.store.SetStatus(ctx, sh.svc, book.ID, status)
		if code, done := sh.report(err); err != nil {
			return code, done
		}
		fmt.Fprintf(sh.out, "%s: %s\n", updated.Title, updated.Status)
	case "summary":
		book, code, done := sh.resolve(ctx, rest)
		if book == nil {
			return code, done
		}
		_, visible, err := sh.cache.Toggle(ctx, book.ID)
		if code, done := sh.report(err); err != nil {
			return code, done
		}
		if !visible {
			fmt.Fprintf(sh.out, "summary hidden: %s\n", book.Title)
			break
		}
		s, _ := sh.cache.Get(book.ID)
		output.FormatSummary(sh.out, s)
	case "help":
		fmt.Fprint(sh.out, shellHelp)
	default:
		fmt.Fprintf(sh.errOut, "error: unknown command: %s (try: help)\n", name)
		return exitcode.UserError, false
	}
	return exitcode.Success, false
}

// reload loads the collection with filter, prints it and drops summaries of
// books that are no longer listed.
func (sh *shell) reload(ctx context.Context, filter service.Filter) (int, bool) {
	if code, done := sh.report(sh.store.Load(ctx, sh.svc, filter)); code != exitcode.Success {
		return code, done
	}
	var gone []string
	for _, id := range sh.cache.Visible() {
		if _, ok := sh.store.Find(id); !ok {
			gone = append(gone, id)
		}
	}
	sh.cache.Forget(gone...)
	sh.list()
	return exitcode.Success, false
}

// list prints the collection with any shown summaries under their book.
func (sh *shell) list() {
	snap := sh.store.Snapshot()
	if len(snap.Books) == 0 {
		fmt.Fprintf(sh.out, "no books found (filter: %s)\n", snap.Filter)
		return
	}
	for i, b := range snap.Books {
		output.FormatBook(sh.out, i+1, b)
		if s, ok := sh.cache.Get(b.ID); ok {
			fmt.Fprintf(sh.out, "        %s\n", strings.TrimSpace(s.Summary))
		}
	}
	output.FormatCounts(sh.out, snap.Counts())
}

func (sh *shell) resolve(ctx context.Context, arg string) (*service.Book, int, bool) {
	ref, err := ParseBookRef(arg)
	if err != nil {
		return nil, reportRefError(sh.errOut, err), false
	}
	book, err := resolveBook(ctx, sh.store, sh.svc, ref)
	if err != nil {
		code, done := sh.report(err)
		return nil, code, done
	}
	return &book, exitcode.Success, false
}

// report prints err. The session ends only when the user must log in again.
func (sh *shell) report(err error) (int, bool) {
	if err == nil {
		return exitcode.Success, false
	}
	code := reportError(sh.errOut, err)
	return code, code == exitcode.AuthError
}

// parseShellDraft parses "<title> | <author> [| <status>]".
func parseShellDraft(s string) (service.Draft, error) {
	parts := strings.Split(s, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return service.Draft{}, fmt.Errorf("usage: add <title> | <author> [| <status>]")
	}
	d := service.Draft{Title: parts[0], Author: parts[1]}
	if len(parts) == 3 {
		status, err := service.ParseStatus(parts[2])
		if err != nil {
			return service.Draft{}, err
		}
		d.Status = status
	}
	return d, nil
}

const shellHelp = `Commands:
  ls                                  Show the current listing
  refresh                             Reload the listing from the server
  filter <reading|completed|wishlist|all>
  add <title> | <author> [| <status>] Add a book
  rm <ref>                            Delete a book
  mark <ref> <status>                 Change the status of a book
  summary <ref>                       Show or hide a book's summary
  stats                               Show counts by status
  help                                Show this help
  quit                                Leave the shell

<ref> is a row number from the listing or a book id.
`
