package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"booktrack/internal/config"
	"booktrack/internal/exitcode"
	"booktrack/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "booktrack help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	writeHelp(out, DefaultRegistry)
	return exitcode.Success
}

// writeHelp prints one usage line per command in r, then the shared notes.
func writeHelp(w io.Writer, r *Registry) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %-40s  %s\n", "booktrack", "List all books")
	for _, c := range r.All() {
		synopsis := c.Synopsis()
		if aliases := c.Aliases(); len(aliases) > 0 {
			synopsis += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		usage := c.Usage()
		if len(usage) > 40 {
			fmt.Fprintf(w, "  %s\n  %-40s  %s\n", usage, "", synopsis)
			continue
		}
		fmt.Fprintf(w, "  %-40s  %s\n", usage, synopsis)
	}
	fmt.Fprint(w, helpNotes)
}

const helpNotes = `
<status> is one of: reading, completed, wishlist
<ref> is a row number from 'booktrack list' or a book id

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
