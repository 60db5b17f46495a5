// Package commands implements the booktrack subcommands.
package commands

import (
	"context"
	"flag"
	"io"

	"booktrack/internal/config"
	"booktrack/internal/service"
)

// Command is one booktrack subcommand.
type Command interface {
	// Name is the word typed after booktrack.
	Name() string

	// Aliases are alternative words for the same command.
	Aliases() []string

	// Synopsis is the one-line description shown by help.
	Synopsis() string

	// Usage is the argument summary shown by help.
	Usage() string

	// NeedsAuth reports whether the command talks to the books API and so
	// needs a session before it runs.
	NeedsAuth() bool

	// RegisterFlags adds the command's own flags next to the common ones.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command with the positional args left after flag
	// parsing and returns an exitcode value. svc is nil when NeedsAuth is
	// false.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}
