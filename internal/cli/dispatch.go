// Package cli parses the command line and runs booktrack commands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"booktrack/internal/commands"
	"booktrack/internal/config"
	"booktrack/internal/exitcode"
	"booktrack/internal/logging"
	"booktrack/internal/service"
)

// defaultCommand runs when booktrack is invoked without arguments.
const defaultCommand = "list"

// ServiceFactory builds the books API client for commands that need one.
// It returns service.ErrUnauthenticated when there is no session.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher resolves a command from the registry, parses its flags, loads
// the configuration and runs it.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a Dispatcher. A nil factory only checks that a
// session exists and runs commands with a nil service.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{registry: registry, factory: factory}
}

// Run dispatches args and returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	name, rest := defaultCommand, []string(nil)
	if len(args) > 0 {
		name, rest = args[0], args[1:]
	}

	cmd, ok := d.registry.Find(name)
	if !ok || strings.HasPrefix(name, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}
	return d.runCommand(ctx, cmd, rest, out, errOut)
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	quiet     bool
	debug     bool
}

func (d *Dispatcher) runCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	var common commonFlags
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&common.configDir, "config", "", "")
	fs.BoolVar(&common.quiet, "quiet", false, "")
	fs.BoolVar(&common.debug, "debug", false, "")
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}
	positional := fs.Args()
	if len(positional) > 0 && strings.HasPrefix(positional[0], "-") && positional[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positional[0])
		return exitcode.UserError
	}

	cfg, err := config.New(common.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug
	logging.Init(errOut, cfg.Debug, cfg.LogLevel)

	var svc service.Service
	if cmd.NeedsAuth() {
		svc, err = d.service(ctx, cfg)
		if err != nil {
			if service.IsSessionInvalid(err) {
				fmt.Fprintln(errOut, "error: not logged in (run: booktrack login)")
				return exitcode.AuthError
			}
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.UserError
		}
	}
	return cmd.Run(ctx, cfg, svc, positional, out, errOut)
}

func (d *Dispatcher) service(ctx context.Context, cfg *config.Config) (service.Service, error) {
	if d.factory == nil {
		if !cfg.HasSession() {
			return nil, service.ErrUnauthenticated
		}
		return nil, nil
	}
	return d.factory(ctx, cfg)
}

// flagError rewords the flag package's parse errors.
func flagError(err error) string {
	const undefined = "flag provided but not defined: "
	msg := err.Error()
	if name, ok := strings.CutPrefix(msg, undefined); ok {
		return "unknown flag: " + name
	}
	return msg
}
