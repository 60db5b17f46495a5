package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"booktrack/internal/config"
	"booktrack/internal/exitcode"
	"booktrack/internal/service"
	"booktrack/internal/session"
)

func init() {
	Register(&WhoamiCmd{})
}

// Pinger is implemented by services that can check API reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Show the signed-in user" }
func (c *WhoamiCmd) Usage() string     { return "booktrack whoami" }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	token, ok, err := session.ProviderFor(cfg).CurrentToken(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	if !ok {
		return reportError(errOut, service.ErrUnauthenticated)
	}

	user, expiry, err := session.ParseClaims(token)
	if err != nil {
		fmt.Fprintln(out, "user: unknown (opaque token)")
	} else {
		fmt.Fprintf(out, "user: %s\n", displayUser(user))
		if user.ID != "" && user.Email != "" {
			fmt.Fprintf(out, "id: %s\n", user.ID)
		}
		if !expiry.IsZero() {
			fmt.Fprintf(out, "expires: %s\n", expiry.Local().Format("2006-01-02 15:04"))
		}
	}

	if p, ok := svc.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			fmt.Fprintf(out, "api: unreachable (%v)\n", err)
			return exitcode.BackendError
		}
		fmt.Fprintf(out, "api: ok (%s)\n", cfg.APIURL)
	}
	return exitcode.Success
}
