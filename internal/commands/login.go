package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/oauth2"

	"booktrack/internal/config"
	"booktrack/internal/exitcode"
	"booktrack/internal/service"
	"booktrack/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email string
	in    io.Reader
}

// SetEmail sets the email (for testing).
func (c *LoginCmd) SetEmail(email string) {
	c.email = email
}

// SetInput sets where the email and password are read from (for testing).
func (c *LoginCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in with email and password" }
func (c *LoginCmd) Usage() string     { return "booktrack login [--email <email>]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if cfg.AuthURL == "" {
		fmt.Fprintf(errOut, "error: %v\n", session.ErrNoAuthURL)
		return exitcode.AuthError
	}

	provider := session.NewFileProvider(session.OptionsFromConfig(cfg))

	// Check if already logged in (session exists and is still valid)
	if s, ok, err := provider.CurrentSession(ctx); err == nil && ok {
		if !cfg.Quiet {
			fmt.Fprintf(out, "already logged in as %s\n", displayUser(s.User))
		}
		return exitcode.Success
	}

	in := c.in
	if in == nil {
		in = os.Stdin
	}
	reader := bufio.NewReader(in)

	email := strings.TrimSpace(c.email)
	if email == "" {
		fmt.Fprint(errOut, "Email: ")
		email = readLine(reader)
	}
	if email == "" {
		fmt.Fprintln(errOut, "error: email required")
		return exitcode.UserError
	}
	fmt.Fprint(errOut, "Password: ")
	password := readLine(reader)
	if password == "" {
		fmt.Fprintln(errOut, "error: password required")
		return exitcode.UserError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}

	s, err := provider.Login(ctx, email, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode < 500 {
			fmt.Fprintln(errOut, "error: invalid email or password")
			return exitcode.AuthError
		}
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s\n", displayUser(s.User))
	}
	return exitcode.Success
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func displayUser(u session.User) string {
	switch {
	case u.Email != "":
		return u.Email
	case u.ID != "":
		return u.ID
	}
	return "unknown user"
}
