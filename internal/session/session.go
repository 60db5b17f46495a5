// Package session provides access tokens for authenticated API calls.
//
// A TokenProvider is consulted on every request; no other package keeps a
// copy of the token, so an expired or revoked session is noticed on the next
// call.
package session

import (
	"context"
	"os"
	"strings"
	"time"

	"booktrack/internal/config"
)

// TokenProvider yields the current access token.
// ok is false with a nil error when no session exists; that is an expected
// state, not a failure.
type TokenProvider interface {
	CurrentToken(ctx context.Context) (token string, ok bool, err error)
}

// User identifies the signed-in user.
type User struct {
	ID    string
	Email string
}

// Session is the live identity-provider session.
type Session struct {
	AccessToken string
	User        User
	Expiry      time.Time
}

// EnvProvider reads the token from the environment at call time.
type EnvProvider struct {
	// Key is the variable name; empty uses config.EnvToken.
	Key string
}

// CurrentToken implements TokenProvider.
func (p EnvProvider) CurrentToken(ctx context.Context) (string, bool, error) {
	key := p.Key
	if key == "" {
		key = config.EnvToken
	}
	token := strings.TrimSpace(os.Getenv(key))
	return token, token != "", nil
}

// Chain asks each provider in order and returns the first session found.
type Chain []TokenProvider

// CurrentToken implements TokenProvider.
func (c Chain) CurrentToken(ctx context.Context) (string, bool, error) {
	for _, p := range c {
		token, ok, err := p.CurrentToken(ctx)
		if err != nil {
			return "", false, err
		}
		if ok {
			return token, true, nil
		}
	}
	return "", false, nil
}

// ProviderFor returns the default provider chain for cfg: the environment
// token first, then the stored session.
func ProviderFor(cfg *config.Config) TokenProvider {
	return Chain{EnvProvider{}, NewFileProvider(OptionsFromConfig(cfg))}
}
