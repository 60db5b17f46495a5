package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"booktrack/internal/config"
)

const (
	// expiryLeeway refreshes tokens slightly before they expire.
	expiryLeeway = 30 * time.Second

	// authTimeout bounds calls to the identity provider.
	authTimeout = 15 * time.Second

	tokenPath  = "/auth/v1/token"
	logoutPath = "/auth/v1/logout"
)

// ErrNoAuthURL is returned when an identity-provider call is needed but no
// auth URL is configured.
var ErrNoAuthURL = errors.New("auth url not configured (set auth_url or " + config.EnvAuthURL + ")")

// Options configure a FileProvider.
type Options struct {
	// Path is the session file.
	Path string

	// AuthURL is the identity provider base URL.
	AuthURL string

	// AnonKey is sent as the apikey header and client id.
	AnonKey string

	// HTTPClient is used for identity-provider calls (optional).
	HTTPClient *http.Client
}

// OptionsFromConfig builds Options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Path:    cfg.SessionPath(),
		AuthURL: cfg.AuthURL,
		AnonKey: cfg.AnonKey,
	}
}

// FileProvider serves the session stored on disk, refreshing it through the
// identity provider when it has expired.
// The file is re-read on every call.
type FileProvider struct {
	path    string
	authURL string
	http    *http.Client
	oauth   *oauth2.Config
	now     func() time.Time
}

// NewFileProvider creates a FileProvider.
func NewFileProvider(opts Options) *FileProvider {
	authURL := strings.TrimRight(strings.TrimSpace(opts.AuthURL), "/")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: authTimeout}
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	withKey := *httpClient
	withKey.Transport = &apiKeyTransport{base: base, key: opts.AnonKey}

	return &FileProvider{
		path:    opts.Path,
		authURL: authURL,
		http:    &withKey,
		oauth: &oauth2.Config{
			ClientID: opts.AnonKey,
			Endpoint: oauth2.Endpoint{
				TokenURL:  authURL + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		now: time.Now,
	}
}

// CurrentToken implements TokenProvider.
func (p *FileProvider) CurrentToken(ctx context.Context) (string, bool, error) {
	s, ok, err := p.CurrentSession(ctx)
	if err != nil || !ok {
		return "", false, err
	}
	return s.AccessToken, true, nil
}

// CurrentSession returns the live session, refreshing an expired token.
// A refresh rejected by the identity provider means there is no session.
func (p *FileProvider) CurrentSession(ctx context.Context) (Session, bool, error) {
	tok, err := p.load()
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return Session{}, false, nil
	}

	if p.expired(tok) {
		if tok.RefreshToken == "" {
			return Session{}, false, nil
		}
		refreshed, err := p.refresh(ctx, tok)
		if err != nil {
			if isRejected(err) {
				slog.Debug("session refresh rejected", "error", err)
				return Session{}, false, nil
			}
			return Session{}, false, fmt.Errorf("refresh session: %w", err)
		}
		if err := p.save(refreshed); err != nil {
			return Session{}, false, err
		}
		slog.Debug("session refreshed", "expiry", refreshed.Expiry)
		tok = refreshed
	}
	return sessionFromToken(tok), true, nil
}

// Login exchanges email and password for a session and stores it.
func (p *FileProvider) Login(ctx context.Context, email, password string) (Session, error) {
	if p.authURL == "" {
		return Session{}, ErrNoAuthURL
	}
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	tok, err := p.oauth.PasswordCredentialsToken(p.clientContext(ctx), email, password)
	if err != nil {
		return Session{}, fmt.Errorf("sign in: %w", err)
	}
	if err := p.save(tok); err != nil {
		return Session{}, err
	}
	return sessionFromToken(tok), nil
}

// SignOut revokes the session at the identity provider (best effort) and
// removes it locally. It reports whether a session existed.
func (p *FileProvider) SignOut(ctx context.Context) (bool, error) {
	tok, err := p.load()
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err == nil && tok.AccessToken != "" && p.authURL != "" {
		if err := p.revoke(ctx, tok.AccessToken); err != nil {
			slog.Warn("remote sign out failed", "error", err)
		}
	}
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return true, fmt.Errorf("remove session: %w", err)
	}
	return true, nil
}

func (p *FileProvider) revoke(ctx context.Context, accessToken string) error {
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.authURL+logoutPath, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("logout returned status %d", resp.StatusCode)
	}
	return nil
}

func (p *FileProvider) refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if p.authURL == "" {
		return nil, ErrNoAuthURL
	}
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	src := p.oauth.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: tok.RefreshToken})
	return src.Token()
}

func (p *FileProvider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.http)
}

func (p *FileProvider) expired(tok *oauth2.Token) bool {
	expiry := tok.Expiry
	if expiry.IsZero() {
		_, expiry, _ = ParseClaims(tok.AccessToken)
	}
	if tok.AccessToken == "" {
		return true
	}
	if expiry.IsZero() {
		return false
	}
	return !p.now().Add(expiryLeeway).Before(expiry)
}

func (p *FileProvider) load() (*oauth2.Token, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid session file: %w", err)
	}
	return &tok, nil
}

// save writes the token with mode 0600, creating the directory as needed.
func (p *FileProvider) save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.path, data, 0600); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func sessionFromToken(tok *oauth2.Token) Session {
	s := Session{AccessToken: tok.AccessToken, Expiry: tok.Expiry}
	if user, expiry, err := ParseClaims(tok.AccessToken); err == nil {
		s.User = user
		if s.Expiry.IsZero() {
			s.Expiry = expiry
		}
	}
	return s
}

func isRejected(err error) bool {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return false
	}
	return re.Response.StatusCode >= 400 && re.Response.StatusCode < 500
}

type apiKeyTransport struct {
	base http.RoundTripper
	key  string
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.key == "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("apikey", t.key)
	return t.base.RoundTrip(clone)
}
