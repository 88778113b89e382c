// Package oauth signs a user in with Google through the loopback redirect
// flow and revokes credentials.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/mesh-intelligence/cvtracker/internal/session"
)

// Google endpoints.
const (
	AuthURL   = "https://accounts.google.com/o/oauth2/auth"
	TokenURL  = "https://oauth2.googleapis.com/token"
	RevokeURL = "https://oauth2.googleapis.com/revoke"
)

// DefaultScopes grants identity plus the sheet, file and calendar access
// the tracker needs.
var DefaultScopes = []string{
	"openid",
	"email",
	"profile",
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive.file",
	"https://www.googleapis.com/auth/calendar.events",
}

const callbackPath = "/callback"

var (
	errStateMismatch = errors.New("oauth callback state mismatch")
	errNoCode        = errors.New("oauth callback carried no code")
)

// Config holds the OAuth client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Provider implements session.Provider against Google.
type Provider struct {
	conf      oauth2.Config
	client    *http.Client
	revokeURL string
	apiOpts   []option.ClientOption
	open      func(string) error
	logger    *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets the client used for token, userinfo and revoke calls.
func WithHTTPClient(c *http.Client) Option { return func(p *Provider) { p.client = c } }

// WithBrowser sets how the consent URL is shown to the user.
func WithBrowser(open func(authURL string) error) Option { return func(p *Provider) { p.open = open } }

// WithEndpoints overrides the authorization, token and revoke URLs.
func WithEndpoints(auth, token, revoke string) Option {
	return func(p *Provider) {
		p.conf.Endpoint = oauth2.Endpoint{AuthURL: auth, TokenURL: token, AuthStyle: oauth2.AuthStyleInParams}
		p.revokeURL = revoke
	}
}

// WithAPIOptions adds client options for the userinfo service.
func WithAPIOptions(opts ...option.ClientOption) Option {
	return func(p *Provider) { p.apiOpts = append(p.apiOpts, opts...) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(p *Provider) { p.logger = l } }

// New returns a Provider for cfg. Without WithBrowser the consent URL is
// only logged.
func New(cfg Config, opts ...Option) *Provider {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	p := &Provider{
		conf: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       scopes,
			Endpoint:     oauth2.Endpoint{AuthURL: AuthURL, TokenURL: TokenURL, AuthStyle: oauth2.AuthStyleInParams},
		},
		client:    http.DefaultClient,
		revokeURL: RevokeURL,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "oauth")
	if p.open == nil {
		p.open = func(u string) error {
			p.logger.Info("open this URL to sign in", "url", u)
			return nil
		}
	}
	return p
}

type callback struct {
	code string
	err  error
}

// Login opens the consent page and waits for the loopback redirect, then
// exchanges the code (with PKCE) and reads the account profile.
func (p *Provider) Login(ctx context.Context) (session.Grant, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return session.Grant{}, fmt.Errorf("listening for oauth callback: %w", err)
	}
	conf := p.conf
	conf.RedirectURL = "http://" + ln.Addr().String() + callbackPath

	state, err := randomState()
	if err != nil {
		ln.Close()
		return session.Grant{}, err
	}
	verifier := oauth2.GenerateVerifier()
	results := make(chan callback, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go srv.Serve(ln)
	defer srv.Close()

	authURL := conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier), oauth2.SetAuthURLParam("prompt", "select_account"))
	if err := p.open(authURL); err != nil {
		return session.Grant{}, fmt.Errorf("opening browser: %w", err)
	}

	var res callback
	select {
	case res = <-results:
	case <-ctx.Done():
		return session.Grant{}, ctx.Err()
	}
	if res.err != nil {
		return session.Grant{}, res.err
	}
	return p.complete(ctx, conf, res.code, verifier)
}

func callbackHandler(state string, results chan<- callback) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callback
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("oauth consent failed: %s", q.Get("error"))
		case q.Get("state") != state:
			res.err = errStateMismatch
		case q.Get("code") == "":
			res.err = errNoCode
		default:
			res.code = q.Get("code")
		}
		msg := "Signed in. You can close this window."
		if res.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			msg = "Sign-in failed: " + res.err.Error()
		}
		fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", html.EscapeString(msg))
		select {
		case results <- res:
		default:
		}
	})
	return mux
}

func (p *Provider) complete(ctx context.Context, conf oauth2.Config, code, verifier string) (session.Grant, error) {
	hctx := context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := conf.Exchange(hctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return session.Grant{}, fmt.Errorf("exchanging oauth code: %w", err)
	}

	opts := append([]option.ClientOption{
		option.WithHTTPClient(oauth2.NewClient(hctx, oauth2.StaticTokenSource(tok))),
	}, p.apiOpts...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return session.Grant{}, fmt.Errorf("creating userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return session.Grant{}, fmt.Errorf("reading account profile: %w", err)
	}

	var expiresIn time.Duration
	if !tok.Expiry.IsZero() {
		expiresIn = time.Until(tok.Expiry)
	}
	p.logger.Debug("oauth exchange complete", "email", info.Email, "expires_in", expiresIn)
	return session.Grant{
		AccessToken: tok.AccessToken,
		ExpiresIn:   expiresIn,
		Email:       info.Email,
		Name:        info.Name,
		Picture:     info.Picture,
	}, nil
}

// Revoke invalidates token at the provider.
func (p *Provider) Revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("revoking token: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
