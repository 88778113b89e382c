package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/mesh-intelligence/cvtracker/internal/calendar"
	"github.com/mesh-intelligence/cvtracker/internal/datastore"
	"github.com/mesh-intelligence/cvtracker/internal/drive"
	"github.com/mesh-intelligence/cvtracker/internal/maps"
	"github.com/mesh-intelligence/cvtracker/internal/metrics"
	"github.com/mesh-intelligence/cvtracker/internal/oauth"
	"github.com/mesh-intelligence/cvtracker/internal/paths"
	"github.com/mesh-intelligence/cvtracker/internal/service"
	"github.com/mesh-intelligence/cvtracker/internal/session"
	"github.com/mesh-intelligence/cvtracker/internal/sheets"
	"github.com/mesh-intelligence/cvtracker/internal/sqlite"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

// annotationNoSetup marks commands that run without configuration.
const annotationNoSetup = "cvtracker/no-setup"

// app holds what the commands of one invocation share. Components are
// created on first use.
type app struct {
	flags     rootFlags
	cfg       settings
	configDir string
	out       io.Writer
	errOut    io.Writer

	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	notifier datastore.Notifier
	vault    session.Vault

	backend      *sqlite.Backend
	sheetsClient *sheets.Client
	sheetsToken  string
	manager      *session.Manager
	store        *datastore.Store
}

func (a *app) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()
	if cmd.Annotations[annotationNoSetup] != "" {
		return nil
	}

	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	a.configDir = dir
	if err := loadEnvFiles(dir); err != nil {
		return userError(err)
	}
	v, err := loadConfig(dir)
	if err != nil {
		return userError(err)
	}
	a.cfg = decodeSettings(v)
	if a.flags.logLevel != "" {
		a.cfg.LogLevel = a.flags.logLevel
	}
	if a.cfg.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, a.cfg.DataDir); err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	if err := (types.Config{Backend: a.cfg.Backend, DataDir: a.cfg.DataDir}).Validate(); err != nil {
		return userErrorf("config: %w", err)
	}

	if a.logger, err = newLogger(a.errOut, a.cfg.LogLevel); err != nil {
		return err
	}
	a.registry = prometheus.NewRegistry()
	if a.metrics, err = metrics.New(a.registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if a.notifier == nil {
		a.notifier = newConsoleNotifier(a.errOut)
	}
	if a.vault == nil {
		a.vault = session.NewKeyring()
	}
	return nil
}

func (a *app) teardown() error {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
	if a.backend != nil {
		err := a.backend.Detach()
		a.backend = nil
		return err
	}
	return nil
}

func (a *app) local() bool { return a.cfg.Backend == types.BackendSQLite }

// credentials wraps a bearer token for the Google API clients.
func credentials(token string) option.ClientOption {
	return option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
}

// rowStore returns the configured backend. The local backend is attached
// once per invocation and ignores token; the sheets client is reused while
// the token is unchanged.
func (a *app) rowStore(ctx context.Context, token string) (types.RowStore, error) {
	if a.local() {
		if a.backend == nil {
			b := sqlite.NewBackend(sqlite.WithLogger(a.logger), sqlite.WithMetrics(a.metrics))
			if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: a.cfg.DataDir}); err != nil {
				return nil, fmt.Errorf("attach backend: %w", err)
			}
			a.backend = b
		}
		return a.backend, nil
	}
	if a.sheetsClient == nil || a.sheetsToken != token {
		c, err := sheets.New(ctx, sheets.Options{
			Timeout:           a.cfg.RequestTimeout,
			RequestsPerSecond: a.cfg.RequestsPerSecond,
			Logger:            a.logger,
			Metrics:           a.metrics,
		}, credentials(token))
		if err != nil {
			return nil, err
		}
		a.sheetsClient, a.sheetsToken = c, token
	}
	return a.sheetsClient, nil
}

// remoteConfig reads the _Config sheet for the session manager.
type remoteConfig struct{ a *app }

func (r remoteConfig) EnsureConfig(ctx context.Context, token string) (types.RemoteConfig, error) {
	store, err := r.a.rowStore(ctx, token)
	if err != nil {
		return nil, err
	}
	return service.EnsureProfileEmails(ctx, store, r.a.cfg.SpreadsheetID, r.a.cfg.ProfileEmails)
}

func (r remoteConfig) ReadConfig(ctx context.Context, token string) (types.RemoteConfig, error) {
	store, err := r.a.rowStore(ctx, token)
	if err != nil {
		return nil, err
	}
	return service.LoadRemoteConfig(ctx, store, r.a.cfg.SpreadsheetID)
}

func (a *app) sessionManager() *session.Manager {
	if a.manager != nil {
		return a.manager
	}
	provider := oauth.New(
		oauth.Config{ClientID: a.cfg.ClientID, ClientSecret: a.cfg.ClientSecret},
		oauth.WithBrowser(func(u string) error {
			fmt.Fprintf(a.errOut, "Open this URL in your browser to sign in:\n\n  %s\n\n", u)
			return nil
		}),
		oauth.WithLogger(a.logger),
	)
	a.manager = session.NewManager(provider, remoteConfig{a},
		session.WithAllowList(a.cfg.AllowedEmails),
		session.WithVault(a.vault),
		session.WithNotifier(a.notifier),
		session.WithLogger(a.logger),
	)
	return a.manager
}

// restore resumes the stored session if there is one.
func (a *app) restore(ctx context.Context) (*session.Manager, error) {
	m := a.sessionManager()
	if m.State() == session.StateRestoring {
		if err := m.RestoreSession(ctx); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// localProfile picks the profile for the local backend: stored override,
// then the configured profile, then the default.
func (a *app) localProfile() types.ProfileID {
	if p, ok, err := a.vault.LoadOverride(); err == nil && ok {
		return p
	}
	if p, err := types.ParseProfile(a.cfg.Profile); err == nil {
		return p
	}
	return types.DefaultProfile
}

// serviceContext describes the active session. The token is empty for
// the local backend.
func (a *app) serviceContext(ctx context.Context) (service.Context, string, error) {
	if a.local() {
		store, err := a.rowStore(ctx, "")
		if err != nil {
			return service.Context{}, "", err
		}
		config, err := remoteConfig{a}.EnsureConfig(ctx, "")
		if err != nil {
			return service.Context{}, "", fmt.Errorf("reading configuration: %w", err)
		}
		return service.Context{
			Store:              store,
			ProfileID:          a.localProfile(),
			Config:             config,
			DefaultSpreadsheet: a.cfg.SpreadsheetID,
		}, "", nil
	}

	m, err := a.restore(ctx)
	if err != nil {
		return service.Context{}, "", err
	}
	token, err := m.Token()
	if err != nil {
		return service.Context{}, "", fmt.Errorf("%w; run \"cvtracker login\"", err)
	}
	info := m.Info()
	store, err := a.rowStore(ctx, token)
	if err != nil {
		return service.Context{}, "", err
	}
	return service.Context{
		Store:              store,
		ProfileID:          info.Profile,
		Config:             info.Config,
		DefaultSpreadsheet: a.cfg.SpreadsheetID,
	}, token, nil
}

// openStore builds the data store for the session and loads it. Drive and
// calendar need a Google credential; geocoding needs a Maps key.
func (a *app) openStore(ctx context.Context) (*datastore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	sc, token, err := a.serviceContext(ctx)
	if err != nil {
		return nil, err
	}
	opts := []datastore.Option{
		datastore.WithNotifier(a.notifier),
		datastore.WithLogger(a.logger),
		datastore.WithMetrics(a.metrics),
	}
	if token != "" {
		d, err := drive.New(ctx, drive.Options{Timeout: a.cfg.RequestTimeout, Logger: a.logger, Metrics: a.metrics}, credentials(token))
		if err != nil {
			return nil, err
		}
		c, err := calendar.New(ctx, calendar.Options{
			CalendarID: a.cfg.CalendarID,
			Timeout:    a.cfg.RequestTimeout,
			Logger:     a.logger,
			Metrics:    a.metrics,
		}, credentials(token))
		if err != nil {
			return nil, err
		}
		opts = append(opts, datastore.WithDrive(d), datastore.WithCalendar(c))
	}
	g, err := maps.New(sc.Config.MapsAPIKey(), maps.WithLogger(a.logger))
	switch {
	case err == nil:
		opts = append(opts, datastore.WithGeocoder(g))
	case !errors.Is(err, maps.ErrNoAPIKey):
		return nil, err
	}

	s := datastore.New(sc, opts...)
	if err := s.LoadAll(ctx); err != nil {
		s.Close()
		return nil, err
	}
	a.store = s
	return s, nil
}
