package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mesh-intelligence/cvtracker/internal/datastore"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

// minLifetime is the shortest expiry assumed for a new credential.
const minLifetime = time.Hour

// User is the signed-in account.
type User struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Grant is the result of an interactive sign-in.
type Grant struct {
	AccessToken string
	ExpiresIn   time.Duration
	Email       string
	Name        string
	Picture     string
}

// Provider is the identity provider.
type Provider interface {
	Login(ctx context.Context) (Grant, error)
	Revoke(ctx context.Context, token string) error
}

// ConfigSource reads the remote configuration with a credential.
// EnsureConfig also fills missing per-profile email keys; ReadConfig only
// reads.
type ConfigSource interface {
	EnsureConfig(ctx context.Context, token string) (types.RemoteConfig, error)
	ReadConfig(ctx context.Context, token string) (types.RemoteConfig, error)
}

// Info is a read-only view of the session.
type Info struct {
	State        State
	User         User
	ExpiresAt    time.Time
	Profile      types.ProfileID
	UsedFallback bool
	Config       types.RemoteConfig
}

// Manager drives the session state machine. It is safe for concurrent use.
type Manager struct {
	mu           sync.Mutex
	state        State
	user         User
	token        string
	expiresAt    time.Time
	config       types.RemoteConfig
	profile      types.ProfileID
	usedFallback bool

	provider Provider
	source   ConfigSource
	vault    Vault
	allowed  []string
	notifier datastore.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithAllowList sets the accounts allowed to sign in. Comparison ignores
// case and surrounding space.
func WithAllowList(emails []string) Option {
	return func(m *Manager) {
		m.allowed = m.allowed[:0]
		for _, e := range emails {
			if e = normalizeEmail(e); e != "" {
				m.allowed = append(m.allowed, e)
			}
		}
	}
}

// WithVault sets session persistence. The default is the OS keyring.
func WithVault(v Vault) Option { return func(m *Manager) { m.vault = v } }

// WithNotifier sets the receiver of user-facing notices.
func WithNotifier(n datastore.Notifier) Option { return func(m *Manager) { m.notifier = n } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// NewManager returns a Manager in StateRestoring.
func NewManager(provider Provider, source ConfigSource, opts ...Option) *Manager {
	m := &Manager{
		state:    StateRestoring,
		provider: provider,
		source:   source,
		vault:    NewKeyring(),
		notifier: datastore.NopNotifier{},
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "session")
	return m
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (m *Manager) isAllowed(email string) bool {
	email = normalizeEmail(email)
	if email == "" {
		return false
	}
	for _, a := range m.allowed {
		if a == email {
			return true
		}
	}
	return false
}

// Info returns the current session.
func (m *Manager) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Info{
		State:        m.state,
		User:         m.user,
		ExpiresAt:    m.expiresAt,
		Profile:      m.profile,
		UsedFallback: m.usedFallback,
		Config:       m.config.Clone(),
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the bearer credential of an authenticated, unexpired
// session.
func (m *Manager) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return "", ErrNotAuthenticated
	}
	if !m.now().Before(m.expiresAt) {
		return "", ErrSessionExpired
	}
	return m.token, nil
}

// transition moves to next. Callers hold mu.
func (m *Manager) transition(next State) error {
	if !CanTransition(m.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, next)
	}
	m.logger.Debug("session transition", "from", m.state, "to", next)
	m.state = next
	return nil
}

// reset clears the signed-in fields. Callers hold mu.
func (m *Manager) reset() {
	m.user = User{}
	m.token = ""
	m.expiresAt = time.Time{}
	m.config = nil
	m.profile = ""
	m.usedFallback = false
}

// Login runs the interactive sign-in. A disallowed account has its
// credential revoked and ErrEmailNotAllowed is returned.
func (m *Manager) Login(ctx context.Context) error {
	if st := m.State(); st != StateUnauthenticated {
		return fmt.Errorf("%w: login from %s", ErrInvalidTransition, st)
	}
	grant, err := m.provider.Login(ctx)
	if err != nil {
		return fmt.Errorf("signing in: %w", err)
	}
	email := normalizeEmail(grant.Email)
	if !m.isAllowed(email) {
		m.revoke(ctx, grant.AccessToken)
		m.logger.Warn("sign-in rejected", "email", email)
		return fmt.Errorf("%w: %s", ErrEmailNotAllowed, email)
	}

	config := m.loadConfig(ctx, grant.AccessToken)
	if config == nil {
		m.revoke(ctx, grant.AccessToken)
		return fmt.Errorf("reading configuration: %w", ErrNotAuthenticated)
	}
	lifetime := max(minLifetime, grant.ExpiresIn)
	p := Persisted{
		User:        User{Email: email, Name: grant.Name, Picture: grant.Picture},
		AccessToken: grant.AccessToken,
		ExpiresAt:   m.now().Add(lifetime),
	}
	if err := m.vault.SaveSession(p); err != nil {
		m.logger.Warn("session not persisted", "err", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.transition(StateAuthenticated); err != nil {
		return err
	}
	m.activate(p, config)
	m.logger.Info("signed in", "email", email, "expires_at", p.ExpiresAt, "profile", m.profile)
	return nil
}

// loadConfig reads the configuration, filling missing profile emails when
// possible. It returns nil when neither read succeeds.
func (m *Manager) loadConfig(ctx context.Context, token string) types.RemoteConfig {
	config, err := m.source.EnsureConfig(ctx, token)
	if err == nil {
		return config
	}
	m.notifier.Notify(datastore.Notice{
		Level:   datastore.LevelError,
		Message: fmt.Sprintf("Could not fill PROFILE_EMAIL_* in %s: %v", types.ConfigSheet, err),
	})
	config, err = m.source.ReadConfig(ctx, token)
	if err != nil {
		m.logger.Error("configuration read failed", "err", err)
		return nil
	}
	return config
}

// activate installs a signed-in session and resolves the profile. Callers
// hold mu.
func (m *Manager) activate(p Persisted, config types.RemoteConfig) {
	m.user = p.User
	m.token = p.AccessToken
	m.expiresAt = p.ExpiresAt
	m.config = config
	m.profile, m.usedFallback = m.resolveProfile(p.User.Email, config)
	if m.usedFallback {
		m.notifier.Notify(datastore.Notice{
			Level:   datastore.LevelInfo,
			Message: fmt.Sprintf("No profile matches %s; using %s", p.User.Email, m.profile),
		})
	}
}

// resolveProfile picks the stored override, then the profile whose
// configured email matches, then the default.
func (m *Manager) resolveProfile(email string, config types.RemoteConfig) (types.ProfileID, bool) {
	if p, ok, err := m.vault.LoadOverride(); err == nil && ok {
		return p, false
	}
	return ResolveProfile(email, config)
}

// ResolveProfile matches email against the configured profile emails and
// falls back to the default profile.
func ResolveProfile(email string, config types.RemoteConfig) (types.ProfileID, bool) {
	email = normalizeEmail(email)
	for _, p := range types.Profiles {
		if email != "" && config.ProfileEmail(p) == email {
			return p, false
		}
	}
	return types.DefaultProfile, true
}

// RestoreSession resumes a stored session. Without one, or with an expired
// one, the manager becomes unauthenticated. Any failure while resuming
// revokes and clears the stored session without a notice.
func (m *Manager) RestoreSession(ctx context.Context) error {
	if st := m.State(); st != StateRestoring {
		return fmt.Errorf("%w: restore from %s", ErrInvalidTransition, st)
	}

	p, ok, err := m.vault.LoadSession()
	if err != nil {
		m.logger.Debug("no stored session", "err", err)
	}
	if !ok || err != nil || !m.now().Before(p.ExpiresAt) {
		m.clearStored()
		return m.settle(StateUnauthenticated, Persisted{}, nil)
	}
	if !m.isAllowed(p.User.Email) {
		m.discard(ctx, p.AccessToken)
		return m.settle(StateUnauthenticated, Persisted{}, nil)
	}
	config, err := m.source.EnsureConfig(ctx, p.AccessToken)
	if err != nil {
		m.logger.Debug("stored session rejected", "err", err)
		m.discard(ctx, p.AccessToken)
		return m.settle(StateUnauthenticated, Persisted{}, nil)
	}
	return m.settle(StateAuthenticated, p, config)
}

func (m *Manager) settle(next State, p Persisted, config types.RemoteConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.transition(next); err != nil {
		return err
	}
	if next == StateAuthenticated {
		m.activate(p, config)
		m.logger.Info("session restored", "email", p.User.Email, "expires_at", p.ExpiresAt)
	} else {
		m.reset()
	}
	return nil
}

// Logout revokes the credential and clears the stored session and
// profile override.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if err := m.transition(StateUnauthenticated); err != nil {
		m.mu.Unlock()
		return err
	}
	token := m.token
	m.reset()
	m.mu.Unlock()

	m.revoke(ctx, token)
	m.clearStored()
	if err := m.vault.ClearOverride(); err != nil {
		m.logger.Warn("profile override not cleared", "err", err)
	}
	m.logger.Info("signed out")
	return nil
}

// CheckExpiry ends an authenticated session whose credential has expired.
// It reports whether the session ended.
func (m *Manager) CheckExpiry() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated || m.now().Before(m.expiresAt) {
		return false
	}
	if err := m.transition(StateUnauthenticated); err != nil {
		return false
	}
	m.reset()
	m.clearStored()
	m.logger.Info("session expired")
	return true
}

// SetActiveProfile stores p as the override and, when signed in, switches
// to it.
func (m *Manager) SetActiveProfile(p types.ProfileID) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", types.ErrUnknownProfile, p)
	}
	if err := m.vault.SaveOverride(p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticated {
		m.profile = p
		m.usedFallback = false
	}
	return nil
}

func (m *Manager) revoke(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := m.provider.Revoke(ctx, token); err != nil {
		m.logger.Warn("revoke failed", "err", err)
	}
}

func (m *Manager) discard(ctx context.Context, token string) {
	m.revoke(ctx, token)
	m.clearStored()
}

func (m *Manager) clearStored() {
	if err := m.vault.ClearSession(); err != nil {
		m.logger.Warn("stored session not cleared", "err", err)
	}
}
