package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

// Keyring service and account names.
const (
	KeyringService  = "cvtracker"
	accountSession  = "session"
	accountOverride = "profile_override"
)

// Persisted is the session state kept between runs.
type Persisted struct {
	User        User      `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Vault stores the session and the profile override.
type Vault interface {
	LoadSession() (Persisted, bool, error)
	SaveSession(Persisted) error
	ClearSession() error
	LoadOverride() (types.ProfileID, bool, error)
	SaveOverride(types.ProfileID) error
	ClearOverride() error
}

// Keyring is a Vault backed by the OS keychain.
type Keyring struct {
	Service string
}

// NewKeyring returns a Keyring using KeyringService.
func NewKeyring() Keyring { return Keyring{Service: KeyringService} }

func (k Keyring) get(account string) (string, bool, error) {
	v, err := keyring.Get(k.Service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s from keyring: %w", account, err)
	}
	return v, true, nil
}

func (k Keyring) delete(account string) error {
	err := keyring.Delete(k.Service, account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("removing %s from keyring: %w", account, err)
	}
	return nil
}

// LoadSession returns the stored session. A malformed entry reads as
// absent.
func (k Keyring) LoadSession() (Persisted, bool, error) {
	raw, ok, err := k.get(accountSession)
	if err != nil || !ok {
		return Persisted{}, false, err
	}
	var p Persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.AccessToken == "" || p.User.Email == "" {
		return Persisted{}, false, nil
	}
	return p, true, nil
}

// SaveSession stores p.
func (k Keyring) SaveSession(p Persisted) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := keyring.Set(k.Service, accountSession, string(b)); err != nil {
		return fmt.Errorf("writing session to keyring: %w", err)
	}
	return nil
}

// ClearSession removes the stored session.
func (k Keyring) ClearSession() error { return k.delete(accountSession) }

// LoadOverride returns the stored profile override.
func (k Keyring) LoadOverride() (types.ProfileID, bool, error) {
	v, ok, err := k.get(accountOverride)
	if err != nil || !ok {
		return "", false, err
	}
	p := types.ProfileID(v)
	if !p.Valid() {
		return "", false, nil
	}
	return p, true, nil
}

// SaveOverride stores p as the profile override.
func (k Keyring) SaveOverride(p types.ProfileID) error {
	if err := keyring.Set(k.Service, accountOverride, string(p)); err != nil {
		return fmt.Errorf("writing profile override to keyring: %w", err)
	}
	return nil
}

// ClearOverride removes the profile override.
func (k Keyring) ClearOverride() error { return k.delete(accountOverride) }
