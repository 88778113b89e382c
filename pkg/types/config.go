package types

import (
	"errors"
	"maps"
	"strings"
)

// Config selects and parameterizes the RowStore backend.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// Supported backend names.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrDataDirEmpty   = errors.New("data_dir must be set for the sqlite backend")
)

var knownBackends = map[string]bool{
	BackendSheets: true,
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendSQLite && c.DataDir == "" {
		return ErrDataDirEmpty
	}
	return nil
}

// Keys recognized in the remote configuration sheet.
const (
	KeySpreadsheetID      = "SPREADSHEET_ID"
	KeyDriveFolderID      = "GOOGLE_DRIVE_FOLDER_ID"
	KeyMapsAPIKey         = "GOOGLE_MAPS_API_KEY"
	keyHomeAddressPrefix  = "HOME_ADDRESS_"
	keyProfileEmailPrefix = "PROFILE_EMAIL_"
)

// RemoteConfig is the key/value content of the configuration sheet.
type RemoteConfig map[string]string

// Get returns the trimmed value for key.
func (c RemoteConfig) Get(key string) string {
	return strings.TrimSpace(c[key])
}

// SpreadsheetID returns the spreadsheet holding the entity sheets.
func (c RemoteConfig) SpreadsheetID() string { return c.Get(KeySpreadsheetID) }

// DriveFolderID returns the blob store root folder, or "" when unset.
func (c RemoteConfig) DriveFolderID() string { return c.Get(KeyDriveFolderID) }

// MapsAPIKey returns the geocoding key, or "" when unset.
func (c RemoteConfig) MapsAPIKey() string { return c.Get(KeyMapsAPIKey) }

// HomeAddress returns the configured home address of profile p.
func (c RemoteConfig) HomeAddress(p ProfileID) string {
	return c.Get(keyHomeAddressPrefix + strings.ToUpper(string(p)))
}

// ProfileEmailKey returns the configuration key holding p's account email.
func ProfileEmailKey(p ProfileID) string {
	return keyProfileEmailPrefix + string(p)
}

// ProfileEmail returns the lower-cased account email configured for p.
func (c RemoteConfig) ProfileEmail(p ProfileID) string {
	return strings.ToLower(c.Get(ProfileEmailKey(p)))
}

// Clone returns an independent copy of c.
func (c RemoteConfig) Clone() RemoteConfig {
	if c == nil {
		return RemoteConfig{}
	}
	return maps.Clone(c)
}

// DriveValidation reports whether the blob store folder tree is complete.
type DriveValidation struct {
	RootExists bool     `json:"root_exists"`
	Missing    []string `json:"missing_folders"`
}
