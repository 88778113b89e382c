package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/cvtracker/internal/paths"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "CVTRACKER"
)

// Config keys.
const (
	cfgKeyBackend           = "backend"
	cfgKeyDataDir           = "data_dir"
	cfgKeySpreadsheetID     = "config_spreadsheet_id"
	cfgKeyClientID          = "oauth.client_id"
	cfgKeyClientSecret      = "oauth.client_secret"
	cfgKeyAllowedEmails     = "allowed_emails"
	cfgKeyProfileEmails     = "profile_emails"
	cfgKeyProfile           = "profile"
	cfgKeyCalendarID        = "calendar_id"
	cfgKeyRefreshInterval   = "refresh_interval"
	cfgKeyRequestTimeout    = "request_timeout"
	cfgKeyRequestsPerSecond = "requests_per_second"
	cfgKeyLogLevel          = "log_level"
)

// settings is the local configuration after flags, environment and
// config.yaml have been merged.
type settings struct {
	Backend           string
	DataDir           string
	SpreadsheetID     string
	ClientID          string
	ClientSecret      string
	AllowedEmails     []string
	ProfileEmails     map[types.ProfileID]string
	Profile           string
	CalendarID        string
	RefreshInterval   time.Duration
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	LogLevel          string
}

// configFile is the structure written to config.yaml by init.
type configFile struct {
	Backend         string            `yaml:"backend"`
	DataDir         string            `yaml:"data_dir,omitempty"`
	SpreadsheetID   string            `yaml:"config_spreadsheet_id"`
	OAuth           oauthFile         `yaml:"oauth"`
	AllowedEmails   []string          `yaml:"allowed_emails"`
	ProfileEmails   map[string]string `yaml:"profile_emails,omitempty"`
	RefreshInterval string            `yaml:"refresh_interval"`
	LogLevel        string            `yaml:"log_level"`
}

type oauthFile struct {
	ClientID string `yaml:"client_id"`
}

func defaultConfigFile(dataDir string) configFile {
	return configFile{
		Backend:         types.BackendSheets,
		DataDir:         dataDir,
		RefreshInterval: "5m",
		LogLevel:        "warn",
	}
}

// loadEnvFiles loads .env from the working directory, then from the
// config directory. Existing variables are never overridden.
func loadEnvFiles(configDir string) error {
	for _, f := range []string{paths.EnvFileName, filepath.Join(configDir, paths.EnvFileName)} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// loadConfig reads config.yaml from configDir with CVTRACKER_* environment
// overrides. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSheets)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeySpreadsheetID, "")
	v.SetDefault(cfgKeyClientID, "")
	v.SetDefault(cfgKeyClientSecret, "")
	v.SetDefault(cfgKeyAllowedEmails, []string{})
	v.SetDefault(cfgKeyProfile, "")
	v.SetDefault(cfgKeyCalendarID, "")
	v.SetDefault(cfgKeyRefreshInterval, 5*time.Minute)
	v.SetDefault(cfgKeyRequestTimeout, 30*time.Second)
	v.SetDefault(cfgKeyRequestsPerSecond, 1.0)
	v.SetDefault(cfgKeyLogLevel, "warn")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// decodeSettings extracts settings from v.
func decodeSettings(v *viper.Viper) settings {
	s := settings{
		Backend:           v.GetString(cfgKeyBackend),
		DataDir:           v.GetString(cfgKeyDataDir),
		SpreadsheetID:     v.GetString(cfgKeySpreadsheetID),
		ClientID:          v.GetString(cfgKeyClientID),
		ClientSecret:      v.GetString(cfgKeyClientSecret),
		AllowedEmails:     v.GetStringSlice(cfgKeyAllowedEmails),
		ProfileEmails:     map[types.ProfileID]string{},
		Profile:           v.GetString(cfgKeyProfile),
		CalendarID:        v.GetString(cfgKeyCalendarID),
		RefreshInterval:   v.GetDuration(cfgKeyRefreshInterval),
		RequestTimeout:    v.GetDuration(cfgKeyRequestTimeout),
		RequestsPerSecond: v.GetFloat64(cfgKeyRequestsPerSecond),
		LogLevel:          v.GetString(cfgKeyLogLevel),
	}
	for k, email := range v.GetStringMapString(cfgKeyProfileEmails) {
		if p, err := types.ParseProfile(k); err == nil {
			s.ProfileEmails[p] = email
		}
	}
	return s
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. It reports whether a file was written.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, err
	}
	return true, nil
}

// newLogger builds the text logger on w at level.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, userErrorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
