package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakePlatform(t *testing.T, goos string) {
	t.Helper()
	saved := platformDir
	t.Cleanup(func() { platformDir = saved })
	platformDir.goos = goos
	platformDir.homeDir = func() (string, error) { return "/home/ola", nil }
	platformDir.userConfigDir = func() (string, error) { return "/Users/ola/Library/Application Support", nil }
}

func TestDefaultDirs(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		xdgConfig  string
		xdgData    string
		wantConfig string
		wantData   string
	}{
		{
			name:       "linux with XDG",
			goos:       "linux",
			xdgConfig:  "/xdg/config",
			xdgData:    "/xdg/data",
			wantConfig: "/xdg/config/cvtracker",
			wantData:   "/xdg/data/cvtracker",
		},
		{
			name:       "linux home fallback",
			goos:       "linux",
			wantConfig: "/home/ola/.config/cvtracker",
			wantData:   "/home/ola/.local/share/cvtracker",
		},
		{
			name:       "darwin shares one directory",
			goos:       "darwin",
			xdgConfig:  "/ignored",
			wantConfig: "/Users/ola/Library/Application Support/cvtracker",
			wantData:   "/Users/ola/Library/Application Support/cvtracker",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, tt.goos)
			t.Setenv("XDG_CONFIG_HOME", tt.xdgConfig)
			t.Setenv("XDG_DATA_HOME", tt.xdgData)

			cfg, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, cfg)

			data, err := DefaultDataDir()
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, data)
		})
	}
}

func TestDefaultConfigDir_HomeError(t *testing.T) {
	fakePlatform(t, "linux")
	t.Setenv("XDG_CONFIG_HOME", "")
	platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }

	_, err := DefaultConfigDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	fakePlatform(t, "linux")
	t.Setenv("XDG_CONFIG_HOME", "")

	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag wins over env", "/explicit", "/env", "/explicit"},
		{"env when flag empty", "", "/env", "/env"},
		{"platform default", "", "", "/home/ola/.config/cvtracker"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.env)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	fakePlatform(t, "linux")
	t.Setenv("XDG_DATA_HOME", "")

	tests := []struct {
		name   string
		flag   string
		config string
		env    string
		want   string
	}{
		{"flag first", "/flag", "/cfg", "/env", "/flag"},
		{"config before env", "", "/cfg", "/env", "/cfg"},
		{"env", "", "", "/env", "/env"},
		{"platform default", "", "", "", "/home/ola/.local/share/cvtracker"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir_RelativeFlagIsMadeAbsolute(t *testing.T) {
	got, err := ResolveDataDir("rel/data", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "data", filepath.Base(got))
}
