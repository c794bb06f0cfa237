package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/executor"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755
)

var (
	// ConfigDir is the global configuration directory (~/.apiquest)
	ConfigDir string

	// DatabasePath is the SQLite database holding groups and requests
	DatabasePath string

	// SettingsFile is the YAML settings file
	SettingsFile string

	// KeybindsFile holds user keybinding overrides (JSONC)
	KeybindsFile string

	// LogFile is where the logger writes while the TUI owns the terminal
	LogFile string
)

// Initialize sets up the configuration directory under the user's home
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "failed to get home directory")
	}
	return InitializeAt(filepath.Join(homeDir, ".apiquest"))
}

// InitializeAt points every path at dir and creates it
func InitializeAt(dir string) error {
	ConfigDir = dir
	DatabasePath = filepath.Join(ConfigDir, "apiquest.db")
	SettingsFile = filepath.Join(ConfigDir, "config.yaml")
	KeybindsFile = filepath.Join(ConfigDir, "keybinds.jsonc")
	LogFile = filepath.Join(ConfigDir, "logs", "apiquest.log")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "failed to create directory %s", ConfigDir)
	}
	return nil
}

// Settings is the content of config.yaml
type Settings struct {
	Database        string `yaml:"database"`
	Timeout         string `yaml:"timeout"`
	Insecure        bool   `yaml:"insecure"`
	CAFile          string `yaml:"ca_file,omitempty"`
	FollowRedirects bool   `yaml:"follow_redirects"`
	Debug           bool   `yaml:"debug"`
	PasswordVisible bool   `yaml:"password_visible"`
	HistoryLimit    int    `yaml:"history_limit"`
}

// DefaultSettings returns the settings written on first run
func DefaultSettings() Settings {
	return Settings{
		Database:        DatabasePath,
		Timeout:         executor.DefaultTimeout.String(),
		FollowRedirects: true,
		HistoryLimit:    50,
	}
}

// LoadSettings reads path, writing the defaults there when it does not exist
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		settings := DefaultSettings()
		if err := SaveSettings(path, settings); err != nil {
			return Settings{}, err
		}
		return settings, nil
	}
	if err != nil {
		return Settings{}, errdef.Wrap(errdef.CodeConfig, err, "failed to read settings")
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, errdef.Wrap(errdef.CodeConfig, err, "failed to parse %s", path)
	}
	if _, err := settings.RequestTimeout(); err != nil {
		return Settings{}, err
	}

	settings.Database, err = ExpandPath(settings.Database)
	if err != nil {
		return Settings{}, err
	}
	if settings.Database == "" {
		settings.Database = DatabasePath
	}
	return settings, nil
}

// SaveSettings writes settings as YAML
func SaveSettings(path string, settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "failed to encode settings")
	}
	if err := os.MkdirAll(filepath.Dir(path), DirPermissions); err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "failed to create settings directory")
	}
	if err := os.WriteFile(path, data, FilePermissions); err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "failed to write settings")
	}
	return nil
}

// RequestTimeout parses the timeout setting, falling back to the default
func (s Settings) RequestTimeout() (time.Duration, error) {
	if strings.TrimSpace(s.Timeout) == "" {
		return executor.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeConfig, err, "invalid timeout %q", s.Timeout)
	}
	if d <= 0 {
		return 0, errdef.New(errdef.CodeConfig, "timeout must be positive, got %s", s.Timeout)
	}
	return d, nil
}

// ExecutorOptions maps the settings onto HTTP client options
func (s Settings) ExecutorOptions() executor.Options {
	timeout, err := s.RequestTimeout()
	if err != nil {
		timeout = executor.DefaultTimeout
	}
	return executor.Options{
		Timeout:            timeout,
		InsecureSkipVerify: s.Insecure,
		CAFile:             s.CAFile,
		FollowRedirects:    s.FollowRedirects,
	}
}

// ExpandPath expands a leading "~/" to the home directory
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, path[2:]), nil
}
