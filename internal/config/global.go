package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/pubdash/config.yml.
type GlobalConfig struct {
	WorkspacePath   string `yaml:"workspace_path,omitempty"`   // Default workspace when not inside one
	DatabaseURL     string `yaml:"database_url,omitempty"`     // Postgres warehouse for "pubdash push"
	WarehouseSchema string `yaml:"warehouse_schema,omitempty"` // Defaults to "pubdash"
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "pubdash"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// EnvDatabaseURL overrides database_url; it may also come from a .env file.
	EnvDatabaseURL = "PUBDASH_DATABASE_URL"

	DefaultWarehouseSchema = "pubdash"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/pubdash/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.WorkspacePath != "" {
		cfg.WorkspacePath = ExpandPath(cfg.WorkspacePath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// ErrDatabaseNotConfigured is returned when no warehouse URL is set.
var ErrDatabaseNotConfigured = errors.New("database_url not configured")

// DatabaseURL returns the warehouse connection string. The environment
// variable wins over the global config file.
func DatabaseURL() (string, error) {
	if url := os.Getenv(EnvDatabaseURL); url != "" {
		return url, nil
	}
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return "", err
	}
	if cfg.DatabaseURL == "" {
		return "", fmt.Errorf("%w: set %s or database_url in %s", ErrDatabaseNotConfigured, EnvDatabaseURL, GlobalConfigPath())
	}
	return cfg.DatabaseURL, nil
}

// WarehouseSchema returns the configured warehouse schema or the default.
func WarehouseSchema() string {
	cfg, err := LoadGlobalConfig()
	if err != nil || cfg.WarehouseSchema == "" {
		return DefaultWarehouseSchema
	}
	return cfg.WarehouseSchema
}

// DefaultWorkspace returns the workspace_path from global config, or "".
func DefaultWorkspace() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return cfg.WorkspacePath
}

// HelpfulConfigMessage returns a hint for when no workspace can be found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No pubdash workspace found.

Run "pubdash init" in a directory, or create %s to set a default:
  mkdir -p %s
  echo 'workspace_path: /path/to/workspace' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
