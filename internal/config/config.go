// Package config handles workspace configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/pubdash/internal/reference"
	"github.com/matsen/pubdash/internal/window"
)

// Config represents workspace configuration stored in .pubdash/config.json.
type Config struct {
	Institution     string `json:"institution,omitempty"` // Shown in "Currently at <Institution>"
	PublicationsTab string `json:"publications_sheet"`    // Sheet holding the publication corpus
	PublishersTab   string `json:"publishers_sheet"`      // Sheet holding publisher metadata
	NameOrder       string `json:"name_order"`            // first_last or last_first
	Convention      string `json:"convention"`            // Default calendar convention
	Source          string `json:"source,omitempty"`      // Last loaded workbook, path or gs:// URL
}

const (
	WorkspaceDir  = ".pubdash"
	ConfigFile    = "config.json"
	DirectoryFile = "directory.jsonl"
	CacheDir      = "cache"
	DBFile        = "publications.db"

	DefaultPublicationsTab = "All Data"
	DefaultPublishersTab   = "Publishers"
)

// Default returns the configuration written by "pubdash init".
func Default() *Config {
	return &Config{
		PublicationsTab: DefaultPublicationsTab,
		PublishersTab:   DefaultPublishersTab,
		NameOrder:       string(reference.FirstLast),
		Convention:      string(window.AcademicYear),
	}
}

// WorkspacePath returns the path to the .pubdash directory from a root path.
func WorkspacePath(root string) string {
	return filepath.Join(root, WorkspaceDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, WorkspaceDir, ConfigFile)
}

// DirectoryPath returns the path to the directory snapshot from a root path.
func DirectoryPath(root string) string {
	return filepath.Join(root, WorkspaceDir, DirectoryFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, WorkspaceDir, CacheDir)
}

// DBPath returns the path to publications.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, WorkspaceDir, CacheDir, DBFile)
}

// IsWorkspace checks if the given path contains a pubdash workspace.
func IsWorkspace(root string) bool {
	info, err := os.Stat(WorkspacePath(root))
	return err == nil && info.IsDir()
}

// FindWorkspace walks up from the given path to find a pubdash workspace.
// Returns the workspace root path or an error if not found.
func FindWorkspace(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsWorkspace(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a pubdash workspace (no .pubdash directory found)")
		}
		abs = parent
	}
}

// Load reads configuration from the workspace at the given root.
// Missing fields are filled from Default.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the workspace at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks the enum-valued fields.
func (c *Config) Validate() error {
	if _, err := reference.ParseNameOrder(c.NameOrder); err != nil {
		return err
	}
	if _, err := window.ParseConvention(c.Convention); err != nil {
		return err
	}
	if c.PublicationsTab == "" || c.PublishersTab == "" {
		return fmt.Errorf("%w: sheet names must not be empty", reference.ErrInvalidArgument)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
