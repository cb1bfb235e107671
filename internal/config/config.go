package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AutomowerConfig holds credentials and endpoint for the mower API.
type AutomowerConfig struct {
	// BaseURL is the mower connect API root, including version prefix.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// AppKey is the application key sent as X-Api-Key.
	AppKey string `yaml:"app_key" json:"app_key"`
	// Token is the OAuth access token sent as a bearer.
	Token string `yaml:"token" json:"token"`
}

// GeocodeConfig controls the best-effort reverse geocoding of mower
// positions into display addresses.
type GeocodeConfig struct {
	// Enabled toggles location enrichment entirely.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// BaseURL is a Nominatim-compatible endpoint.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// UserAgent identifies this deployment to the geocoding service.
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	// CacheDir is where resolved addresses are cached on disk.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the calendar API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as the local calendar day
	// anchor (e.g. "Europe/Stockholm"). Empty means the process-local
	// zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule (e.g. "*/5 * * * *") for
	// refreshing the mower snapshot.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Automower AutomowerConfig `yaml:"automower" json:"automower"`
	Geocode   GeocodeConfig   `yaml:"geocode" json:"geocode"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "",
		RefreshCron: "*/5 * * * *",
		LogLevel:    "info",
		Automower: AutomowerConfig{
			BaseURL: "https://api.amc.husqvarna.dev/v1",
		},
		Geocode: GeocodeConfig{
			Enabled:   true,
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "mowercal",
			CacheDir:  "/var/lib/mowercal/geocode-cache",
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/5 * * * *"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Automower.BaseURL == "" {
		c.Automower.BaseURL = "https://api.amc.husqvarna.dev/v1"
	}
	if c.Geocode.BaseURL == "" {
		c.Geocode.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if c.Geocode.UserAgent == "" {
		c.Geocode.UserAgent = "mowercal"
	}
	if c.Geocode.CacheDir == "" {
		c.Geocode.CacheDir = "/var/lib/mowercal/geocode-cache"
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create parent directory if needed,
//     write a default config with 0600 perms, and return the defaults.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// The write is atomic (temp file + rename in the same directory) and the
// final file ends up with 0600 permissions, since the config carries API
// credentials.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".mowercal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up the temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
