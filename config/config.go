// Package config provides loading and parsing of attackkb.yaml configuration
// files. The configuration covers the dataset location, the domains to load,
// and the optional Redis, etcd, and telemetry integrations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/attackkb/registry"
	"github.com/zero-day-ai/attackkb/stix"
)

// Config represents an attackkb.yaml configuration file.
type Config struct {
	// Dataset locates the STIX bundles and selects what to load.
	Dataset DatasetConfig `yaml:"dataset"`

	// LayerStore configures the optional Redis-backed layer store. A nil
	// block disables layer persistence.
	LayerStore *LayerStoreConfig `yaml:"layer_store,omitempty"`

	// Registry configures the optional etcd snapshot advertisement. A nil
	// block runs without discovery.
	Registry *registry.Config `yaml:"registry,omitempty"`

	// Telemetry configures trace export.
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`

	// Logging configures the process logger.
	Logging *LoggingConfig `yaml:"logging,omitempty"`
}

// DatasetConfig selects the dataset release and domains to load.
type DatasetConfig struct {
	// Dir is the data directory holding v<version>/<domain>-attack.json
	// bundles.
	Dir string `yaml:"dir"`

	// Version is the ATT&CK release to load (e.g., "17.1").
	Version string `yaml:"version"`

	// Domains lists the domains to load. Empty means all three.
	Domains []string `yaml:"domains,omitempty"`

	// RefreshInterval is how often to re-check the data directory for a new
	// release. Format: Go duration string. Empty disables refresh.
	RefreshInterval string `yaml:"refresh_interval,omitempty"`
}

// GetRefreshInterval parses the refresh interval, returning zero when
// refresh is disabled or the value is invalid.
func (d *DatasetConfig) GetRefreshInterval() time.Duration {
	if d == nil || d.RefreshInterval == "" {
		return 0
	}
	interval, err := time.ParseDuration(d.RefreshInterval)
	if err != nil {
		return 0
	}
	return interval
}

// LayerStoreConfig configures the Redis connection for saved layers.
type LayerStoreConfig struct {
	// URL is the Redis connection string. Default: "redis://localhost:6379".
	URL string `yaml:"url,omitempty"`

	// TTL is how long saved layers live. Format: Go duration string.
	// Default: 24h.
	TTL string `yaml:"ttl,omitempty"`
}

// GetTTL parses the layer TTL string. Returns the default when unset or
// invalid.
func (l *LayerStoreConfig) GetTTL() time.Duration {
	if l == nil || l.TTL == "" {
		return 24 * time.Hour
	}
	ttl, err := time.ParseDuration(l.TTL)
	if err != nil {
		return 24 * time.Hour
	}
	return ttl
}

// GetURL returns the Redis URL or the default.
func (l *LayerStoreConfig) GetURL() string {
	if l == nil || l.URL == "" {
		return "redis://localhost:6379"
	}
	return l.URL
}

// TelemetryConfig configures trace export.
type TelemetryConfig struct {
	// Enabled turns span export on. Spans are recorded through the otel API
	// either way; this controls whether an exporter is wired.
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is the minimum level: "debug", "info", "warn", or "error".
	// Default: "info".
	Level string `yaml:"level,omitempty"`

	// Format is "text" or "json". Default: "text".
	Format string `yaml:"format,omitempty"`
}

// GetLevel returns the configured level or the default.
func (l *LoggingConfig) GetLevel() string {
	if l == nil || l.Level == "" {
		return "info"
	}
	return l.Level
}

// GetFormat returns the configured format or the default.
func (l *LoggingConfig) GetFormat() string {
	if l == nil || l.Format == "" {
		return "text"
	}
	return l.Format
}

// Validate checks the configuration for problems that would only surface
// later as confusing runtime failures.
func (c *Config) Validate() error {
	if c.Dataset.Dir == "" {
		return fmt.Errorf("dataset.dir is required")
	}
	if c.Dataset.Version == "" {
		return fmt.Errorf("dataset.version is required")
	}
	for _, name := range c.Dataset.Domains {
		if _, ok := stix.ParseDomain(name); !ok {
			return fmt.Errorf("dataset.domains: unknown domain %q", name)
		}
	}
	if c.Dataset.RefreshInterval != "" {
		if _, err := time.ParseDuration(c.Dataset.RefreshInterval); err != nil {
			return fmt.Errorf("dataset.refresh_interval: %w", err)
		}
	}
	if c.LayerStore != nil && c.LayerStore.TTL != "" {
		if _, err := time.ParseDuration(c.LayerStore.TTL); err != nil {
			return fmt.Errorf("layer_store.ttl: %w", err)
		}
	}
	if c.Registry != nil && len(c.Registry.Endpoints) == 0 {
		return fmt.Errorf("registry.endpoints is required when the registry block is present")
	}
	return nil
}

// Load reads and parses an attackkb.yaml file from the given path. If the
// path is a directory, it looks for attackkb.yaml or attackkb.yml in that
// directory. The returned configuration is validated.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		yamlPath := filepath.Join(path, "attackkb.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "attackkb.yml")
			if _, err := os.Stat(ymlPath); err == nil {
				configPath = ymlPath
			} else {
				return nil, fmt.Errorf("no attackkb.yaml or attackkb.yml found in %s", path)
			}
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadFromDir searches for attackkb.yaml starting from the given directory
// and walking up to parent directories until found or root is reached.
func LoadFromDir(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		config, err := Load(absDir)
		if err == nil {
			return config, nil
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			return nil, fmt.Errorf("no attackkb.yaml found in %s or parent directories", dir)
		}
		absDir = parent
	}
}
