// Package config defines the pgbox configuration, loaded through viper from
// defaults, an optional config file, and PGBOX_-prefixed environment
// variables. The bundled artifact coordinates that were compile-time
// constants in earlier iterations are plain defaults here, resolved once at
// process start so tests can substitute versions freely.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/viper"
)

// Build-time defaults. Overridable via -ldflags at release time and via
// config/env at run time.
var (
	// BundledServerVersion is the PostgreSQL version this build ships or targets.
	BundledServerVersion = "17.2.0"
	// BundledVectorVersion is the pgvector version installed alongside the server.
	BundledVectorVersion = "0.8.0"
)

// DefaultInstanceName is used when no --name flag is given.
const DefaultInstanceName = "default"

// Config represents the complete pgbox configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Extensions ExtensionsConfig `mapstructure:"extensions"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Paths      PathsConfig      `mapstructure:"paths"`
}

// ServerConfig controls the PostgreSQL server defaults applied to new instances
type ServerConfig struct {
	// Version is the PostgreSQL version to install and run (semantic version)
	Version string `mapstructure:"version"`
	// Port is the default port when none is requested (auto-allocated if taken)
	Port uint16 `mapstructure:"port"`
	// Username is the default superuser name
	Username string `mapstructure:"username"`
	// Password is the default superuser password
	Password string `mapstructure:"password"`
	// Database is the default database name
	Database string `mapstructure:"database"`
	// BinaryRepo is the GitHub repository serving server bundles when no
	// bundle is embedded in the binary
	BinaryRepo string `mapstructure:"binary_repo"`
}

// ExtensionsConfig controls extension artifact resolution
type ExtensionsConfig struct {
	Vector VectorConfig `mapstructure:"vector"`
}

// VectorConfig locates prebuilt pgvector artifacts
type VectorConfig struct {
	// Version of pgvector to install
	Version string `mapstructure:"version"`
	// Repo is the GitHub repository hosting compiled artifacts
	Repo string `mapstructure:"repo"`
	// Tag is the release tag the artifacts are published under
	Tag string `mapstructure:"tag"`
}

// LoggingConfig controls diagnostic output
type LoggingConfig struct {
	// Level is the minimum level written to stderr (debug/info/warn/error)
	Level string `mapstructure:"level"`
}

// PathsConfig controls where pgbox keeps its state
type PathsConfig struct {
	// BaseDir is the root of all pgbox state (default: ~/.pgbox)
	BaseDir string `mapstructure:"base_dir"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Version:    BundledServerVersion,
			Port:       5432,
			Username:   "postgres",
			Password:   "postgres",
			Database:   "postgres",
			BinaryRepo: "theseus-rs/postgresql-binaries",
		},
		Extensions: ExtensionsConfig{
			Vector: VectorConfig{
				Version: BundledVectorVersion,
				Repo:    "pgvector/pgvector",
				Tag:     "v" + BundledVectorVersion,
			},
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Paths: PathsConfig{
			BaseDir: "",
		},
	}
}

// SetDefaults registers all defaults with viper so they apply even when no
// config file is present.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("server.version", defaults.Server.Version)
	viper.SetDefault("server.port", defaults.Server.Port)
	viper.SetDefault("server.username", defaults.Server.Username)
	viper.SetDefault("server.password", defaults.Server.Password)
	viper.SetDefault("server.database", defaults.Server.Database)
	viper.SetDefault("server.binary_repo", defaults.Server.BinaryRepo)

	viper.SetDefault("extensions.vector.version", defaults.Extensions.Vector.Version)
	viper.SetDefault("extensions.vector.repo", defaults.Extensions.Vector.Repo)
	viper.SetDefault("extensions.vector.tag", defaults.Extensions.Vector.Tag)

	viper.SetDefault("logging.level", defaults.Logging.Level)

	viper.SetDefault("paths.base_dir", defaults.Paths.BaseDir)
}

// Load unmarshals the effective viper state into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if _, err := semver.NewVersion(c.Server.Version); err != nil {
		return fmt.Errorf("invalid server version %q: %w", c.Server.Version, err)
	}
	if c.Server.Port == 0 {
		return fmt.Errorf("server port must be non-zero")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	return nil
}

// ServerOptionDefaults returns the opinionated server configuration applied
// to every instance, tuned for vector/AI workloads. User-supplied
// -c key=value options override these.
func ServerOptionDefaults() map[string]string {
	return map[string]string{
		"shared_buffers":                   "256MB",
		"maintenance_work_mem":             "512MB",
		"effective_cache_size":             "1GB",
		"max_parallel_maintenance_workers": "4",
		"work_mem":                         "64MB",
	}
}

// BaseDir returns the root of all pgbox state. An explicit paths.base_dir
// wins; otherwise ~/.pgbox. Fails only when the home directory cannot be
// determined.
func (c *Config) BaseDir() (string, error) {
	if c.Paths.BaseDir != "" {
		return ExpandPath(c.Paths.BaseDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".pgbox"), nil
}

// InstancesDir returns the directory holding per-instance state.
func (c *Config) InstancesDir() (string, error) {
	base, err := c.BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "instances"), nil
}

// InstallationDir returns the shared installation root. Version directories
// live directly beneath it and outlive individual instances.
func (c *Config) InstallationDir() (string, error) {
	base, err := c.BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "installation"), nil
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// ConfigDir returns the configuration directory for pgbox.
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pgbox")
	}
	// Fall back to ~/.config/pgbox
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pgbox"
	}
	return filepath.Join(home, ".config", "pgbox")
}
