package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a configuration loader for the given project root.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (USELENS_*)
// 2. Config file (.uselens/config.yml or .uselens/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".uselens")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("USELENS")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g. USELENS_ORACLE_BINARY)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("project.manifest_path")
	v.BindEnv("project.build_timeout_seconds")
	v.BindEnv("oracle.binary")
	v.BindEnv("storage.state_dir")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - defaults + env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("project.manifest_path", defaults.Project.ManifestPath)
	v.SetDefault("project.build_timeout_seconds", defaults.Project.BuildTimeoutSeconds)

	v.SetDefault("oracle.binary", defaults.Oracle.Binary)

	v.SetDefault("scan.exclusions", defaults.Scan.Exclusions)
	v.SetDefault("scan.ignore_patterns", defaults.Scan.IgnorePatterns)
	v.SetDefault("scan.design_systems", defaults.Scan.DesignSystems)

	v.SetDefault("storage.state_dir", defaults.Storage.StateDir)
}

// LoadFromDir loads configuration for the project rooted at rootDir.
func LoadFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
