// Package config loads uselens configuration from .uselens/config.yml with
// environment variable overrides.
package config

// Config is the complete uselens configuration.
type Config struct {
	Project ProjectConfig `yaml:"project" mapstructure:"project"`
	Oracle  OracleConfig  `yaml:"oracle" mapstructure:"oracle"`
	Scan    ScanConfig    `yaml:"scan" mapstructure:"scan"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
}

// ProjectConfig locates the build manifest and bounds the build trigger.
type ProjectConfig struct {
	ManifestPath        string `yaml:"manifest_path" mapstructure:"manifest_path"`                 // relative to the project root
	BuildTimeoutSeconds int    `yaml:"build_timeout_seconds" mapstructure:"build_timeout_seconds"` // hard cap for a triggered build
}

// OracleConfig names the external oracle binary.
type OracleConfig struct {
	Binary string `yaml:"binary" mapstructure:"binary"`
}

// ScanConfig defines what the walker skips and which modules count as
// design systems.
type ScanConfig struct {
	Exclusions     []string `yaml:"exclusions" mapstructure:"exclusions"`           // entry names skipped verbatim
	IgnorePatterns []string `yaml:"ignore_patterns" mapstructure:"ignore_patterns"` // glob patterns relative to scan roots
	DesignSystems  []string `yaml:"design_systems" mapstructure:"design_systems"`   // module names tagged as design systems
}

// StorageConfig locates persisted state.
type StorageConfig struct {
	StateDir string `yaml:"state_dir" mapstructure:"state_dir"` // relative to the project root
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			ManifestPath:        ".build/debug.yaml",
			BuildTimeoutSeconds: 300,
		},
		Oracle: OracleConfig{
			Binary: "sourcekitten",
		},
		Scan: ScanConfig{
			Exclusions: []string{
				".git",
				".build",
				"Pods",
				"DerivedData",
			},
			IgnorePatterns: []string{},
			DesignSystems:  []string{},
		},
		Storage: StorageConfig{
			StateDir: ".uselens",
		},
	}
}
