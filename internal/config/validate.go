package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks a configuration for invalid values. All problems are
// reported at once.
func Validate(cfg *Config) error {
	var problems []string

	if strings.TrimSpace(cfg.Project.ManifestPath) == "" {
		problems = append(problems, "project.manifest_path must not be empty")
	}
	if cfg.Project.BuildTimeoutSeconds <= 0 {
		problems = append(problems, fmt.Sprintf("project.build_timeout_seconds must be positive, got %d", cfg.Project.BuildTimeoutSeconds))
	}
	if strings.TrimSpace(cfg.Oracle.Binary) == "" {
		problems = append(problems, "oracle.binary must not be empty")
	}
	if strings.TrimSpace(cfg.Storage.StateDir) == "" {
		problems = append(problems, "storage.state_dir must not be empty")
	}
	for _, ds := range cfg.Scan.DesignSystems {
		if strings.TrimSpace(ds) == "" {
			problems = append(problems, "scan.design_systems must not contain empty names")
			break
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
