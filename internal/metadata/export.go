package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// exportFile is the persisted form of a scan's aggregated metadata, written
// for downstream consumption (sharing, diffing across runs).
type exportFile struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Components  []*Record `json:"components"`
}

// Export writes all records, in first-seen order, to path atomically.
func (a *Aggregator) Export(path string) error {
	out := exportFile{
		GeneratedAt: time.Now().UTC(),
		Components:  a.Records(),
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metadata directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
