// Package catalog holds the per-module collections of importable symbols
// used as ground truth for component matching.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Entry approximates one importable symbol as reported by the completion
// oracle. Entries are append-only; duplicates are allowed.
type Entry struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	ModuleName string `json:"moduleName"`
	DocBrief   string `json:"docBrief,omitempty"`
}

// BaseName returns the entry's name up to the first parameter-label clause.
func (e Entry) BaseName() string {
	return BaseName(e.Name)
}

// BaseName strips a parameter-label suffix: "foo(bar:)" -> "foo".
func BaseName(name string) string {
	if i := strings.IndexByte(name, '('); i >= 0 {
		return name[:i]
	}
	return name
}

// Catalog maps module name to importable symbols in oracle response order.
// Module iteration order is insertion order, which the matcher's
// first-match-wins rule depends on.
type Catalog struct {
	mu      sync.Mutex
	modules []string
	entries map[string][]Entry
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string][]Entry)}
}

// Append adds entries to a module's bucket, creating the bucket on first use.
func (c *Catalog) Append(module string, entries ...Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[module]; !ok {
		c.modules = append(c.modules, module)
		c.entries[module] = []Entry{}
	}
	c.entries[module] = append(c.entries[module], entries...)
}

// Modules returns module names in insertion order.
func (c *Catalog) Modules() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.modules))
	copy(out, c.modules)
	return out
}

// Entries returns the bucket for a module in oracle response order.
func (c *Catalog) Entries(module string) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket := c.entries[module]
	out := make([]Entry, len(bucket))
	copy(out, bucket)
	return out
}

// Len returns the total number of entries across all modules.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, bucket := range c.entries {
		n += len(bucket)
	}
	return n
}

// moduleBucket is the persisted form; a list preserves module order, which a
// JSON object would not survive round-tripping.
type moduleBucket struct {
	Module  string  `json:"module"`
	Entries []Entry `json:"entries"`
}

// Save writes the catalog to path atomically (temp file + rename).
func (c *Catalog) Save(path string) error {
	c.mu.Lock()
	buckets := make([]moduleBucket, 0, len(c.modules))
	for _, module := range c.modules {
		buckets = append(buckets, moduleBucket{Module: module, Entries: c.entries[module]})
	}
	c.mu.Unlock()

	data, err := json.MarshalIndent(buckets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// Load reads a previously saved catalog. A missing file surfaces the
// underlying os.ErrNotExist so callers can fall back to building.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var buckets []moduleBucket
	if err := json.Unmarshal(data, &buckets); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}

	c := New()
	for _, b := range buckets {
		c.Append(b.Module, b.Entries...)
	}
	return c, nil
}
