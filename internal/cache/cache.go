// Package cache implements the persistent build cache behind incremental
// builds: SHA256 file hashes, per-page dependency edges, taxonomy sources,
// and the work-filter algorithm that turns a change set into the pages and
// assets needing reprocessing.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// SchemaVersion tags the cache layout. A mismatch discards the cache and
// forces a full rebuild.
const SchemaVersion = "v1"

// FileName is the cache file name under the cache directory.
const FileName = "build.cache.v1"

// Cache is the persisted build state.
type Cache struct {
	Version         string              `json:"cache_version"`
	ConfigHash      string              `json:"config_hash"`
	FileHashes      map[string]string   `json:"file_hashes"`
	PageDeps        map[string][]string `json:"page_deps"`
	TaxonomySources map[string][]string `json:"taxonomy_sources"`
}

// New returns an empty cache at the current schema version.
func New() *Cache {
	return &Cache{
		Version:         SchemaVersion,
		FileHashes:      map[string]string{},
		PageDeps:        map[string][]string{},
		TaxonomySources: map[string][]string{},
	}
}

// Load reads a cache file. A missing file returns an empty cache and no
// error. Any other failure — unreadable file, corrupt JSON, schema mismatch —
// returns an empty cache and an error describing why the prior state was
// discarded; the caller treats it as a full-rebuild warning, never a fatal.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return New(), fmt.Errorf("reading cache: %w", err)
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return New(), fmt.Errorf("corrupt cache discarded: %w", err)
	}
	if c.Version != SchemaVersion {
		return New(), fmt.Errorf("cache schema %q != %q, discarded", c.Version, SchemaVersion)
	}
	if c.FileHashes == nil {
		c.FileHashes = map[string]string{}
	}
	if c.PageDeps == nil {
		c.PageDeps = map[string][]string{}
	}
	if c.TaxonomySources == nil {
		c.TaxonomySources = map[string][]string{}
	}
	return &c, nil
}

// Save writes the cache atomically: temp file in the same directory, then
// rename.
func (c *Cache) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing cache: %w", err)
	}
	return nil
}

// SetPageDeps records a page's dependency edges, sorted and deduplicated so
// the persisted cache is byte-stable across runs.
func (c *Cache) SetPageDeps(pageKey string, deps []string) {
	seen := map[string]bool{}
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Strings(out)
	c.PageDeps[pageKey] = out
}

// HashFile returns the SHA256 of a file's bytes.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the SHA256 of a byte slice.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
