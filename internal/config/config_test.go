package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.BaseURL != "/" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "/")
	}
	if cfg.OutputDir != "public" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "public")
	}
	if !cfg.PrettyURLs {
		t.Error("PrettyURLs should default to true")
	}
	if cfg.Pagination.PerPage != 10 {
		t.Errorf("Pagination.PerPage = %d, want 10", cfg.Pagination.PerPage)
	}
	if got := cfg.Taxonomies; len(got) != 2 || got[0] != "tags" || got[1] != "categories" {
		t.Errorf("Taxonomies = %v, want [tags categories]", got)
	}
	if cfg.Health.Profile != ProfileWriter {
		t.Errorf("Health.Profile = %q, want %q", cfg.Health.Profile, ProfileWriter)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "bengal.toml", `
title = "My Site"
baseurl = "https://example.com/"
strict_mode = true

[pagination]
per_page = 5

[menu]
main = [
  { name = "Home", url = "/", weight = 1 },
  { name = "Docs", url = "/docs/", weight = 2 },
]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Title != "My Site" {
		t.Errorf("Title = %q, want %q", cfg.Title, "My Site")
	}
	if !cfg.StrictMode {
		t.Error("StrictMode should be true")
	}
	if cfg.Pagination.PerPage != 5 {
		t.Errorf("Pagination.PerPage = %d, want 5", cfg.Pagination.PerPage)
	}
	// Defaults survive for keys the file does not mention.
	if cfg.OutputDir != "public" {
		t.Errorf("OutputDir = %q, want default %q", cfg.OutputDir, "public")
	}
	main := cfg.Menu["main"]
	if len(main) != 2 || main[0].Name != "Home" || main[1].URL != "/docs/" {
		t.Errorf("Menu[main] = %+v, want Home and Docs entries", main)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "bengal.yaml", `
title: YAML Site
pretty_urls: false
taxonomies: [tags]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Title != "YAML Site" {
		t.Errorf("Title = %q, want %q", cfg.Title, "YAML Site")
	}
	if cfg.PrettyURLs {
		t.Error("PrettyURLs should be false")
	}
	if len(cfg.Taxonomies) != 1 || cfg.Taxonomies[0] != "tags" {
		t.Errorf("Taxonomies = %v, want [tags]", cfg.Taxonomies)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "bengal.json", `{"title": "JSON Site", "output_dir": "dist"}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Title != "JSON Site" {
		t.Errorf("Title = %q, want %q", cfg.Title, "JSON Site")
	}
	if cfg.OutputDir != "dist" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "dist")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"empty content dir", func(c *Config) { c.ContentDir = "" }},
		{"zero per_page", func(c *Config) { c.Pagination.PerPage = 0 }},
		{"unknown profile", func(c *Config) { c.Health.Profile = "sre" }},
		{"unknown preprocess mode", func(c *Config) { c.Preprocessing.Mode = "always" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should have returned an error")
			}
		})
	}
}

func TestHashChangesWithConfig(t *testing.T) {
	a := Default()
	b := Default()
	if a.Hash() != b.Hash() {
		t.Error("identical configs should hash identically")
	}
	b.Title = "changed"
	if a.Hash() == b.Hash() {
		t.Error("differing configs should hash differently")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BENGAL_CACHE_DIR", "/tmp/bengal-test-cache")
	t.Setenv("BENGAL_PROFILE", ProfileDev)

	path := writeConfig(t, "bengal.toml", `title = "Env"`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Cache.Dir != "/tmp/bengal-test-cache" {
		t.Errorf("Cache.Dir = %q, want env override", cfg.Cache.Dir)
	}
	if cfg.Health.Profile != ProfileDev {
		t.Errorf("Health.Profile = %q, want %q", cfg.Health.Profile, ProfileDev)
	}
}
