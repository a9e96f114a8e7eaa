// Package config handles loading, validating, and hashing site configuration
// for the Bengal static site generator.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Health profiles select which validators run after a build.
const (
	ProfileWriter   = "writer"
	ProfileThemeDev = "theme-dev"
	ProfileDev      = "dev"
)

// Preprocess modes control inline {{ }} substitution in markdown sources.
const (
	PreprocessAuto  = "auto"
	PreprocessAll   = "all"
	PreprocessSmart = "smart"
	PreprocessNone  = "none"
)

// Config is the top-level configuration for a Bengal site.
type Config struct {
	BaseURL    string `yaml:"baseurl"     mapstructure:"baseurl"`
	Title      string `yaml:"title"       mapstructure:"title"`
	OutputDir  string `yaml:"output_dir"  mapstructure:"output_dir"`
	ContentDir string `yaml:"content_dir" mapstructure:"content_dir"`
	AssetsDir  string `yaml:"assets_dir"  mapstructure:"assets_dir"`
	DataDir    string `yaml:"data_dir"    mapstructure:"data_dir"`
	Theme      string `yaml:"theme"       mapstructure:"theme"`
	PrettyURLs bool   `yaml:"pretty_urls" mapstructure:"pretty_urls"`
	StrictMode bool   `yaml:"strict_mode" mapstructure:"strict_mode"`
	MaxWorkers int    `yaml:"max_workers" mapstructure:"max_workers"`

	Pagination    PaginationConfig       `yaml:"pagination"    mapstructure:"pagination"`
	Cache         CacheConfig            `yaml:"cache"         mapstructure:"cache"`
	Preprocessing PreprocessingConfig    `yaml:"preprocessing" mapstructure:"preprocessing"`
	Search        SearchConfig           `yaml:"search"        mapstructure:"search"`
	OutputFormats OutputFormatsConfig    `yaml:"output_formats" mapstructure:"output_formats"`
	Menu          map[string][]MenuEntry `yaml:"menu"          mapstructure:"menu"`
	Taxonomies    []string               `yaml:"taxonomies"    mapstructure:"taxonomies"`
	Health        HealthConfig           `yaml:"health"        mapstructure:"health"`
	Feeds         FeedsConfig            `yaml:"feeds"         mapstructure:"feeds"`
	Highlight     HighlightConfig        `yaml:"highlight"     mapstructure:"highlight"`
	Assets        AssetsConfig           `yaml:"assets"        mapstructure:"assets"`
	Params        map[string]any         `yaml:"params"        mapstructure:"params"`
}

// PaginationConfig controls how listing pages are paginated.
type PaginationConfig struct {
	PerPage int `yaml:"per_page" mapstructure:"per_page"`
}

// CacheConfig controls the incremental build cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir"     mapstructure:"dir"`
}

// PreprocessingConfig controls inline {{ }} substitution.
type PreprocessingConfig struct {
	Mode         string   `yaml:"mode"          mapstructure:"mode"`
	SkipPatterns []string `yaml:"skip_patterns" mapstructure:"skip_patterns"`
}

// SearchConfig controls the site-wide JSON search index.
type SearchConfig struct {
	Enabled       bool `yaml:"enabled"        mapstructure:"enabled"`
	ContentLength int  `yaml:"content_length" mapstructure:"content_length"`
}

// OutputFormatsConfig selects which site-wide post-processors run.
type OutputFormatsConfig struct {
	SiteWide []string `yaml:"site_wide" mapstructure:"site_wide"`
}

// MenuEntry is a single config-declared menu item.
type MenuEntry struct {
	Name   string `yaml:"name"   mapstructure:"name"`
	URL    string `yaml:"url"    mapstructure:"url"`
	Weight int    `yaml:"weight" mapstructure:"weight"`
	Parent string `yaml:"parent" mapstructure:"parent"`
}

// HealthConfig selects the post-build validation profile.
type HealthConfig struct {
	Profile string `yaml:"profile" mapstructure:"profile"`
	Strict  bool   `yaml:"strict"  mapstructure:"strict"`
}

// FeedsConfig controls RSS/Atom feed generation.
type FeedsConfig struct {
	RSS      bool     `yaml:"rss"      mapstructure:"rss"`
	Atom     bool     `yaml:"atom"     mapstructure:"atom"`
	Limit    int      `yaml:"limit"    mapstructure:"limit"`
	Sections []string `yaml:"sections" mapstructure:"sections"`
}

// HighlightConfig controls syntax highlighting for fenced code blocks.
type HighlightConfig struct {
	Style     string `yaml:"style"      mapstructure:"style"`
	DarkStyle string `yaml:"dark_style" mapstructure:"dark_style"`
}

// AssetsConfig controls asset classification and fingerprinting.
type AssetsConfig struct {
	CSSEntry        string   `yaml:"css_entry"        mapstructure:"css_entry"`
	FingerprintExts []string `yaml:"fingerprint_exts" mapstructure:"fingerprint_exts"`
	Timeout         int      `yaml:"timeout_seconds"  mapstructure:"timeout_seconds"`
}

// Default returns a Config populated with the documented default values.
// Defaults form the base layer; user-provided values override individual keys.
func Default() *Config {
	return &Config{
		BaseURL:    "/",
		OutputDir:  "public",
		ContentDir: "content",
		AssetsDir:  "assets",
		DataDir:    "data",
		Theme:      "default",
		PrettyURLs: true,
		MaxWorkers: runtime.NumCPU(),
		Pagination: PaginationConfig{PerPage: 10},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".bengal-cache",
		},
		Preprocessing: PreprocessingConfig{Mode: PreprocessAuto},
		Search: SearchConfig{
			Enabled:       true,
			ContentLength: 5000,
		},
		OutputFormats: OutputFormatsConfig{SiteWide: []string{"index_json"}},
		Taxonomies:    []string{"tags", "categories"},
		Health:        HealthConfig{Profile: ProfileWriter},
		Feeds: FeedsConfig{
			RSS:   true,
			Limit: 20,
		},
		Highlight: HighlightConfig{
			Style:     "github",
			DarkStyle: "github-dark",
		},
		Assets: AssetsConfig{
			CSSEntry:        "style.css",
			FingerprintExts: []string{".css", ".js"},
			Timeout:         30,
		},
		Params: map[string]any{},
	}
}

// Load reads a configuration file (TOML, YAML, or JSON) and returns a Config
// with defaults applied first and file values overlaid on top.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	switch strings.TrimPrefix(filepath.Ext(configPath), ".") {
	case "toml":
		v.SetConfigType("toml")
	case "yaml", "yml":
		v.SetConfigType("yaml")
	case "json":
		v.SetConfigType("json")
	default:
		v.SetConfigType("toml")
	}
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	// Lists decode element-wise into an existing slice, so a shorter list in
	// the file would keep trailing defaults; clear the defaults it replaces.
	if v.IsSet("taxonomies") {
		cfg.Taxonomies = nil
	}
	if v.IsSet("output_formats.site_wide") {
		cfg.OutputFormats.SiteWide = nil
	}
	if v.IsSet("assets.fingerprint_exts") {
		cfg.Assets.FingerprintExts = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays the recognized BENGAL_* environment variables.
func (c *Config) applyEnv() {
	if dir := os.Getenv("BENGAL_CACHE_DIR"); dir != "" {
		c.Cache.Dir = dir
	}
	if profile := os.Getenv("BENGAL_PROFILE"); profile != "" {
		c.Health.Profile = profile
	}
}

// Validate checks the Config for errors that would make a build meaningless.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("config: output_dir must not be empty")
	}
	if c.ContentDir == "" {
		return fmt.Errorf("config: content_dir must not be empty")
	}
	if c.Pagination.PerPage <= 0 {
		return fmt.Errorf("config: pagination.per_page must be positive (got %d)", c.Pagination.PerPage)
	}
	switch c.Health.Profile {
	case ProfileWriter, ProfileThemeDev, ProfileDev:
	default:
		return fmt.Errorf("config: unknown health.profile %q", c.Health.Profile)
	}
	switch c.Preprocessing.Mode {
	case PreprocessAuto, PreprocessAll, PreprocessSmart, PreprocessNone:
	default:
		return fmt.Errorf("config: unknown preprocessing.mode %q", c.Preprocessing.Mode)
	}
	return nil
}

// Hash returns the SHA256 of the effective configuration. A changed hash
// invalidates every page in the incremental work filter.
func (c *Config) Hash() string {
	data, err := json.Marshal(c)
	if err != nil {
		// Config is plain data; marshalling cannot fail in practice.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Flatten returns the configuration as a flat map for template contexts.
func (c *Config) Flatten() map[string]any {
	m := map[string]any{
		"baseurl":     c.BaseURL,
		"title":       c.Title,
		"output_dir":  c.OutputDir,
		"content_dir": c.ContentDir,
		"assets_dir":  c.AssetsDir,
		"theme":       c.Theme,
		"pretty_urls": c.PrettyURLs,
		"taxonomies":  c.Taxonomies,
	}
	for k, v := range c.Params {
		m[k] = v
	}
	return m
}

// WithOverrides applies CLI flag overrides to the config. The modified config
// is returned for chaining.
func (c *Config) WithOverrides(overrides map[string]any) *Config {
	for key, val := range overrides {
		switch key {
		case "baseurl":
			if s, ok := val.(string); ok {
				c.BaseURL = s
			}
		case "output_dir":
			if s, ok := val.(string); ok {
				c.OutputDir = s
			}
		case "strict_mode":
			if b, ok := val.(bool); ok {
				c.StrictMode = b
			}
		case "max_workers":
			if n, ok := val.(int); ok && n > 0 {
				c.MaxWorkers = n
			}
		case "profile":
			if s, ok := val.(string); ok && s != "" {
				c.Health.Profile = s
			}
		}
	}
	return c
}
