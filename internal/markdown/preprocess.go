package markdown

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	texttemplate "text/template"

	"github.com/bengal-ssg/bengal/internal/config"
	"github.com/bengal-ssg/bengal/internal/content"
)

// ShouldPreprocess decides whether inline {{ }} substitution runs for a page,
// combining the site preprocess mode, the page's own preprocess flag, and the
// configured skip patterns. Sources without "{{" are always skipped.
func ShouldPreprocess(p *content.Page, cfg *config.Config) bool {
	if !strings.Contains(p.Source, "{{") {
		return false
	}
	if v, ok := p.Metadata["preprocess"].(bool); ok && !v {
		return false
	}
	switch cfg.Preprocessing.Mode {
	case config.PreprocessNone:
		return false
	case config.PreprocessAll:
		return true
	}
	for _, pattern := range cfg.Preprocessing.SkipPatterns {
		if ok, _ := path.Match(pattern, p.SourcePath); ok {
			return false
		}
	}
	return true
}

// Preprocess substitutes {{ expr }} expressions in a markdown source against
// the page, site, and config bindings before the markdown parse. Failures are
// returned for the caller to classify (warning by default, fatal in strict
// mode).
func Preprocess(source string, p *content.Page, site *content.Site, cfg *config.Config) (string, error) {
	data := map[string]any{
		"page":   p,
		"site":   site,
		"config": cfg.Flatten(),
	}

	tmpl, err := texttemplate.New("preprocess").Option("missingkey=zero").Parse(source)
	if err != nil {
		return source, fmt.Errorf("preprocess parse: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return source, fmt.Errorf("preprocess execute: %w", err)
	}
	return buf.String(), nil
}
