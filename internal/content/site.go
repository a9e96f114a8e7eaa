package content

import (
	"github.com/bengal-ssg/bengal/internal/config"
)

// Site is the root container for a build. It is assembled phase by phase by
// the orchestrator and shared read-only by all renderer workers once
// rendering begins.
type Site struct {
	Config     *config.Config
	Root       *Section
	Pages      []*Page // source pages plus materialized virtual pages
	Taxonomies TaxonomyMap
	Menus      map[string][]*MenuNode
	XRef       *XRefIndex
	Data       map[string]any
	Strategies *StrategyRegistry
}

// NewSite creates a Site with an empty content tree and the built-in
// strategy registry.
func NewSite(cfg *config.Config) *Site {
	return &Site{
		Config:     cfg,
		Root:       &Section{},
		Menus:      map[string][]*MenuNode{},
		Data:       map[string]any{},
		Strategies: NewStrategyRegistry(),
	}
}

// SourcePages returns the non-generated pages.
func (s *Site) SourcePages() []*Page {
	var out []*Page
	for _, p := range s.Pages {
		if !p.Generated {
			out = append(out, p)
		}
	}
	return out
}

// PageByKey finds a page by its cache key.
func (s *Site) PageByKey(key string) *Page {
	for _, p := range s.Pages {
		if p.Key() == key {
			return p
		}
	}
	return nil
}

// SectionOf returns the section a page belongs to, defaulting to the root.
func (s *Site) SectionOf(p *Page) *Section {
	if p.Section != nil {
		return p.Section
	}
	return s.Root
}
