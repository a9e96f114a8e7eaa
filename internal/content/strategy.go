package content

import (
	"strings"
)

// Strategy decides how a section's pages are presented: which templates are
// used, how pages sort, whether listings paginate, and which pages a listing
// displays.
type Strategy interface {
	Name() string
	ListTemplate() string
	SingleTemplate() string
	AllowsPagination() bool
	SortPages(pages []*Page)
	FilterDisplayPages(pages []*Page, index *Page) []*Page
	Detect(section *Section) bool
}

// StrategyRegistry holds the named strategies and performs selection.
type StrategyRegistry struct {
	byName   map[string]Strategy
	detected []Strategy // detection order
	fallback Strategy
}

// NewStrategyRegistry returns a registry with the built-in strategies.
func NewStrategyRegistry() *StrategyRegistry {
	r := &StrategyRegistry{byName: map[string]Strategy{}}

	blog := &listStrategy{name: "blog", sections: []string{"blog", "posts", "news"}, paginate: true, byDate: true}
	doc := &listStrategy{name: "doc", sections: []string{"docs", "doc", "documentation"}}
	tutorial := &listStrategy{name: "tutorial", sections: []string{"tutorials", "guides"}}
	api := &listStrategy{name: "api", sections: []string{"api"}, discoveryOrder: true}
	cli := &listStrategy{name: "cli", sections: []string{"cli"}, discoveryOrder: true}
	page := &listStrategy{name: "page"}

	for _, s := range []Strategy{blog, doc, tutorial, api, cli, page} {
		r.byName[s.Name()] = s
	}
	// Aliases used by frontmatter type: values.
	r.byName["archive"] = blog
	r.byName["api-reference"] = api
	r.byName["cli-reference"] = cli
	r.byName["python-module"] = api
	r.byName["cli-command"] = cli

	r.detected = []Strategy{blog, doc, api, cli, tutorial}
	r.fallback = page
	return r
}

// Register adds or replaces a named strategy.
func (r *StrategyRegistry) Register(s Strategy) {
	r.byName[s.Name()] = s
}

// ByName returns the strategy registered under name, or nil.
func (r *StrategyRegistry) ByName(name string) Strategy {
	return r.byName[name]
}

// Default returns the fallback page strategy.
func (r *StrategyRegistry) Default() Strategy { return r.fallback }

// ForSection selects a strategy for a section using the priority chain:
// explicit type on the section index, section-name heuristic, the ≥60%
// dated-pages heuristic, then the default page strategy.
func (r *StrategyRegistry) ForSection(section *Section) Strategy {
	if section == nil {
		return r.fallback
	}
	if section.Index != nil && section.Index.Type != "" {
		if s := r.byName[section.Index.Type]; s != nil {
			return s
		}
	}
	for _, s := range r.detected {
		if s.Detect(section) {
			return s
		}
	}
	if mostlyDated(section.Pages) {
		return r.byName["blog"]
	}
	return r.fallback
}

// ForPage selects a strategy for a page: explicit type first, then the
// owning section.
func (r *StrategyRegistry) ForPage(p *Page) Strategy {
	if p.Type != "" {
		if s := r.byName[p.Type]; s != nil {
			return s
		}
	}
	return r.ForSection(p.Section)
}

// SelectTemplate implements the template selection priority for a page:
// explicit template: frontmatter verbatim, explicit type: via the registry,
// then the section strategy. isListing selects list vs. single templates.
func (r *StrategyRegistry) SelectTemplate(p *Page, isListing bool) string {
	if p.Template != "" {
		return p.Template
	}
	if p.Type != "" {
		if s := r.byName[p.Type]; s != nil {
			if isListing {
				return s.ListTemplate()
			}
			return s.SingleTemplate()
		}
		// Unregistered type: map straight to type/list.html or type/single.html.
		if isListing {
			return p.Type + "/list.html"
		}
		return p.Type + "/single.html"
	}
	s := r.ForSection(p.Section)
	if isListing {
		return s.ListTemplate()
	}
	return s.SingleTemplate()
}

// mostlyDated reports whether at least 60% of a section's pages carry a date.
func mostlyDated(pages []*Page) bool {
	if len(pages) == 0 {
		return false
	}
	dated := 0
	for _, p := range pages {
		if !p.Date.IsZero() {
			dated++
		}
	}
	return dated*100 >= len(pages)*60
}

// listStrategy is the shared implementation behind the built-in strategies.
type listStrategy struct {
	name           string
	sections       []string // section-name heuristic
	paginate       bool
	byDate         bool // sort by date desc; default is weight asc
	discoveryOrder bool // keep discovery order (api/cli references)
}

func (s *listStrategy) Name() string { return s.name }

func (s *listStrategy) ListTemplate() string {
	if s.name == "page" {
		return "index.html"
	}
	return s.name + "/list.html"
}

func (s *listStrategy) SingleTemplate() string {
	if s.name == "page" {
		return "page.html"
	}
	return s.name + "/single.html"
}

func (s *listStrategy) AllowsPagination() bool { return s.paginate }

func (s *listStrategy) SortPages(pages []*Page) {
	switch {
	case s.discoveryOrder:
		// Keep discovery order.
	case s.byDate:
		SortByDate(pages)
	default:
		SortByWeight(pages)
	}
}

func (s *listStrategy) FilterDisplayPages(pages []*Page, index *Page) []*Page {
	out := make([]*Page, 0, len(pages))
	for _, p := range pages {
		if p == index || p.Draft || p.Generated {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *listStrategy) Detect(section *Section) bool {
	if section == nil {
		return false
	}
	name := strings.ToLower(section.Name)
	for _, candidate := range s.sections {
		if name == candidate {
			return true
		}
	}
	return false
}
