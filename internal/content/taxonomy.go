package content

import (
	"fmt"
	"sort"
)

// Term is one taxonomy term with its member pages in display order.
type Term struct {
	Kind  string // "tags", "categories", ...
	Name  string // display name, the term as first written
	Slug  string
	Pages []*Page
}

// TaxonomyMap is kind → term slug → term.
type TaxonomyMap map[string]map[string]*Term

// CollectTaxonomies gathers terms from every non-generated page for the
// configured taxonomy kinds. Display name is the term as first seen; pages
// are appended in discovery order and sorted later by the owning strategy.
func CollectTaxonomies(pages []*Page, kinds []string) TaxonomyMap {
	tm := TaxonomyMap{}
	for _, kind := range kinds {
		tm[kind] = map[string]*Term{}
	}

	for _, p := range pages {
		if p.Generated {
			continue
		}
		for _, kind := range kinds {
			for _, name := range termsFor(p, kind) {
				slug := Slugify(name)
				if slug == "" {
					continue
				}
				term, ok := tm[kind][slug]
				if !ok {
					term = &Term{Kind: kind, Name: name, Slug: slug}
					tm[kind][slug] = term
				}
				term.Pages = append(term.Pages, p)
			}
		}
	}
	return tm
}

// termsFor reads a page's terms for a taxonomy kind. tags and categories have
// typed fields; custom kinds read the metadata map.
func termsFor(p *Page, kind string) []string {
	switch kind {
	case "tags":
		return p.Tags
	case "categories":
		return p.Categories
	default:
		if v, ok := p.Metadata[kind]; ok {
			if s, err := toStringSlice(v); err == nil {
				return s
			}
		}
		return nil
	}
}

// GenerateTaxonomyPages materializes term listing and pagination pages for
// every term with at least one page. A term with N pages yields
// ceil(N/perPage) pages: page 1 at /{kind}/{slug}/, page k>1 at
// /{kind}/{slug}/page/{k}/. Term member ordering uses the strategy of the
// section owning the first contributing page, falling back to blog.
func GenerateTaxonomyPages(tm TaxonomyMap, perPage int, strategies *StrategyRegistry) []*Page {
	var pages []*Page

	kinds := make([]string, 0, len(tm))
	for kind := range tm {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		slugs := make([]string, 0, len(tm[kind]))
		for slug := range tm[kind] {
			slugs = append(slugs, slug)
		}
		sort.Strings(slugs)

		for _, slug := range slugs {
			term := tm[kind][slug]
			if len(term.Pages) == 0 {
				continue
			}

			strategy := strategies.ByName("blog")
			if first := term.Pages[0]; first.Section != nil {
				strategy = strategies.ForSection(first.Section)
			}
			members := make([]*Page, len(term.Pages))
			copy(members, term.Pages)
			strategy.SortPages(members)
			term.Pages = members

			baseURL := fmt.Sprintf("/%s/%s/", kind, slug)
			chunks, paginators := Paginate(members, perPage, baseURL)
			for i, chunk := range chunks {
				pages = append(pages, newTermPage(term, chunk, paginators[i]))
			}
		}
	}
	return pages
}

// newTermPage builds one taxonomy archive page.
func newTermPage(term *Term, posts []*Page, pager *Paginator) *Page {
	url := pager.PageURL(pager.Current)
	p := &Page{
		SourcePath: urlToFilePath(url),
		Title:      fmt.Sprintf("Posts tagged '%s'", term.Name),
		Generated:  true,
		Virtual:    true,
		URL:        url,
		Posts:      posts,
		Paginator:  pager,
		PageNum:    pager.Current,
		Metadata: map[string]any{
			"title":      fmt.Sprintf("Posts tagged '%s'", term.Name),
			"template":   term.Kind + ".html",
			"_generated": true,
			"_virtual":   true,
		},
	}
	p.Template = term.Kind + ".html"
	return p
}

// TaxonomySources records which page keys contribute to each term, keyed
// "kind/slug". The incremental work filter compares this against the prior
// build to decide which term archives need regeneration.
func (tm TaxonomyMap) TaxonomySources() map[string][]string {
	out := map[string][]string{}
	for kind, terms := range tm {
		for slug, term := range terms {
			keys := make([]string, 0, len(term.Pages))
			for _, p := range term.Pages {
				keys = append(keys, p.Key())
			}
			sort.Strings(keys)
			out[kind+"/"+slug] = keys
		}
	}
	return out
}
