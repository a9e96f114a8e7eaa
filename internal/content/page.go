// Package content implements the content model for Bengal: pages, sections,
// cascades, taxonomies, menus, the cross-reference index, and the content-type
// strategies that decide how sections are presented.
package content

import (
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metadata keys reserved by the pipeline. Unknown keys are preserved in the
// page metadata map untouched.
var ReservedKeys = []string{
	"title", "date", "slug", "id", "weight", "draft", "type", "template",
	"layout", "tags", "categories", "menu", "cascade", "aliases", "summary",
	"description", "toc", "preprocess", "permalink", "url", "redirect_from",
	"_generated", "_virtual",
}

// Heading is one heading in a rendered page, harvested during anchor injection.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// TOCItem is a node in the lazy table-of-contents tree.
type TOCItem struct {
	Title    string
	Anchor   string
	Level    int
	Children []*TOCItem
}

// Link is a hyperlink extracted from a rendered page.
type Link struct {
	Href     string
	Internal bool
}

// Page is the central content unit. Source pages are created during discovery;
// virtual pages (taxonomy archives, pagination pages, generated section
// indexes) are created later and carry Generated/Virtual flags.
type Page struct {
	// Source
	SourcePath string // content-relative path, slash-separated; virtual pages use their virtual path
	Source     string // raw markdown body (frontmatter stripped)
	Metadata   map[string]any

	// Typed views of well-known metadata, synced after cascade application.
	Title       string
	Slug        string
	ID          string
	Type        string
	Template    string
	Weight      int
	Date        time.Time
	Draft       bool
	Tags        []string
	Categories  []string
	Aliases     []string
	Summary     string
	Description string

	// Flags
	Generated bool // materialized by the pipeline, not authored
	Virtual   bool // no backing source file

	// Derived during output-path assignment and rendering.
	URL        string
	OutputPath string // output-dir-relative path of the written file
	Content    string // rendered body HTML
	TOCHTML    string
	Headings   []Heading
	Links      []Link

	// Cascade bookkeeping: keys inherited from ancestor sections.
	CascadeKeys []string

	// Listing state for archive/taxonomy/pagination pages.
	Posts     []*Page
	Paginator *Paginator
	PageNum   int

	// Back-references set at phase boundaries.
	Section *Section
	Site    *Site

	tocOnce  sync.Once
	tocItems []*TOCItem
}

// Key returns the content-stable identity of the page, used in cache and
// dependency maps. Virtual pages are keyed by their virtual path.
func (p *Page) Key() string {
	return p.SourcePath
}

// PathKey returns the content-relative path without extension, the key used
// by the cross-reference by_path table. Section index pages resolve to their
// directory path.
func (p *Page) PathKey() string {
	k := strings.TrimSuffix(p.SourcePath, path.Ext(p.SourcePath))
	if base := path.Base(k); base == "_index" || base == "index" {
		k = path.Dir(k)
		if k == "." {
			k = ""
		}
	}
	return k
}

// TOCItems returns the table-of-contents tree, computed on first access from
// the harvested heading list.
func (p *Page) TOCItems() []*TOCItem {
	p.tocOnce.Do(func() {
		p.tocItems = buildTOCTree(p.Headings)
	})
	return p.tocItems
}

// buildTOCTree nests a flat heading list by level.
func buildTOCTree(headings []Heading) []*TOCItem {
	var roots []*TOCItem
	var stack []*TOCItem

	for _, h := range headings {
		item := &TOCItem{Title: h.Text, Anchor: h.ID, Level: h.Level}
		for len(stack) > 0 && stack[len(stack)-1].Level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, item)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, item)
		}
		stack = append(stack, item)
	}
	return roots
}

// SyncMetadata refreshes the typed fields from the metadata map. It runs once
// after discovery and again after cascade application so that inherited keys
// (type, weight, tags) are reflected.
func (p *Page) SyncMetadata() {
	m := p.Metadata
	if m == nil {
		return
	}
	if v, ok := m["title"].(string); ok {
		p.Title = v
	}
	if v, ok := m["slug"].(string); ok {
		p.Slug = v
	}
	if v, ok := m["id"].(string); ok {
		p.ID = v
	}
	if v, ok := m["type"].(string); ok {
		p.Type = v
	}
	if v, ok := m["template"].(string); ok {
		p.Template = v
	} else if v, ok := m["layout"].(string); ok {
		p.Template = v
	}
	if v, ok := m["draft"].(bool); ok {
		p.Draft = v
	}
	if v, ok := m["summary"].(string); ok {
		p.Summary = v
	}
	if v, ok := m["description"].(string); ok {
		p.Description = v
	}
	if v, ok := m["weight"]; ok {
		if n, err := toInt(v); err == nil {
			p.Weight = n
		}
	}
	if v, ok := m["date"]; ok {
		if t, err := parseDate(v); err == nil {
			p.Date = t
		}
	}
	if v, ok := m["tags"]; ok {
		if s, err := toStringSlice(v); err == nil {
			p.Tags = s
		}
	}
	if v, ok := m["categories"]; ok {
		if s, err := toStringSlice(v); err == nil {
			p.Categories = s
		}
	}
	if v, ok := m["aliases"]; ok {
		if s, err := toStringSlice(v); err == nil {
			p.Aliases = s
		}
	}
	if v, ok := m["_generated"].(bool); ok {
		p.Generated = v
	}
	if v, ok := m["_virtual"].(bool); ok {
		p.Virtual = v
	}
}

// AssignOutputPath computes the page's output path and URL per the pretty-URL
// rules. Virtual pages arrive with a URL already set and only need the file
// path derived from it.
func (p *Page) AssignOutputPath(prettyURLs bool) {
	if p.Virtual && p.URL != "" {
		p.OutputPath = urlToFilePath(p.URL)
		return
	}

	rel := strings.TrimSuffix(p.SourcePath, path.Ext(p.SourcePath))
	dir := path.Dir(rel)
	if dir == "." {
		dir = ""
	}
	stem := path.Base(rel)
	if p.Slug != "" && stem != "index" && stem != "_index" {
		stem = p.Slug
	}

	switch {
	case stem == "index" || stem == "_index":
		p.OutputPath = path.Join(dir, "index.html")
		p.URL = "/" + dir + "/"
		if dir == "" {
			p.URL = "/"
		}
	case prettyURLs:
		p.OutputPath = path.Join(dir, stem, "index.html")
		p.URL = "/" + path.Join(dir, stem) + "/"
	default:
		p.OutputPath = path.Join(dir, stem+".html")
		p.URL = "/" + path.Join(dir, stem+".html")
	}
}

// Permalink returns the page URL prefixed with the site base URL.
func (p *Page) Permalink() string {
	if p.Site == nil {
		return p.URL
	}
	base := strings.TrimRight(p.Site.Config.BaseURL, "/")
	return base + p.URL
}

// urlToFilePath maps a trailing-slash URL to its index.html file path.
func urlToFilePath(url string) string {
	rel := strings.Trim(url, "/")
	if rel == "" {
		return "index.html"
	}
	if strings.HasSuffix(url, "/") || path.Ext(rel) == "" {
		return path.Join(rel, "index.html")
	}
	return rel
}

// SortByDate sorts pages newest first, breaking ties by title.
func SortByDate(pages []*Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		if !pages[i].Date.Equal(pages[j].Date) {
			return pages[i].Date.After(pages[j].Date)
		}
		return strings.ToLower(pages[i].Title) < strings.ToLower(pages[j].Title)
	})
}

// SortByWeight sorts pages by weight ascending (default 0), ties by title.
func SortByWeight(pages []*Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].Weight != pages[j].Weight {
			return pages[i].Weight < pages[j].Weight
		}
		return strings.ToLower(pages[i].Title) < strings.ToLower(pages[j].Title)
	})
}
