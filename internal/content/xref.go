package content

import (
	"fmt"
	"strings"
	"sync"
)

// HeadingRef locates a heading on a page for by_heading lookups.
type HeadingRef struct {
	Page   *Page
	Anchor string
}

// XRefIndex resolves [[ref]] links and template ref() calls in O(1). The
// path, slug, and id tables are immutable after the index build; the heading
// table is populated incrementally during rendering and guarded by a lock.
type XRefIndex struct {
	byPath map[string]*Page
	bySlug map[string][]*Page
	byID   map[string]*Page

	mu        sync.RWMutex
	byHeading map[string][]HeadingRef
}

// BuildXRefIndex makes a single pass over all pages after cascade
// application. Duplicate ids are fatal. A by_path collision between a source
// page and a generated page resolves in favor of the source; two source pages
// colliding is fatal.
func BuildXRefIndex(pages []*Page) (*XRefIndex, error) {
	idx := &XRefIndex{
		byPath:    make(map[string]*Page, len(pages)),
		bySlug:    make(map[string][]*Page),
		byID:      make(map[string]*Page),
		byHeading: make(map[string][]HeadingRef),
	}

	for _, p := range pages {
		key := p.PathKey()
		if existing, ok := idx.byPath[key]; ok {
			switch {
			case existing.Generated && !p.Generated:
				idx.byPath[key] = p
			case !existing.Generated && p.Generated:
				// Source wins; generated page skipped from this table.
			default:
				return nil, fmt.Errorf("duplicate content path %q (%s and %s)", key, existing.SourcePath, p.SourcePath)
			}
		} else {
			idx.byPath[key] = p
		}

		if p.Slug != "" {
			idx.bySlug[p.Slug] = append(idx.bySlug[p.Slug], p)
		}

		if p.ID != "" {
			if existing, ok := idx.byID[p.ID]; ok {
				return nil, fmt.Errorf("duplicate id %q declared by %s and %s", p.ID, existing.SourcePath, p.SourcePath)
			}
			idx.byID[p.ID] = p
		}
	}
	return idx, nil
}

// ByPath looks up a page by content-relative path without extension.
func (x *XRefIndex) ByPath(path string) (*Page, bool) {
	p, ok := x.byPath[strings.Trim(path, "/")]
	return p, ok
}

// ByID looks up a page by its frontmatter id.
func (x *XRefIndex) ByID(id string) (*Page, bool) {
	p, ok := x.byID[id]
	return p, ok
}

// BySlug returns all pages sharing a slug.
func (x *XRefIndex) BySlug(slug string) []*Page {
	return x.bySlug[slug]
}

// AddHeadings records a rendered page's headings for by_heading lookups.
// Safe for concurrent use by renderer workers.
func (x *XRefIndex) AddHeadings(p *Page, headings []Heading) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, h := range headings {
		key := strings.ToLower(h.Text)
		x.byHeading[key] = append(x.byHeading[key], HeadingRef{Page: p, Anchor: h.ID})
	}
}

// ByHeading looks up pages containing a heading with the given text
// (case-insensitive).
func (x *XRefIndex) ByHeading(text string) []HeadingRef {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.byHeading[strings.ToLower(text)]
}

// Resolve resolves a cross-reference per the lookup rules:
//
//	[[path]]          by_path, then by_id
//	[[path|Label]]    same, Label becomes the link text
//	[[#heading]]      current page's headings (handled by the caller)
//	[[id:foo]]        explicit id lookup
//
// It returns the target page and the link text; ok is false for broken refs.
func (x *XRefIndex) Resolve(ref, label string) (page *Page, text string, ok bool) {
	if strings.HasPrefix(ref, "id:") {
		id := strings.TrimPrefix(ref, "id:")
		p, found := x.ByID(id)
		if !found {
			return nil, ref, false
		}
		if label == "" {
			label = id
		}
		return p, label, true
	}

	p, found := x.ByPath(ref)
	if !found {
		p, found = x.ByID(ref)
	}
	if !found {
		return nil, ref, false
	}
	if label == "" {
		label = p.Title
		if label == "" {
			label = ref
		}
	}
	return p, label, true
}

// Len returns the number of entries in the by_path table.
func (x *XRefIndex) Len() int { return len(x.byPath) }
