package cache

import (
	"sort"
	"strings"

	"github.com/bengal-ssg/bengal/internal/content"
)

// WorkFilter converts the file change set between two builds into the pages
// and assets that need reprocessing.
type WorkFilter struct {
	prior   *Cache
	changes map[string]bool // changed ∪ added ∪ deleted project-relative paths
	full    bool            // config hash changed: everything rebuilds
}

// NewWorkFilter diffs current file hashes against the prior cache. A path is
// in the change set when its hash differs, it is newly present, or it was
// deleted since the last build. A changed config hash forces a full rebuild.
func NewWorkFilter(prior *Cache, currentHashes map[string]string, configHash string) *WorkFilter {
	changes := map[string]bool{}
	for path, hash := range currentHashes {
		if prior.FileHashes[path] != hash {
			changes[path] = true
		}
	}
	for path := range prior.FileHashes {
		if _, ok := currentHashes[path]; !ok {
			changes[path] = true
		}
	}
	return &WorkFilter{
		prior:   prior,
		changes: changes,
		full:    prior.ConfigHash != "" && prior.ConfigHash != configHash,
	}
}

// Changed reports whether a path is in the change set.
func (f *WorkFilter) Changed(path string) bool { return f.changes[path] }

// NoChanges reports whether nothing at all changed.
func (f *WorkFilter) NoChanges() bool { return !f.full && len(f.changes) == 0 }

// ChangedPaths returns the sorted change set, for logging.
func (f *WorkFilter) ChangedPaths() []string {
	out := make([]string, 0, len(f.changes))
	for p := range f.changes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// PagesToRender applies the fanout rules:
//
//  1. directly-changed pages (source file in the change set)
//  2. dependency fanout (templates, partials, data files, referenced pages,
//     assets recorded as edges last build)
//  3. cascade fanout (_index change rebuilds the whole subtree)
//  4. taxonomy fanout (term membership or member changes rebuild archives)
//
// pageFile maps a page to its project-relative source path. The returned set
// is fixed before rendering begins and never widened mid-render.
func (f *WorkFilter) PagesToRender(site *content.Site, pageFile func(*content.Page) string, currentTaxSources map[string][]string) []*content.Page {
	if f.full {
		return site.Pages
	}

	selected := map[string]bool{}

	// Direct and dependency fanout. Virtual pages have no source file but
	// carry dependency edges from the previous render.
	for _, p := range site.Pages {
		if file := pageFile(p); file != "" && f.changes[file] {
			selected[p.Key()] = true
			continue
		}
		for _, dep := range f.prior.PageDeps[p.Key()] {
			if f.changes[dep] {
				selected[p.Key()] = true
				break
			}
		}
		// A page unseen by the previous build has no recorded edges: render it.
		if _, known := f.prior.PageDeps[p.Key()]; !known {
			selected[p.Key()] = true
		}
	}

	// Cascade fanout: a changed section index rebuilds everything below it.
	site.Root.Walk(func(sec *content.Section) {
		if sec.Index == nil || !f.changes[pageFile(sec.Index)] {
			return
		}
		selected[sec.Index.Key()] = true
		for _, p := range sec.AllPages() {
			selected[p.Key()] = true
		}
	})

	// Taxonomy fanout: terms whose membership changed, or with a member being
	// re-rendered, regenerate their archive pages.
	dirtyTerms := map[string]bool{}
	for term, keys := range currentTaxSources {
		if !equalKeySets(keys, f.prior.TaxonomySources[term]) {
			dirtyTerms[term] = true
			continue
		}
		for _, key := range keys {
			if selected[key] {
				dirtyTerms[term] = true
				break
			}
		}
	}
	for term := range f.prior.TaxonomySources {
		if _, ok := currentTaxSources[term]; !ok {
			dirtyTerms[term] = true
		}
	}

	var out []*content.Page
	for _, p := range site.Pages {
		switch {
		case selected[p.Key()]:
			out = append(out, p)
		case p.Virtual && termOf(p.URL) != "" && dirtyTerms[termOf(p.URL)]:
			out = append(out, p)
		}
	}
	return out
}

// AssetsToProcess returns the asset paths needing reprocessing: the asset's
// own file changed, or any recorded dependency (CSS imports) changed. deps
// are the prior build's edges keyed "asset:<path>".
func (f *WorkFilter) AssetsToProcess(assetPaths []string) []string {
	if f.full {
		return assetPaths
	}
	var out []string
	for _, path := range assetPaths {
		if f.changes[path] {
			out = append(out, path)
			continue
		}
		key := "asset:" + path
		deps, known := f.prior.PageDeps[key]
		if !known {
			out = append(out, path)
			continue
		}
		for _, dep := range deps {
			if f.changes[dep] {
				out = append(out, path)
				break
			}
		}
	}
	return out
}

// termOf extracts "kind/slug" from a taxonomy archive URL like
// /tags/go/ or /tags/go/page/2/.
func termOf(url string) string {
	parts := strings.Split(strings.Trim(url, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "/" + parts[1]
}

func equalKeySets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
