package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bengal-ssg/bengal/internal/config"
	"github.com/bengal-ssg/bengal/internal/content"
)

// filterSite builds a small site: blog section with an index and two posts,
// one tag archive virtual page.
func filterSite() (*content.Site, *Cache, map[string]string, map[string][]string) {
	cfg := config.Default()
	site := content.NewSite(cfg)

	blog := &content.Section{Name: "blog", Path: "blog", Parent: site.Root}
	site.Root.Children = []*content.Section{blog}

	index := &content.Page{SourcePath: "blog/_index.md", Section: blog}
	hello := &content.Page{SourcePath: "blog/hello.md", Section: blog, Tags: []string{"a"}}
	other := &content.Page{SourcePath: "blog/other.md", Section: blog}
	blog.Index = index
	blog.Pages = []*content.Page{hello, other}

	tagPage := &content.Page{SourcePath: "tags/a/index.html", URL: "/tags/a/", Generated: true, Virtual: true}

	site.Pages = []*content.Page{index, hello, other, tagPage}

	prior := New()
	prior.ConfigHash = "cfg1"
	hashes := map[string]string{
		"content/blog/_index.md": "h-index",
		"content/blog/hello.md":  "h-hello",
		"content/blog/other.md":  "h-other",
		"layouts/page.html":      "h-tpl",
	}
	for k, v := range hashes {
		prior.FileHashes[k] = v
	}
	prior.SetPageDeps("blog/_index.md", []string{"content/blog/_index.md", "content/blog/hello.md", "content/blog/other.md", "layouts/page.html"})
	prior.SetPageDeps("blog/hello.md", []string{"content/blog/hello.md", "layouts/page.html"})
	prior.SetPageDeps("blog/other.md", []string{"content/blog/other.md", "layouts/page.html"})
	prior.SetPageDeps("tags/a/index.html", []string{"content/blog/hello.md"})
	prior.TaxonomySources["tags/a"] = []string{"blog/hello.md"}

	taxSources := map[string][]string{"tags/a": {"blog/hello.md"}}
	return site, prior, hashes, taxSources
}

func pageFileFor(p *content.Page) string {
	if p.Virtual {
		return ""
	}
	return "content/" + p.SourcePath
}

func keys(pages []*content.Page) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.Key())
	}
	return out
}

func TestWorkFilterNoChanges(t *testing.T) {
	site, prior, hashes, tax := filterSite()
	f := NewWorkFilter(prior, hashes, "cfg1")

	assert.True(t, f.NoChanges())
	assert.Empty(t, f.PagesToRender(site, pageFileFor, tax))
}

func TestWorkFilterContentEdit(t *testing.T) {
	site, prior, hashes, tax := filterSite()
	hashes["content/blog/hello.md"] = "h-hello-2"

	f := NewWorkFilter(prior, hashes, "cfg1")
	assert.False(t, f.NoChanges())

	got := keys(f.PagesToRender(site, pageFileFor, tax))
	// hello directly; the blog index lists it (dep edge); the tag archive
	// depends on it. other.md must NOT re-render.
	assert.ElementsMatch(t, []string{"blog/hello.md", "blog/_index.md", "tags/a/index.html"}, got)
}

func TestWorkFilterTemplateFanout(t *testing.T) {
	site, prior, hashes, tax := filterSite()
	hashes["layouts/page.html"] = "h-tpl-2"

	f := NewWorkFilter(prior, hashes, "cfg1")
	got := keys(f.PagesToRender(site, pageFileFor, tax))
	assert.Contains(t, got, "blog/hello.md")
	assert.Contains(t, got, "blog/other.md")
	assert.Contains(t, got, "blog/_index.md")
}

func TestWorkFilterCascadeFanout(t *testing.T) {
	site, prior, hashes, tax := filterSite()
	hashes["content/blog/_index.md"] = "h-index-2"

	f := NewWorkFilter(prior, hashes, "cfg1")
	got := keys(f.PagesToRender(site, pageFileFor, tax))
	// Changing the section index rebuilds the whole subtree.
	assert.Contains(t, got, "blog/hello.md")
	assert.Contains(t, got, "blog/other.md")
	assert.Contains(t, got, "blog/_index.md")
}

func TestWorkFilterTaxonomyMembershipChange(t *testing.T) {
	site, prior, hashes, _ := filterSite()
	// other.md now carries the tag: term membership changed even though the
	// archive's recorded deps did not mention other.md.
	tax := map[string][]string{"tags/a": {"blog/hello.md", "blog/other.md"}}

	f := NewWorkFilter(prior, hashes, "cfg1")
	got := keys(f.PagesToRender(site, pageFileFor, tax))
	assert.Contains(t, got, "tags/a/index.html")
}

func TestWorkFilterConfigChangeRebuildsEverything(t *testing.T) {
	site, prior, hashes, tax := filterSite()

	f := NewWorkFilter(prior, hashes, "cfg2")
	got := f.PagesToRender(site, pageFileFor, tax)
	assert.Len(t, got, len(site.Pages))
	assert.False(t, f.NoChanges())
}

func TestWorkFilterNewAndDeletedFiles(t *testing.T) {
	_, prior, hashes, _ := filterSite()
	hashes["content/blog/new.md"] = "h-new"
	delete(hashes, "content/blog/other.md")

	f := NewWorkFilter(prior, hashes, "cfg1")
	assert.True(t, f.Changed("content/blog/new.md"))
	assert.True(t, f.Changed("content/blog/other.md"))
}

func TestWorkFilterAssets(t *testing.T) {
	prior := New()
	prior.ConfigHash = "cfg1"
	prior.FileHashes["assets/style.css"] = "h1"
	prior.FileHashes["assets/base.css"] = "h2"
	prior.FileHashes["assets/logo.png"] = "h3"
	prior.SetPageDeps("asset:assets/style.css", []string{"assets/base.css"})
	prior.SetPageDeps("asset:assets/base.css", nil)
	prior.SetPageDeps("asset:assets/logo.png", nil)

	hashes := map[string]string{
		"assets/style.css": "h1",
		"assets/base.css":  "h2-new",
		"assets/logo.png":  "h3",
	}
	f := NewWorkFilter(prior, hashes, "cfg1")
	got := f.AssetsToProcess([]string{"assets/style.css", "assets/base.css", "assets/logo.png"})
	// The entry rebuilds because its import changed; the untouched logo does not.
	assert.ElementsMatch(t, []string{"assets/style.css", "assets/base.css"}, got)
}
