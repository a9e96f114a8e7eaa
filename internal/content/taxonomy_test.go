package content

import (
	"testing"
	"time"
)

func taggedPage(src, title string, day int, tags ...string) *Page {
	return &Page{
		SourcePath: src,
		Title:      title,
		Date:       time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
		Tags:       tags,
		Metadata:   map[string]any{},
	}
}

func TestCollectTaxonomies(t *testing.T) {
	pages := []*Page{
		taggedPage("a.md", "A", 1, "Go", "testing"),
		taggedPage("b.md", "B", 2, "go"),
		{SourcePath: "tags/go/index.html", Generated: true, Tags: []string{"go"}},
	}

	tm := CollectTaxonomies(pages, []string{"tags", "categories"})

	goTerm := tm["tags"]["go"]
	if goTerm == nil {
		t.Fatal("term go not collected")
	}
	// Display name is the term as first written; "Go" and "go" share a slug.
	if goTerm.Name != "Go" {
		t.Errorf("display name = %q, want Go", goTerm.Name)
	}
	if len(goTerm.Pages) != 2 {
		t.Errorf("go pages = %d, want 2 (generated pages never contribute)", len(goTerm.Pages))
	}
	if len(tm["categories"]) != 0 {
		t.Errorf("categories = %v, want empty", tm["categories"])
	}
}

func TestGenerateTaxonomyPages(t *testing.T) {
	pages := []*Page{
		taggedPage("blog/a.md", "A", 1, "go"),
		taggedPage("blog/b.md", "B", 3, "go"),
		taggedPage("blog/c.md", "C", 2, "go"),
	}
	tm := CollectTaxonomies(pages, []string{"tags"})

	generated := GenerateTaxonomyPages(tm, 2, NewStrategyRegistry())
	if len(generated) != 2 {
		t.Fatalf("got %d generated pages, want 2 (3 posts, per_page 2)", len(generated))
	}

	first := generated[0]
	if first.URL != "/tags/go/" {
		t.Errorf("page 1 URL = %q, want /tags/go/", first.URL)
	}
	if !first.Generated || !first.Virtual {
		t.Error("taxonomy pages must be flagged generated and virtual")
	}
	if first.Title != "Posts tagged 'go'" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Template != "tags.html" {
		t.Errorf("template = %q, want tags.html", first.Template)
	}
	// Without a section, ordering falls back to the blog strategy: date desc.
	if len(first.Posts) != 2 || first.Posts[0].Title != "B" || first.Posts[1].Title != "C" {
		t.Errorf("page 1 posts = %v, want [B C]", titles(first.Posts))
	}

	second := generated[1]
	if second.URL != "/tags/go/page/2/" {
		t.Errorf("page 2 URL = %q, want /tags/go/page/2/", second.URL)
	}
	if second.PageNum != 2 || second.Paginator.Total != 2 {
		t.Errorf("page 2 paginator = %+v", second.Paginator)
	}
	if len(second.Posts) != 1 || second.Posts[0].Title != "A" {
		t.Errorf("page 2 posts = %v, want [A]", titles(second.Posts))
	}
}

func TestTaxonomySources(t *testing.T) {
	pages := []*Page{
		taggedPage("a.md", "A", 1, "go"),
		taggedPage("b.md", "B", 2, "go"),
	}
	tm := CollectTaxonomies(pages, []string{"tags"})
	sources := tm.TaxonomySources()

	keys := sources["tags/go"]
	if len(keys) != 2 || keys[0] != "a.md" || keys[1] != "b.md" {
		t.Errorf("sources = %v, want sorted [a.md b.md]", keys)
	}
}

func titles(pages []*Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Title
	}
	return out
}
