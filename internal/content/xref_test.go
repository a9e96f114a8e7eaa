package content

import "testing"

func xrefFixture(t *testing.T) (*XRefIndex, *Page, *Page) {
	t.Helper()
	install := &Page{
		SourcePath: "docs/install.md",
		Title:      "Install",
		Slug:       "install",
		ID:         "install-guide",
	}
	hello := &Page{
		SourcePath: "blog/hello.md",
		Title:      "Hello",
		Slug:       "hello",
	}
	idx, err := BuildXRefIndex([]*Page{install, hello})
	if err != nil {
		t.Fatalf("BuildXRefIndex() error: %v", err)
	}
	return idx, install, hello
}

func TestXRefByPath(t *testing.T) {
	idx, install, _ := xrefFixture(t)

	p, ok := idx.ByPath("docs/install")
	if !ok || p != install {
		t.Errorf("ByPath(docs/install) = %v, %v", p, ok)
	}
	if _, ok := idx.ByPath("docs/missing"); ok {
		t.Error("missing path should not resolve")
	}
}

func TestXRefResolveRules(t *testing.T) {
	idx, install, _ := xrefFixture(t)

	// [[path]] resolves via by_path, text defaults to the page title.
	p, text, ok := idx.Resolve("docs/install", "")
	if !ok || p != install || text != "Install" {
		t.Errorf("Resolve(path) = %v %q %v", p, text, ok)
	}

	// [[path|Label]] keeps the label.
	_, text, ok = idx.Resolve("docs/install", "Setup Guide")
	if !ok || text != "Setup Guide" {
		t.Errorf("Resolve(path, label) text = %q", text)
	}

	// [[id:foo]] uses the id as text when no label is given.
	p, text, ok = idx.Resolve("id:install-guide", "")
	if !ok || p != install || text != "install-guide" {
		t.Errorf("Resolve(id:) = %v %q %v", p, text, ok)
	}

	// Bare ref falls back to by_id.
	p, _, ok = idx.Resolve("install-guide", "")
	if !ok || p != install {
		t.Errorf("Resolve(bare id) = %v %v", p, ok)
	}

	// Broken ref.
	if _, _, ok := idx.Resolve("nope", ""); ok {
		t.Error("broken ref should not resolve")
	}
}

func TestXRefDuplicateIDFatal(t *testing.T) {
	pages := []*Page{
		{SourcePath: "a.md", ID: "dup"},
		{SourcePath: "b.md", ID: "dup"},
	}
	if _, err := BuildXRefIndex(pages); err == nil {
		t.Error("duplicate id should be fatal")
	}
}

func TestXRefSourceWinsOverGenerated(t *testing.T) {
	source := &Page{SourcePath: "tags/index.md"}
	generated := &Page{SourcePath: "tags/index.html", Generated: true, Virtual: true}
	idx, err := BuildXRefIndex([]*Page{generated, source})
	if err != nil {
		t.Fatalf("BuildXRefIndex() error: %v", err)
	}
	p, ok := idx.ByPath("tags")
	if !ok || p != source {
		t.Errorf("ByPath(tags) = %v, want the source page", p)
	}

	// Two sources colliding is fatal.
	if _, err := BuildXRefIndex([]*Page{source, {SourcePath: "tags/_index.md"}}); err == nil {
		t.Error("two source pages on one path should be fatal")
	}
}

func TestXRefHeadings(t *testing.T) {
	idx, install, _ := xrefFixture(t)

	idx.AddHeadings(install, []Heading{{Level: 2, ID: "setup", Text: "Setup"}})
	refs := idx.ByHeading("setup")
	if len(refs) != 1 || refs[0].Page != install || refs[0].Anchor != "setup" {
		t.Errorf("ByHeading(setup) = %+v", refs)
	}
}

func TestXRefRoundTrip(t *testing.T) {
	// Every inserted page must be recoverable by its path key.
	var pages []*Page
	for i := 0; i < 500; i++ {
		pages = append(pages, &Page{SourcePath: pageName(i)})
	}
	idx, err := BuildXRefIndex(pages)
	if err != nil {
		t.Fatalf("BuildXRefIndex() error: %v", err)
	}
	if idx.Len() != len(pages) {
		t.Fatalf("index has %d entries, want %d", idx.Len(), len(pages))
	}
	for _, p := range pages {
		if got, ok := idx.ByPath(p.PathKey()); !ok || got != p {
			t.Fatalf("page %s not recovered", p.SourcePath)
		}
	}
}

func pageName(i int) string {
	return "synthetic/sec" + string(rune('a'+i%26)) + "/page-" + string(rune('a'+(i/26)%26)) + string(rune('a'+i%26)) + ".md"
}
