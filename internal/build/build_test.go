package build

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bengal-ssg/bengal/internal/cache"
	"github.com/bengal-ssg/bengal/internal/config"
)

// defaultLayouts is the minimal theme used by the pipeline tests.
var defaultLayouts = map[string]string{
	"index.html":       `<h1>{{ .Page.Title }}</h1><ul>{{ range .Posts }}<li><a href="{{ .URL }}">{{ .Title }}</a></li>{{ end }}</ul>`,
	"page.html":        `<article><h1>{{ .Page.Title }}</h1>{{ .Content }}</article>`,
	"blog/list.html":   `<h1>{{ .Page.Title }}</h1><ul>{{ range .Posts }}<li class="post"><a href="{{ .URL }}">{{ .Title }}</a></li>{{ end }}</ul>`,
	"blog/single.html": `<article>{{ .Content }}</article>`,
	"tags.html":        `<h1>{{ .Page.Title }}</h1><ul>{{ range .Posts }}<li><a href="{{ .URL }}">{{ .Title }}</a></li>{{ end }}</ul>`,
	"404.html":         `<h1>Not Found</h1>`,
}

// siteFixture lays out a project root with content files and theme layouts.
func siteFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, src := range files {
		path := filepath.Join(root, "content", filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for rel, src := range defaultLayouts {
		path := filepath.Join(root, "themes", "default", "layouts", filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func runBuild(t *testing.T, root string, mutate func(*config.Config), opts Options) (*Stats, error) {
	t.Helper()
	cfg := config.Default()
	cfg.Title = "S"
	if mutate != nil {
		mutate(cfg)
	}
	opts.ProjectRoot = root
	return New(cfg, opts, nil).Build()
}

func readOutput(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "public", filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("reading output %s: %v", rel, err)
	}
	return string(data)
}

var blogFixture = map[string]string{
	"blog/_index.md": "---\ntitle: Blog\ncascade:\n  type: blog\n---\n",
	"blog/hello.md":  "---\ntitle: Hello\ndate: 2025-01-02\ntags: [a]\n---\n# Hi\n",
}

func TestBuildSingleBlogPost(t *testing.T) {
	root := siteFixture(t, blogFixture)

	stats, err := runBuild(t, root, nil, Options{Parallel: true})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(stats.Errors()) != 0 {
		t.Fatalf("render errors: %v", stats.Errors())
	}

	// The blog index lists the post.
	index := readOutput(t, root, "blog/index.html")
	if !strings.Contains(index, `<a href="/blog/hello/">Hello</a>`) {
		t.Errorf("blog index = %s", index)
	}

	// The post page carries the anchored heading.
	post := readOutput(t, root, "blog/hello/index.html")
	if !strings.Contains(post, `<h1 id="hi">Hi<a class="headerlink" href="#hi">`) {
		t.Errorf("post = %s", post)
	}

	// The tag archive lists the post.
	tag := readOutput(t, root, "tags/a/index.html")
	if !strings.Contains(tag, `/blog/hello/`) {
		t.Errorf("tag archive = %s", tag)
	}
	if !strings.Contains(tag, "Posts tagged &#39;a&#39;") && !strings.Contains(tag, "Posts tagged 'a'") {
		t.Errorf("tag archive title missing: %s", tag)
	}

	// Sitemap covers the section index and the post.
	sitemap := readOutput(t, root, "sitemap.xml")
	for _, want := range []string{"/blog/</loc>", "/blog/hello/</loc>"} {
		if !strings.Contains(sitemap, want) {
			t.Errorf("sitemap missing %s: %s", want, sitemap)
		}
	}

	// RSS covers the blog post.
	rss := readOutput(t, root, "rss.xml")
	if !strings.Contains(rss, "Hello") {
		t.Errorf("rss = %s", rss)
	}
}

func TestBuildCrossReference(t *testing.T) {
	root := siteFixture(t, map[string]string{
		"docs/install.md": "---\ntitle: Install\nid: install-guide\n---\ninstalling\n",
		"docs/usage.md":   "---\ntitle: Usage\n---\nSee [[id:install-guide]]\n",
	})

	_, err := runBuild(t, root, nil, Options{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	usage := readOutput(t, root, "docs/usage/index.html")
	if !strings.Contains(usage, `<a href="/docs/install/">install-guide</a>`) {
		t.Errorf("usage page = %s", usage)
	}
}

func TestBuildBrokenRefWarnsNonStrict(t *testing.T) {
	root := siteFixture(t, map[string]string{
		"a.md": "---\ntitle: A\n---\nSee [[missing]]\n",
	})

	stats, err := runBuild(t, root, nil, Options{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	out := readOutput(t, root, "a/index.html")
	if !strings.Contains(out, `class="broken-ref"`) {
		t.Errorf("broken ref should render: %s", out)
	}
	if len(stats.Warnings()) == 0 {
		t.Error("broken ref should warn")
	}
}

func TestBuildEmptySite(t *testing.T) {
	root := siteFixture(t, map[string]string{})

	_, err := runBuild(t, root, nil, Options{})
	if err != nil {
		t.Fatalf("empty site should build: %v", err)
	}
	if got := readOutput(t, root, "404.html"); !strings.Contains(got, "Not Found") {
		t.Errorf("404 page = %s", got)
	}
	sitemap := readOutput(t, root, "sitemap.xml")
	if strings.Contains(sitemap, "<loc>/blog") {
		t.Errorf("empty sitemap should have no content entries: %s", sitemap)
	}
	// The generated home page still exists.
	if got := readOutput(t, root, "index.html"); !strings.Contains(got, "<h1>S</h1>") {
		t.Errorf("home page = %s", got)
	}
}

func TestBuildStrictTemplateError(t *testing.T) {
	root := siteFixture(t, blogFixture)
	badTemplate := filepath.Join(root, "themes", "default", "layouts", "blog", "single.html")
	if err := os.WriteFile(badTemplate, []byte(`{{ .Config.missing_attr }}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runBuild(t, root, nil, Options{Strict: true})
	if err == nil {
		t.Fatal("strict build should abort on template error")
	}
	if !IsStrictFailure(err) {
		t.Errorf("error should be a strict failure (exit 2): %v", err)
	}
	if !strings.Contains(err.Error(), "missing_attr") {
		t.Errorf("error should name the missing key: %v", err)
	}
}

func TestBuildIncrementalNoChanges(t *testing.T) {
	root := siteFixture(t, blogFixture)

	if _, err := runBuild(t, root, nil, Options{Incremental: true}); err != nil {
		t.Fatalf("first build: %v", err)
	}

	stats, err := runBuild(t, root, nil, Options{Incremental: true})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if !stats.Skipped {
		t.Error("unchanged rebuild should be skipped")
	}
	if stats.FilesWritten != 0 {
		t.Errorf("unchanged rebuild wrote %d files, want 0", stats.FilesWritten)
	}
}

func TestBuildIncrementalContentEdit(t *testing.T) {
	files := map[string]string{}
	for k, v := range blogFixture {
		files[k] = v
	}
	files["blog/other.md"] = "---\ntitle: Other\ndate: 2025-01-01\n---\nother\n"
	files["about.md"] = "---\ntitle: About\n---\nabout\n"
	root := siteFixture(t, files)

	if _, err := runBuild(t, root, nil, Options{Incremental: true}); err != nil {
		t.Fatalf("first build: %v", err)
	}

	// Edit only hello.md.
	hello := filepath.Join(root, "content", "blog", "hello.md")
	if err := os.WriteFile(hello, []byte("---\ntitle: Hello\ndate: 2025-01-02\ntags: [a]\n---\n# Hi again\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := runBuild(t, root, nil, Options{Incremental: true})
	if err != nil {
		t.Fatalf("incremental build: %v", err)
	}
	// Re-render set: hello.md, the blog index that lists it, and the tags/a
	// archive. about.md and other.md stay cached.
	if got := stats.PagesRendered.Load(); got != 3 {
		t.Errorf("re-rendered %d pages, want 3", got)
	}
	post := readOutput(t, root, "blog/hello/index.html")
	if !strings.Contains(post, "Hi again") {
		t.Errorf("edited post not re-rendered: %s", post)
	}
}

func TestBuildIncrementalCascadeChange(t *testing.T) {
	root := siteFixture(t, map[string]string{
		"docs/_index.md": "---\ntitle: Docs\ncascade:\n  type: doc\n---\n",
		"docs/a.md":      "---\ntitle: A\n---\na\n",
		"docs/b.md":      "---\ntitle: B\n---\nb\n",
	})

	if _, err := runBuild(t, root, nil, Options{Incremental: true}); err != nil {
		t.Fatalf("first build: %v", err)
	}

	// Change the cascade: every page under docs/ must re-render.
	index := filepath.Join(root, "content", "docs", "_index.md")
	if err := os.WriteFile(index, []byte("---\ntitle: Docs\ncascade:\n  type: tutorial\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := runBuild(t, root, nil, Options{Incremental: true})
	if err != nil {
		t.Fatalf("incremental build: %v", err)
	}
	if got := stats.PagesRendered.Load(); got < 3 {
		t.Errorf("cascade change re-rendered %d pages, want the whole subtree", got)
	}
}

func TestBuildParallelMatchesSequential(t *testing.T) {
	files := map[string]string{
		"blog/_index.md": "---\ntitle: Blog\n---\n",
	}
	for i := 0; i < 20; i++ {
		name := string(rune('a' + i))
		files["blog/post-"+name+".md"] = "---\ntitle: Post " + name + "\ndate: 2025-01-02\ntags: [t]\n---\n# H\n\nbody " + name + "\n"
	}

	rootSeq := siteFixture(t, files)
	rootPar := siteFixture(t, files)

	if _, err := runBuild(t, rootSeq, func(c *config.Config) { c.MaxWorkers = 1 }, Options{Parallel: false}); err != nil {
		t.Fatalf("sequential build: %v", err)
	}
	if _, err := runBuild(t, rootPar, func(c *config.Config) { c.MaxWorkers = 8 }, Options{Parallel: true}); err != nil {
		t.Fatalf("parallel build: %v", err)
	}

	seq := hashTree(t, filepath.Join(rootSeq, "public"))
	par := hashTree(t, filepath.Join(rootPar, "public"))
	if len(seq) == 0 {
		t.Fatal("no output files")
	}
	if len(seq) != len(par) {
		t.Fatalf("output sets differ: %d vs %d files", len(seq), len(par))
	}
	for rel, h := range seq {
		if par[rel] != h {
			t.Errorf("output %s differs between sequential and parallel builds", rel)
		}
	}
}

func TestBuildTaxonomySectionCollision(t *testing.T) {
	root := siteFixture(t, map[string]string{
		"tags/oops.md": "---\ntitle: Oops\n---\nx\n",
		"blog/a.md":    "---\ntitle: A\ntags: [x]\n---\na\n",
	})

	if _, err := runBuild(t, root, nil, Options{}); err == nil {
		t.Error("a user section named after a taxonomy kind should be fatal")
	}
}

func TestBuildAliases(t *testing.T) {
	root := siteFixture(t, map[string]string{
		"new.md": "---\ntitle: New\naliases: [/old/]\n---\nmoved\n",
	})

	if _, err := runBuild(t, root, nil, Options{}); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	redirect := readOutput(t, root, "old/index.html")
	if !strings.Contains(redirect, `url=/new/`) {
		t.Errorf("redirect = %s", redirect)
	}
}

// hashTree maps output-relative paths to content hashes.
func hashTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		h, err := cache.HashFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		out[filepath.ToSlash(rel)] = h
		return nil
	})
	if err != nil {
		t.Fatalf("walking output: %v", err)
	}
	return out
}
