package template

import (
	"strings"
	"testing"
	"time"

	"github.com/bengal-ssg/bengal/internal/content"
)

func TestTruncate(t *testing.T) {
	if got := truncate(8, "a long sentence"); got != "a lon..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate(100, "short"); got != "short" {
		t.Errorf("truncate no-op = %q", got)
	}
}

func TestMarkdownify(t *testing.T) {
	got := string(markdownify("**bold** and `code` and [x](/y/)"))
	for _, want := range []string{"<strong>bold</strong>", "<code>code</code>", `<a href="/y/">x</a>`} {
		if !strings.Contains(got, want) {
			t.Errorf("markdownify = %q, want to contain %q", got, want)
		}
	}
}

func TestPluralize(t *testing.T) {
	if got := pluralize(1, "post", "posts"); got != "1 post" {
		t.Errorf("pluralize(1) = %q", got)
	}
	if got := pluralize(3, "post", "posts"); got != "3 posts" {
		t.Errorf("pluralize(3) = %q", got)
	}
}

func TestSortPagesBy(t *testing.T) {
	a := &content.Page{Title: "B", Weight: 2, Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := &content.Page{Title: "A", Weight: 1, Date: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}
	pages := []*content.Page{a, b}

	if got := sortPagesBy(pages, "title"); got[0] != b {
		t.Error("sortBy title")
	}
	if got := sortPagesBy(pages, "date"); got[0] != b {
		t.Error("sortBy date should be newest first")
	}
	if got := sortPagesBy(pages, "weight"); got[0] != b {
		t.Error("sortBy weight ascending")
	}
	if pages[0] != a {
		t.Error("input slice must not be mutated")
	}
}

func TestWhereAndGroupBy(t *testing.T) {
	pages := []*content.Page{
		{Title: "a", Type: "blog"},
		{Title: "b", Type: "doc"},
		{Title: "c", Type: "blog"},
	}

	got := where(pages, "Type", "blog").([]*content.Page)
	if len(got) != 2 {
		t.Errorf("where = %d items, want 2", len(got))
	}

	groups := groupBy(pages, "Type")
	if len(groups) != 2 {
		t.Errorf("groupBy = %d groups, want 2", len(groups))
	}
	if blog := groups["blog"].([]*content.Page); len(blog) != 2 {
		t.Errorf("blog group = %d, want 2", len(blog))
	}
}

func TestGetWithDefault(t *testing.T) {
	m := map[string]any{"present": 1}
	if got := getWithDefault(m, "present", 0); got != 1 {
		t.Errorf("get present = %v", got)
	}
	if got := getWithDefault(m, "absent", "fallback"); got != "fallback" {
		t.Errorf("get absent = %v", got)
	}
}

func TestDefaultValue(t *testing.T) {
	if got := defaultValue("x", ""); got != "x" {
		t.Errorf("default for empty string = %v", got)
	}
	if got := defaultValue("x", "set"); got != "set" {
		t.Errorf("default for set value = %v", got)
	}
	if got := defaultValue("x", nil); got != "x" {
		t.Errorf("default for nil = %v", got)
	}
}

func TestDataTable(t *testing.T) {
	rows := []any{
		map[string]any{"name": "a", "count": 1},
		map[string]any{"name": "b", "count": 2},
	}
	got, err := dataTable(rows)
	if err != nil {
		t.Fatalf("dataTable error: %v", err)
	}
	html := string(got)
	if !strings.Contains(html, "<th>count</th><th>name</th>") {
		t.Errorf("columns should be sorted: %s", html)
	}
	if strings.Count(html, "<tr>") != 3 {
		t.Errorf("want header + 2 rows: %s", html)
	}
}

func TestURLHelpers(t *testing.T) {
	if got := relURL("css/x.css"); got != "/css/x.css" {
		t.Errorf("relURL = %q", got)
	}
	if got := absURL("https://example.com/", "about/"); got != "https://example.com/about/" {
		t.Errorf("absURL = %q", got)
	}
}

func TestSeqAndIn(t *testing.T) {
	if got := seq(1, 3); len(got) != 3 || got[2] != 3 {
		t.Errorf("seq = %v", got)
	}
	if !inSlice([]string{"a", "b"}, "b") || inSlice([]string{"a"}, "z") {
		t.Error("inSlice misbehaves")
	}
}
