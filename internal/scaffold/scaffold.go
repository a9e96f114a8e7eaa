// Package scaffold creates new site skeletons and content files.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bengal-ssg/bengal/internal/content"
)

// nowFunc is overridable in tests.
var nowFunc = time.Now

const configTemplate = `title = "%s"
baseurl = "/"

[pagination]
per_page = 10

[menu]
main = [
  { name = "Home", url = "/", weight = 1 },
  { name = "Blog", url = "/blog/", weight = 2 },
]
`

const homeIndex = `---
title: Home
---

Welcome to your new Bengal site.
`

const blogIndex = `---
title: Blog
cascade:
  type: blog
---
`

const firstPost = `---
title: Hello World
date: %s
tags: [meta]
---

# Hello

Your first post. Edit or delete it, then run ` + "`bengal build`" + `.
`

var themeLayouts = map[string]string{
	"index.html":       `<!DOCTYPE html><html><head><title>{{ .Page.Title }}</title></head><body>{{ partial "nav" . }}<h1>{{ .Page.Title }}</h1><ul>{{ range .Posts }}<li><a href="{{ .URL }}">{{ .Title }}</a></li>{{ end }}</ul></body></html>`,
	"page.html":        `<!DOCTYPE html><html><head><title>{{ .Page.Title }}</title></head><body>{{ partial "nav" . }}<article><h1>{{ .Page.Title }}</h1>{{ .Content }}</article></body></html>`,
	"blog/list.html":   `<!DOCTYPE html><html><head><title>{{ .Page.Title }}</title></head><body>{{ partial "nav" . }}<h1>{{ .Page.Title }}</h1><ul>{{ range .Posts }}<li><a href="{{ .URL }}">{{ .Title }}</a> <time>{{ dateISO .Date }}</time></li>{{ end }}</ul></body></html>`,
	"blog/single.html": `<!DOCTYPE html><html><head><title>{{ .Page.Title }}</title></head><body>{{ partial "nav" . }}<article>{{ .Content }}</article><nav class="toc">{{ .TOC }}</nav></body></html>`,
	"tags.html":        `<!DOCTYPE html><html><head><title>{{ .Page.Title }}</title></head><body><h1>{{ .Page.Title }}</h1><ul>{{ range .Posts }}<li><a href="{{ .URL }}">{{ .Title }}</a></li>{{ end }}</ul></body></html>`,
	"404.html":         `<!DOCTYPE html><html><head><title>Not Found</title></head><body><h1>404</h1></body></html>`,
	"partials/nav.html": `<nav>{{ range .Menus.main }}<a href="{{ .URL }}">{{ .Name }}</a> {{ end }}</nav>`,
}

// NewSite creates a site skeleton at dir. It refuses to overwrite an
// existing directory.
func NewSite(dir, title string) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %s already exists", dir)
	}

	files := map[string]string{
		"bengal.toml":           fmt.Sprintf(configTemplate, title),
		"content/_index.md":     homeIndex,
		"content/blog/_index.md": blogIndex,
		"content/blog/hello-world.md": fmt.Sprintf(firstPost, nowFunc().Format("2006-01-02")),
	}
	for rel, text := range themeLayouts {
		files[filepath.Join("themes", "default", "layouts", rel)] = text
	}

	for rel, text := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
	}
	return nil
}

// NewPost creates a dated post under the given section with frontmatter
// filled in.
func NewPost(root, section, title string) (string, error) {
	slug := content.Slugify(title)
	if slug == "" {
		return "", fmt.Errorf("title %q produces an empty slug", title)
	}
	rel := filepath.Join("content", section, slug+".md")
	path := filepath.Join(root, rel)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", rel)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	body := fmt.Sprintf("---\ntitle: %s\ndate: %s\ndraft: true\n---\n\n", title, nowFunc().Format("2006-01-02"))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", err
	}
	return rel, nil
}
