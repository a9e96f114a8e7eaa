package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bengal-ssg/bengal/internal/content"
	"github.com/bengal-ssg/bengal/internal/feed"
	"github.com/bengal-ssg/bengal/internal/search"
	"github.com/bengal-ssg/bengal/internal/seo"
	tmpl "github.com/bengal-ssg/bengal/internal/template"
)

const defaultNotFoundHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Page Not Found</title></head>
<body><h1>404</h1><p>The page you were looking for does not exist.</p></body>
</html>
`

// writeSitemap enumerates non-generated pages; lastmod is the later of the
// page date and the source file's modification time.
func (b *Builder) writeSitemap(site *content.Site, writer *Writer) error {
	base := strings.TrimRight(b.cfg.BaseURL, "/")

	var entries []seo.SitemapEntry
	for _, p := range site.Pages {
		if p.Generated || p.Draft {
			continue
		}
		lastmod := p.Date
		if info, err := os.Stat(filepath.Join(b.contentDir(), filepath.FromSlash(p.SourcePath))); err == nil {
			if info.ModTime().After(lastmod) {
				lastmod = info.ModTime()
			}
		}
		entries = append(entries, seo.SitemapEntry{URL: base + p.URL, Lastmod: lastmod})
	}

	data, err := seo.GenerateSitemap(entries)
	if err != nil {
		return fmt.Errorf("generating sitemap: %w", err)
	}
	if err := writer.WriteFile("sitemap.xml", data); err != nil {
		return err
	}
	return writer.WriteFile("robots.txt", seo.GenerateRobotsTxt(base+"/sitemap.xml"))
}

// writeFeeds emits rss.xml (and atom.xml when enabled) for the pages directly
// in the configured sections (matched by section name), defaulting to
// sections named "blog".
func (b *Builder) writeFeeds(site *content.Site, writer *Writer) error {
	if !b.cfg.Feeds.RSS && !b.cfg.Feeds.Atom {
		return nil
	}

	sections := b.cfg.Feeds.Sections
	if len(sections) == 0 {
		sections = []string{"blog"}
	}

	base := strings.TrimRight(b.cfg.BaseURL, "/")
	var items []feed.Item
	for _, p := range site.Pages {
		if p.Generated || p.Draft || p.Section == nil {
			continue
		}
		if !slices.Contains(sections, p.Section.Name) {
			continue
		}
		items = append(items, feed.Item{
			Title:       p.Title,
			Link:        base + p.URL,
			GUID:        base + p.URL,
			Description: content.StripHTML(p.Summary),
			PubDate:     p.Date,
			Categories:  append(append([]string(nil), p.Tags...), p.Categories...),
		})
	}
	if len(items) == 0 {
		return nil
	}

	opts := feed.Options{
		Title:    b.cfg.Title,
		Link:     base,
		MaxItems: b.cfg.Feeds.Limit,
	}

	if b.cfg.Feeds.RSS {
		opts.FeedLink = base + "/rss.xml"
		data, err := feed.GenerateRSS(items, opts)
		if err != nil {
			return fmt.Errorf("generating RSS feed: %w", err)
		}
		if err := writer.WriteFile("rss.xml", data); err != nil {
			return err
		}
	}
	if b.cfg.Feeds.Atom {
		opts.FeedLink = base + "/atom.xml"
		data, err := feed.GenerateAtom(items, opts)
		if err != nil {
			return fmt.Errorf("generating Atom feed: %w", err)
		}
		if err := writer.WriteFile("atom.xml", data); err != nil {
			return err
		}
	}
	return nil
}

// writeSearchIndexes produces the site-wide JSON (and optional plain-text)
// indexes used by client-side search.
func (b *Builder) writeSearchIndexes(site *content.Site, writer *Writer) error {
	if !b.cfg.Search.Enabled {
		return nil
	}

	var entries []search.Entry
	for _, p := range site.Pages {
		if p.Generated || p.Draft {
			continue
		}
		section := ""
		if p.Section != nil {
			section = p.Section.Name
		}
		entries = append(entries, search.Entry{
			Title:     p.Title,
			URL:       p.URL,
			Summary:   content.StripHTML(p.Summary),
			Tags:      p.Tags,
			Section:   section,
			PlainText: content.PlainText(p.Content),
		})
	}

	formats := b.cfg.OutputFormats.SiteWide
	if slices.Contains(formats, "index_json") {
		data, err := search.GenerateJSON(entries, b.cfg.Search.ContentLength)
		if err != nil {
			return fmt.Errorf("generating search index: %w", err)
		}
		if err := writer.WriteFile("index.json", data); err != nil {
			return err
		}
	}
	if slices.Contains(formats, "plain_text") {
		if err := writer.WriteFile("index.txt", search.GeneratePlainText(entries)); err != nil {
			return err
		}
	}
	return nil
}

// writeNotFound renders 404.html with a minimal context, falling back to a
// built-in page when the theme ships no 404 template.
func (b *Builder) writeNotFound(site *content.Site, writer *Writer, stats *Stats) error {
	engine, err := tmpl.NewEngine(b.themeLayoutDir(), b.userLayoutDir(), tmpl.Options{BaseURL: b.cfg.BaseURL})
	if err != nil || !engine.Has("404.html") {
		return writer.WriteFile("404.html", []byte(defaultNotFoundHTML))
	}

	ctx := &tmpl.RenderContext{
		Page:    &content.Page{Title: "Page Not Found", URL: "/404.html"},
		Site:    site,
		Config:  b.cfg.Flatten(),
		Menus:   site.Menus,
		BaseURL: b.cfg.BaseURL,
	}
	out, _, err := engine.Execute("404.html", ctx)
	if err != nil {
		stats.AddWarning(fmt.Sprintf("rendering 404.html: %v", err))
		return writer.WriteFile("404.html", []byte(defaultNotFoundHTML))
	}
	return writer.WriteFile("404.html", out)
}

// metricsLine is one build history record under the cache directory.
type metricsLine struct {
	Time     time.Time `json:"time"`
	Duration string    `json:"duration"`
	Pages    int64     `json:"pages"`
	Files    int64     `json:"files"`
	Skipped  bool      `json:"skipped"`
}

// appendMetrics appends one JSON line of build timing history. Best effort:
// metrics never fail a build.
func (b *Builder) appendMetrics(stats *Stats) {
	dir := filepath.Join(filepath.Dir(b.cachePath()), "metrics")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "history.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	line, err := json.Marshal(metricsLine{
		Time:     time.Now(),
		Duration: stats.Duration.String(),
		Pages:    stats.PagesRendered.Load(),
		Files:    stats.FilesWritten,
		Skipped:  stats.Skipped,
	})
	if err != nil {
		return
	}
	_, _ = f.Write(append(line, '\n'))
}
