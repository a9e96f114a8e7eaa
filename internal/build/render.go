package build

import (
	"fmt"
	htmltemplate "html/template"
	"regexp"
	"strings"

	"github.com/bengal-ssg/bengal/internal/content"
	"github.com/bengal-ssg/bengal/internal/markdown"
	tmpl "github.com/bengal-ssg/bengal/internal/template"
)

var hrefRe = regexp.MustCompile(`<a\s+[^>]*href="([^"]+)"`)

// Page types that get the post-HTML reference enhancer.
var enhancedTypes = map[string]bool{
	"python-module": true,
	"cli-command":   true,
	"api-reference": true,
	"cli-reference": true,
}

// renderPage runs the per-page pipeline: preprocess, parse, enhance, link
// extraction, template selection, context assembly, execution, atomic write.
func (w *worker) renderPage(p *content.Page, stats *Stats) *RenderError {
	cfg := w.b.cfg

	// Source pages carry their own file as the first dependency edge.
	if !p.Virtual {
		w.deps = append(w.deps, w.b.pageFile(p))
	}

	// Preprocess: inline {{ }} substitution before the markdown parse.
	source := p.Source
	if !p.Virtual && markdown.ShouldPreprocess(p, cfg) {
		pre, err := markdown.Preprocess(source, p, w.site, cfg)
		if err != nil {
			re := newRenderError(p.Key(), KindPreprocess, err)
			if w.b.strict() {
				return re
			}
			stats.AddError(re) // keep the unsubstituted source and carry on
		} else {
			source = pre
		}
	}

	// Parse markdown with directives and cross-refs.
	if source != "" {
		res, err := w.renderer.Render([]byte(source))
		if err != nil {
			re := newRenderError(p.Key(), KindParse, err)
			if w.b.strict() {
				return re
			}
			stats.AddError(re)
			p.Content = "" // page renders with an empty body
		} else {
			p.Content = res.HTML
			p.TOCHTML = res.TOCHTML
			p.Headings = res.Headings
			w.site.XRef.AddHeadings(p, res.Headings)
			for _, warn := range res.Warnings {
				if w.b.strict() && strings.HasPrefix(warn, "broken cross-reference") {
					return newRenderError(p.Key(), KindCrossRef, fmt.Errorf("%s", warn))
				}
				stats.AddWarning(fmt.Sprintf("%s: %s", p.Key(), warn))
			}
		}
	}

	// Enhance reference-style pages with structural classes.
	if enhancedTypes[p.Type] {
		p.Content = enhanceReference(p.Type, p.Content)
	}

	// Derive the summary once the body HTML exists.
	if p.Summary == "" && p.Content != "" {
		p.Summary = content.DeriveSummary(p.Source, p.Content, 300)
	}

	// Extract links for validation.
	p.Links = extractLinks(p.Content, cfg.BaseURL)

	// Select and resolve the template.
	templateName := w.selectTemplate(p)
	if templateName == "" {
		re := newRenderError(p.Key(), KindTemplate, fmt.Errorf("no template found for page (type %q)", p.Type))
		re.Fatal = true // missing templates are always fatal
		return re
	}

	// Assemble the render context and execute.
	ctx := &tmpl.RenderContext{
		Page:      p,
		Site:      w.site,
		Config:    cfg.Flatten(),
		Content:   htmltemplate.HTML(p.Content),
		TOC:       htmltemplate.HTML(p.TOCHTML),
		TOCItems:  p.TOCItems(),
		Posts:     p.Posts,
		Paginator: p.Paginator,
		Menus:     w.site.Menus,
		BaseURL:   cfg.BaseURL,
		Strict:    w.b.strict(),
	}

	out, templateDeps, err := w.engine.Execute(templateName, ctx)
	if err != nil {
		return newRenderError(p.Key(), KindTemplate, err)
	}
	// Engine deps come back as filesystem paths; cache edges are keyed by
	// project-relative path, like the hash inventory.
	for _, dep := range templateDeps {
		w.deps = append(w.deps, w.b.relPath(dep))
	}

	// Listing pages depend on the pages they list.
	for _, post := range p.Posts {
		if !post.Virtual {
			w.deps = append(w.deps, w.b.pageFile(post))
		}
	}
	// Data files cannot be attributed per template execution; any page may
	// read them through .Site.Data, so they invalidate conservatively.
	w.deps = append(w.deps, w.b.dataFiles...)

	if err := w.writer.WriteFile(p.OutputPath, out); err != nil {
		re := newRenderError(p.Key(), KindIO, err)
		re.Fatal = true
		return re
	}
	return nil
}

// selectTemplate resolves the strategy's choice against the loaded
// templates, with the shared fallbacks behind it.
func (w *worker) selectTemplate(p *content.Page) string {
	isListing := p.Posts != nil || (p.Section != nil && p.Section.Index == p)
	preferred := w.site.Strategies.SelectTemplate(p, isListing)

	if isListing {
		return w.engine.Resolve(preferred, "_default/list.html", "index.html")
	}
	return w.engine.Resolve(preferred, "_default/single.html", "page.html")
}

// extractLinks scans rendered HTML for anchor targets and classifies them.
func extractLinks(html, baseURL string) []content.Link {
	matches := hrefRe.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		return nil
	}
	base := strings.TrimRight(baseURL, "/")
	links := make([]content.Link, 0, len(matches))
	for _, m := range matches {
		href := m[1]
		internal := strings.HasPrefix(href, "/") || strings.HasPrefix(href, "#") ||
			(base != "" && strings.HasPrefix(href, base+"/"))
		links = append(links, content.Link{Href: href, Internal: internal})
	}
	return links
}

// enhanceReference wraps reference pages with structural classes and a type
// badge so themes can style API and CLI material distinctly.
func enhanceReference(pageType, html string) string {
	badge := `<span class="badge badge-` + pageType + `">` + pageType + `</span>`
	return `<div class="reference reference-` + pageType + `">` + badge + html + `</div>`
}
