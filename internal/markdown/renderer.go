// Package markdown converts page sources into HTML using goldmark with the
// Bengal extensions: directive blocks, cross-reference links, inline math,
// syntax highlighting, and table-of-contents extraction. A Renderer instance
// is not safe for concurrent use; each worker owns one and resets it between
// pages.
package markdown

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"go.abhg.dev/goldmark/toc"

	"github.com/bengal-ssg/bengal/internal/content"
)

// RefResolver resolves a cross-reference to a link target. Implementations
// are provided by the build pipeline (backed by the site cross-reference
// index) and may record the resolved page as a dependency.
type RefResolver interface {
	// ResolveRef returns the href and link text for a reference. ok is false
	// for broken references.
	ResolveRef(ref, label string) (href, text string, ok bool)
}

// Options configures a Renderer.
type Options struct {
	HighlightStyle string
	Resolver       RefResolver
}

// Result is the output of rendering one page body.
type Result struct {
	HTML     string
	TOCHTML  string
	Headings []content.Heading
	Warnings []string
}

// Renderer wraps a configured goldmark instance plus the per-page state the
// extensions need (resolver, warning sink, directive recursion depth).
type Renderer struct {
	md       goldmark.Markdown
	resolver RefResolver
	warnings []string
	depth    int
}

// NewRenderer creates a Renderer with all extensions enabled.
func NewRenderer(opts Options) *Renderer {
	r := &Renderer{resolver: opts.Resolver}

	style := opts.HighlightStyle
	if style == "" {
		style = "github"
	}

	r.md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
			&directiveExtension{r: r},
			&xrefExtension{r: r},
			&mathExtension{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return r
}

// SetResolver installs the per-page cross-reference resolver.
func (r *Renderer) SetResolver(res RefResolver) { r.resolver = res }

// Reset wipes per-page state. Call between pages when reusing the renderer.
func (r *Renderer) Reset() {
	r.warnings = r.warnings[:0]
	r.depth = 0
}

// Warn records a per-page warning surfaced in the build stats.
func (r *Renderer) Warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Render converts markdown source into HTML, returning the body HTML with
// heading anchors injected, the TOC HTML, and the harvested heading list.
func (r *Renderer) Render(source []byte) (*Result, error) {
	doc := r.md.Parser().Parse(text.NewReader(source))

	tocTree, err := toc.Inspect(doc, source)
	if err != nil {
		return nil, fmt.Errorf("toc inspect: %w", err)
	}
	var tocHTML string
	if tocList := toc.RenderList(tocTree); tocList != nil {
		var tocBuf bytes.Buffer
		if err := r.md.Renderer().Render(&tocBuf, source, tocList); err != nil {
			return nil, fmt.Errorf("toc render: %w", err)
		}
		tocHTML = tocBuf.String()
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}

	bodyHTML, headings := InjectAnchors(buf.String())

	return &Result{
		HTML:     bodyHTML,
		TOCHTML:  tocHTML,
		Headings: headings,
		Warnings: append([]string(nil), r.warnings...),
	}, nil
}

// convert renders nested markdown (directive bodies). Depth is capped to
// keep pathological nesting from recursing without bound.
func (r *Renderer) convert(source []byte) []byte {
	const maxDepth = 10
	if r.depth >= maxDepth {
		return []byte("<pre>" + escapeHTML(string(source)) + "</pre>")
	}
	r.depth++
	defer func() { r.depth-- }()

	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		r.Warn("nested markdown: %v", err)
		return []byte(escapeHTML(string(source)))
	}
	return buf.Bytes()
}

func escapeHTML(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
