package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/bengal-ssg/bengal/internal/content"
)

// xrefExtension parses [[ref]], [[ref|Label]], [[#heading]], and [[id:foo]]
// links and resolves them through the pipeline's RefResolver.
type xrefExtension struct {
	r *Renderer
}

func (e *xrefExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		// Above the default link parser so [[ wins over [.
		util.Prioritized(&xrefParser{}, 150),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&xrefRenderer{r: e.r}, 500),
	))
}

// xrefNode is an unresolved cross-reference in the AST.
type xrefNode struct {
	gast.BaseInline
	ref   string
	label string
}

var kindXRef = gast.NewNodeKind("BengalXRef")

func (n *xrefNode) Kind() gast.NodeKind { return kindXRef }

func (n *xrefNode) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"Ref": n.ref, "Label": n.label}, nil)
}

type xrefParser struct{}

func (p *xrefParser) Trigger() []byte { return []byte{'['} }

func (p *xrefParser) Parse(_ gast.Node, block text.Reader, _ parser.Context) gast.Node {
	line, _ := block.PeekLine()
	if len(line) < 4 || line[0] != '[' || line[1] != '[' {
		return nil
	}
	end := bytes.Index(line, []byte("]]"))
	if end < 2 {
		return nil
	}
	inner := string(line[2:end])
	block.Advance(end + 2)

	ref, label := inner, ""
	if idx := strings.Index(inner, "|"); idx >= 0 {
		ref = strings.TrimSpace(inner[:idx])
		label = strings.TrimSpace(inner[idx+1:])
	} else {
		ref = strings.TrimSpace(ref)
	}
	return &xrefNode{ref: ref, label: label}
}

type xrefRenderer struct {
	r *Renderer
}

func (xr *xrefRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(kindXRef, xr.render)
}

func (xr *xrefRenderer) render(w util.BufWriter, _ []byte, node gast.Node, entering bool) (gast.WalkStatus, error) {
	if !entering {
		return gast.WalkContinue, nil
	}
	n := node.(*xrefNode)

	// [[#heading]] resolves within the current page by heading slug.
	if strings.HasPrefix(n.ref, "#") {
		anchor := content.Slugify(strings.TrimPrefix(n.ref, "#"))
		label := n.label
		if label == "" {
			label = strings.TrimPrefix(n.ref, "#")
		}
		_, _ = w.WriteString(`<a href="#` + anchor + `">` + escapeHTML(label) + `</a>`)
		return gast.WalkContinue, nil
	}

	if xr.r.resolver != nil {
		if href, label, ok := xr.r.resolver.ResolveRef(n.ref, n.label); ok {
			_, _ = w.WriteString(`<a href="` + href + `">` + escapeHTML(label) + `</a>`)
			return gast.WalkContinue, nil
		}
	}

	xr.r.Warn("broken cross-reference [[%s]]", n.ref)
	_, _ = w.WriteString(`<a class="broken-ref" data-ref="` + escapeHTML(n.ref) + `">` + escapeHTML(n.ref) + `</a>`)
	return gast.WalkContinue, nil
}
