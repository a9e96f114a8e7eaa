package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Admonition directive names and their default titles.
var admonitionTitles = map[string]string{
	"note":    "Note",
	"tip":     "Tip",
	"warning": "Warning",
	"danger":  "Danger",
	"error":   "Error",
	"info":    "Info",
	"example": "Example",
	"success": "Success",
	"caution": "Caution",
}

var (
	directiveNameRe = regexp.MustCompile(`^\{([a-zA-Z][a-zA-Z0-9_-]*)\}(.*)$`)
	optionLineRe    = regexp.MustCompile(`^:([a-zA-Z][a-zA-Z0-9_-]*):\s*(.*)$`)
	tabMarkerRe     = regexp.MustCompile(`(?m)^### Tab: (.+)$`)
)

// directiveExtension turns fenced blocks opened with ```{name} into rendered
// directive containers. Bodies are markdown, parsed recursively; a four
// backtick fence allows nested three-backtick code blocks.
type directiveExtension struct {
	r *Renderer
}

func (e *directiveExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&directiveTransformer{r: e.r}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&rawHTMLBlockRenderer{}, 500),
	))
}

// rawHTMLBlock carries pre-rendered directive HTML through the AST.
type rawHTMLBlock struct {
	gast.BaseBlock
	html []byte
}

var kindRawHTMLBlock = gast.NewNodeKind("BengalRawHTMLBlock")

func (n *rawHTMLBlock) Kind() gast.NodeKind { return kindRawHTMLBlock }

func (n *rawHTMLBlock) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, nil, nil)
}

type rawHTMLBlockRenderer struct{}

func (r *rawHTMLBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(kindRawHTMLBlock, func(w util.BufWriter, _ []byte, node gast.Node, entering bool) (gast.WalkStatus, error) {
		if entering {
			_, _ = w.Write(node.(*rawHTMLBlock).html)
		}
		return gast.WalkContinue, nil
	})
}

// directiveTransformer rewrites matching fenced code blocks into rendered
// directive containers during parse.
type directiveTransformer struct {
	r *Renderer
}

func (t *directiveTransformer) Transform(doc *gast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()

	type replacement struct{ old, new gast.Node }
	var replacements []replacement

	_ = gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		fcb, ok := n.(*gast.FencedCodeBlock)
		if !ok {
			return gast.WalkContinue, nil
		}
		info := fencedInfo(fcb, source)
		m := directiveNameRe.FindStringSubmatch(info)
		if m == nil {
			return gast.WalkContinue, nil
		}
		name := m[1]
		title := strings.TrimSpace(m[2])
		body := fencedBody(fcb, source)

		html := t.r.renderDirective(name, title, body)
		replacements = append(replacements, replacement{old: n, new: &rawHTMLBlock{html: html}})
		return gast.WalkSkipChildren, nil
	})

	for _, rep := range replacements {
		parent := rep.old.Parent()
		if parent != nil {
			parent.ReplaceChild(parent, rep.old, rep.new)
		}
	}
}

// fencedInfo returns the full info line of a fenced code block.
func fencedInfo(fcb *gast.FencedCodeBlock, source []byte) string {
	if fcb.Info == nil {
		return ""
	}
	return strings.TrimSpace(string(fcb.Info.Segment.Value(source)))
}

// fencedBody concatenates a fenced code block's body lines.
func fencedBody(fcb *gast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := fcb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// renderDirective dispatches to the built-in directive renderers. Unknown
// directives warn and fall back to a styled container.
func (r *Renderer) renderDirective(name, title, body string) []byte {
	opts, rest := parseDirectiveOptions(body)

	switch {
	case admonitionTitles[name] != "":
		return r.renderAdmonition(name, title, rest)
	case name == "dropdown" || name == "details":
		return r.renderDropdown(title, opts, rest)
	case name == "tabs" || name == "code-tabs":
		return r.renderTabs(name, rest)
	default:
		r.Warn("unknown directive %q", name)
		var buf bytes.Buffer
		buf.WriteString(`<div class="directive directive-` + name + `">`)
		if title != "" {
			buf.WriteString(`<p class="directive-title">` + escapeHTML(title) + `</p>`)
		}
		buf.Write(r.convert([]byte(rest)))
		buf.WriteString(`</div>`)
		return buf.Bytes()
	}
}

// parseDirectiveOptions consumes leading ":key: value" lines up to the first
// blank or non-option line.
func parseDirectiveOptions(body string) (map[string]string, string) {
	opts := map[string]string{}
	lines := strings.Split(body, "\n")
	i := 0
	for ; i < len(lines); i++ {
		m := optionLineRe.FindStringSubmatch(lines[i])
		if m == nil {
			break
		}
		opts[m[1]] = strings.TrimSpace(m[2])
	}
	// A blank separator line after options is part of the option block.
	if i > 0 && i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return opts, strings.Join(lines[i:], "\n")
}

func (r *Renderer) renderAdmonition(name, title, body string) []byte {
	if title == "" {
		title = admonitionTitles[name]
	}
	var buf bytes.Buffer
	buf.WriteString(`<div class="admonition admonition-` + name + `">`)
	buf.WriteString(`<p class="admonition-title">` + escapeHTML(title) + `</p>`)
	buf.Write(r.convert([]byte(body)))
	buf.WriteString(`</div>`)
	return buf.Bytes()
}

func (r *Renderer) renderDropdown(title string, opts map[string]string, body string) []byte {
	if title == "" {
		title = "Details"
	}
	var buf bytes.Buffer
	if opts["open"] == "true" {
		buf.WriteString(`<details class="dropdown" open>`)
	} else {
		buf.WriteString(`<details class="dropdown">`)
	}
	buf.WriteString(`<summary>` + escapeHTML(title) + `</summary>`)
	buf.Write(r.convert([]byte(body)))
	buf.WriteString(`</details>`)
	return buf.Bytes()
}

// renderTabs splits the body on "### Tab: <name>" markers; the content
// between markers is parsed as markdown.
func (r *Renderer) renderTabs(kind, body string) []byte {
	markers := tabMarkerRe.FindAllStringSubmatchIndex(body, -1)
	if len(markers) == 0 {
		r.Warn("%s directive has no '### Tab:' markers", kind)
		return r.convert([]byte(body))
	}

	type tab struct {
		name    string
		content string
	}
	tabs := make([]tab, 0, len(markers))
	for i, m := range markers {
		name := strings.TrimSpace(body[m[2]:m[3]])
		start := m[1]
		end := len(body)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		tabs = append(tabs, tab{name: name, content: body[start:end]})
	}

	class := "tabs"
	if kind == "code-tabs" {
		class = "tabs code-tabs"
	}

	var buf bytes.Buffer
	buf.WriteString(`<div class="` + class + `">`)
	buf.WriteString(`<div class="tab-nav">`)
	for i, tb := range tabs {
		active := ""
		if i == 0 {
			active = " active"
		}
		buf.WriteString(`<button class="tab-title` + active + `">` + escapeHTML(tb.name) + `</button>`)
	}
	buf.WriteString(`</div>`)
	for i, tb := range tabs {
		active := ""
		if i == 0 {
			active = " active"
		}
		buf.WriteString(`<div class="tab-pane` + active + `">`)
		buf.Write(r.convert([]byte(tb.content)))
		buf.WriteString(`</div>`)
	}
	buf.WriteString(`</div>`)
	return buf.Bytes()
}
