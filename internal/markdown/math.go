package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// mathExtension passes $...$ and $$...$$ spans through untouched inside
// class-tagged wrappers, for client-side math rendering.
type mathExtension struct{}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&mathParser{}, 160),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&mathRenderer{}, 500),
	))
}

type mathNode struct {
	gast.BaseInline
	expr    string
	display bool
}

var kindMath = gast.NewNodeKind("BengalMath")

func (n *mathNode) Kind() gast.NodeKind { return kindMath }

func (n *mathNode) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"Expr": n.expr}, nil)
}

type mathParser struct{}

func (p *mathParser) Trigger() []byte { return []byte{'$'} }

func (p *mathParser) Parse(_ gast.Node, block text.Reader, _ parser.Context) gast.Node {
	line, _ := block.PeekLine()

	if bytes.HasPrefix(line, []byte("$$")) {
		end := bytes.Index(line[2:], []byte("$$"))
		if end < 0 {
			return nil
		}
		expr := string(line[2 : 2+end])
		block.Advance(end + 4)
		return &mathNode{expr: expr, display: true}
	}

	end := bytes.IndexByte(line[1:], '$')
	if end <= 0 {
		// Empty or unterminated span; leave the dollar sign alone.
		return nil
	}
	expr := string(line[1 : 1+end])
	block.Advance(end + 2)
	return &mathNode{expr: expr}
}

type mathRenderer struct{}

func (mr *mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(kindMath, mr.render)
}

func (mr *mathRenderer) render(w util.BufWriter, _ []byte, node gast.Node, entering bool) (gast.WalkStatus, error) {
	if !entering {
		return gast.WalkContinue, nil
	}
	n := node.(*mathNode)
	if n.display {
		_, _ = w.WriteString(`<span class="math display">\[` + escapeHTML(n.expr) + `\]</span>`)
	} else {
		_, _ = w.WriteString(`<span class="math inline">\(` + escapeHTML(n.expr) + `\)</span>`)
	}
	return gast.WalkContinue, nil
}
