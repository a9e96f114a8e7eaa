package build

import (
	"errors"
	"fmt"
	"strings"

	tmpl "github.com/bengal-ssg/bengal/internal/template"
)

// ErrorKind classifies build failures per the error taxonomy.
type ErrorKind int

const (
	KindConfig ErrorKind = iota
	KindDiscovery
	KindCascade
	KindFrontmatter
	KindPreprocess
	KindParse
	KindDirective
	KindCrossRef
	KindTemplate
	KindIO
	KindCache
	KindHealth
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindDiscovery:
		return "discovery"
	case KindCascade:
		return "cascade"
	case KindFrontmatter:
		return "frontmatter"
	case KindPreprocess:
		return "preprocess"
	case KindParse:
		return "parse"
	case KindDirective:
		return "directive"
	case KindCrossRef:
		return "crossref"
	case KindTemplate:
		return "template"
	case KindIO:
		return "io"
	case KindCache:
		return "cache"
	case KindHealth:
		return "health"
	default:
		return "unknown"
	}
}

// fatalInStrict reports whether a per-page error of this kind aborts a
// strict-mode build.
func fatalInStrict(k ErrorKind) bool {
	switch k {
	case KindPreprocess, KindParse, KindTemplate, KindCrossRef:
		return true
	default:
		return false
	}
}

// RenderError is a structured per-page failure. In non-strict mode these
// accumulate in the build stats; in strict mode the first one of a fatal
// kind terminates the build.
type RenderError struct {
	Page          string
	Kind          ErrorKind
	File          string
	Line          int
	Column        int
	Message       string
	TemplateChain []string
	Suggestion    string
	Fatal         bool // aborts the build regardless of strict mode
}

func (e *RenderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Kind, e.Page)
	if e.File != "" {
		b.WriteString(": " + e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
			if e.Column > 0 {
				fmt.Fprintf(&b, ":%d", e.Column)
			}
		}
	}
	b.WriteString(": " + e.Message)
	if len(e.TemplateChain) > 0 {
		b.WriteString(" (via " + strings.Join(e.TemplateChain, " > ") + ")")
	}
	if e.Suggestion != "" {
		b.WriteString("\n  suggestion: " + e.Suggestion)
	}
	return b.String()
}

// newRenderError classifies an error from a render step, unwrapping
// structured template errors for their location and suggestion.
func newRenderError(page string, kind ErrorKind, err error) *RenderError {
	re := &RenderError{Page: page, Kind: kind, Message: err.Error()}

	var terr *tmpl.Error
	if errors.As(err, &terr) {
		re.File = terr.Template
		re.Line = terr.Line
		re.Message = terr.Message
		re.Suggestion = terr.Suggestion
		if terr.Template != "" {
			re.TemplateChain = []string{terr.Template}
		}
	}
	return re
}
