// Package template wraps Go's html/template with theme/user layout
// overlaying, template resolution, a helper function library, dependency
// tracking for incremental builds, and strict-mode error translation.
package template

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var templateRefRe = regexp.MustCompile(`\{\{[-\s]*(?:template|partial)\s+"([^"]+)"`)

// Hooks are the pipeline-provided callbacks behind the ref/asset helpers.
// They let the engine stay ignorant of the cross-reference index and asset
// pipeline while still recording dependencies per page.
type Hooks struct {
	Ref       func(ref, label string) (href, text string, ok bool)
	AssetURL  func(path string) string
	RecordDep func(path string)
}

// Options configures an Engine.
type Options struct {
	Strict  bool
	BaseURL string
}

// Engine loads .html templates from a theme layouts directory with user
// layouts overlaid on top, and renders pages with the Bengal helper library.
// Engines are not safe for concurrent use; each worker owns one.
type Engine struct {
	templates *template.Template
	files     map[string]string // template name -> source file path
	texts     map[string]string // template name -> raw text
	refs      map[string][]string
	strict    bool
	baseURL   string
	hooks     Hooks

	// Per-execution state; engines are per-worker, so a plain field works.
	state *renderState
}

type renderState struct {
	ctx      *RenderContext
	accessed map[string]bool
}

// NewEngine loads theme templates and overlays user templates with the same
// relative path on top.
func NewEngine(themeLayoutDir, userLayoutDir string, opts Options) (*Engine, error) {
	e := &Engine{
		files:   map[string]string{},
		texts:   map[string]string{},
		refs:    map[string][]string{},
		strict:  opts.Strict,
		baseURL: opts.BaseURL,
	}

	files, err := collectTemplateFiles(themeLayoutDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading theme templates from %s: %w", themeLayoutDir, err)
	}
	if userLayoutDir != "" {
		userFiles, err := collectTemplateFiles(userLayoutDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading user templates from %s: %w", userLayoutDir, err)
		}
		for name, path := range userFiles {
			files[name] = path
		}
	}
	e.files = files

	root := template.New("").Funcs(e.funcMap())
	if opts.Strict {
		root = root.Option("missingkey=error")
	}
	for name, path := range files {
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", path, err)
		}
		e.texts[name] = string(text)
		if _, err := root.New(name).Parse(string(text)); err != nil {
			return nil, translateParseError(err, name)
		}
	}
	e.templates = root

	// Static reference graph: {{ template "x" }} and {{ partial "x" }} calls
	// feed the dependency closure used by the incremental cache.
	for name, text := range e.texts {
		for _, m := range templateRefRe.FindAllStringSubmatch(text, -1) {
			e.refs[name] = append(e.refs[name], m[1])
		}
	}
	return e, nil
}

// collectTemplateFiles maps template names (layout-relative slash paths) to
// file paths for every .html file under dir.
func collectTemplateFiles(dir string) (map[string]string, error) {
	files := map[string]string{}
	info, err := os.Stat(dir)
	if err != nil {
		return files, err
	}
	if !info.IsDir() {
		return files, fmt.Errorf("%s is not a directory", dir)
	}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".html" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = path
		return nil
	})
	return files, err
}

// SetHooks installs the pipeline callbacks. Must be called before Execute.
func (e *Engine) SetHooks(h Hooks) { e.hooks = h }

// Has reports whether a template with the given name is loaded.
func (e *Engine) Has(name string) bool {
	return e.templates.Lookup(name) != nil
}

// Resolve returns the first candidate template that exists, or "".
func (e *Engine) Resolve(candidates ...string) string {
	for _, name := range candidates {
		if name != "" && e.Has(name) {
			return name
		}
	}
	return ""
}

// Names returns the sorted list of loaded template names.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.files))
	for name := range e.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute renders the named template. It returns the output plus the source
// file paths of every template in the execution's dependency set (the named
// template, partials actually invoked, and the static reference closure).
func (e *Engine) Execute(name string, ctx *RenderContext) ([]byte, []string, error) {
	t := e.templates.Lookup(name)
	if t == nil {
		return nil, nil, &Error{
			Template:   name,
			Message:    fmt.Sprintf("template %q not found", name),
			Suggestion: e.nearestTemplate(name),
		}
	}

	e.state = &renderState{ctx: ctx, accessed: map[string]bool{name: true}}
	defer func() { e.state = nil }()

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return nil, nil, translateExecError(err, name, e.availableLocals(ctx))
	}

	// Expand static references of everything touched, then map to files.
	closure := map[string]bool{}
	for tmpl := range e.state.accessed {
		e.expandRefs(tmpl, closure)
	}
	var deps []string
	for tmpl := range closure {
		if path, ok := e.files[tmpl]; ok {
			deps = append(deps, filepath.ToSlash(path))
		}
	}
	sort.Strings(deps)
	return buf.Bytes(), deps, nil
}

func (e *Engine) expandRefs(name string, seen map[string]bool) {
	if seen[name] {
		return
	}
	seen[name] = true
	for _, ref := range e.refs[name] {
		// Partial names may omit the partials/ prefix and the extension.
		for _, candidate := range partialCandidates(ref) {
			e.expandRefs(candidate, seen)
		}
	}
}

// partialCandidates lists the template names a reference could mean.
func partialCandidates(name string) []string {
	out := []string{name}
	if !strings.HasSuffix(name, ".html") {
		out = append(out, name+".html")
	}
	if !strings.HasPrefix(name, "partials/") {
		base := name
		if !strings.HasSuffix(base, ".html") {
			base += ".html"
		}
		out = append(out, "partials/"+name, "partials/"+base)
	}
	return out
}

// executePartial renders a partial template with the caller-provided context
// (included "with context", unlike macros which take explicit arguments).
func (e *Engine) executePartial(name string, ctx any) (template.HTML, error) {
	var t *template.Template
	tmplName := name
	for _, candidate := range partialCandidates(name) {
		if found := e.templates.Lookup(candidate); found != nil {
			t = found
			tmplName = candidate
			break
		}
	}
	if t == nil {
		return "", &Error{
			Template:   name,
			Message:    fmt.Sprintf("partial template %q not found", name),
			Suggestion: e.nearestTemplate(name),
		}
	}
	if e.state != nil {
		e.state.accessed[tmplName] = true
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("executing partial %q: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// nearestTemplate suggests the closest known template name.
func (e *Engine) nearestTemplate(name string) string {
	if best := nearestName(name, e.Names()); best != "" {
		return fmt.Sprintf("did you mean %q?", best)
	}
	return ""
}

// availableLocals summarizes the context fields for strict-mode errors.
func (e *Engine) availableLocals(ctx *RenderContext) []string {
	if ctx == nil {
		return nil
	}
	return []string{"Page", "Site", "Config", "Content", "TOC", "TOCItems", "Posts", "Paginator", "Menus", "BaseURL"}
}
