// Package assets classifies and processes non-content source files: CSS
// entry points are bundled and minified through an external processor seam,
// everything else is copied, with content-hash fingerprints for cache
// busting.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bengal-ssg/bengal/internal/cache"
)

// Class is an asset's processing classification.
type Class int

const (
	ClassStatic Class = iota
	ClassCSSEntry
	ClassCSSModule
)

func (c Class) String() string {
	switch c {
	case ClassCSSEntry:
		return "css-entry"
	case ClassCSSModule:
		return "css-module"
	default:
		return "static"
	}
}

// Asset is one discovered source file.
type Asset struct {
	SourcePath  string // absolute path
	RelPath     string // assets-dir-relative slash path
	Class       Class
	Fingerprint string   // 8-hex prefix of the output's SHA256
	OutputPath  string   // output-dir-relative path
	Deps        []string // assets-dir-relative paths this asset pulls in (CSS imports)
}

// Processor is the seam for external tools (CSS minifier, JS minifier,
// image pipeline). Absent processors fall back to pass-through.
type Processor interface {
	Process(input []byte, opts map[string]string) ([]byte, error)
}

// Pipeline discovers and processes a site's assets.
type Pipeline struct {
	AssetsDir       string
	CSSEntryName    string          // file name treated as a CSS entry point
	FingerprintExts map[string]bool // extensions that get fingerprinted
	CSSMinifier     Processor       // optional
	JSMinifier      Processor       // optional
}

// NewPipeline builds a Pipeline with the given asset root.
func NewPipeline(assetsDir, cssEntry string, fingerprintExts []string) *Pipeline {
	exts := map[string]bool{}
	for _, e := range fingerprintExts {
		exts[strings.ToLower(e)] = true
	}
	if cssEntry == "" {
		cssEntry = "style.css"
	}
	return &Pipeline{
		AssetsDir:       assetsDir,
		CSSEntryName:    cssEntry,
		FingerprintExts: exts,
	}
}

// Discover walks the assets directory and classifies every file. CSS modules
// are files imported (transitively) by an entry; they produce no output of
// their own.
func (pl *Pipeline) Discover() ([]*Asset, error) {
	if _, err := os.Stat(pl.AssetsDir); os.IsNotExist(err) {
		return nil, nil
	}

	var all []*Asset
	err := filepath.WalkDir(pl.AssetsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(pl.AssetsDir, path)
		if err != nil {
			return err
		}
		all = append(all, &Asset{
			SourcePath: path,
			RelPath:    filepath.ToSlash(rel),
			Class:      ClassStatic,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking assets directory: %w", err)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].RelPath < all[j].RelPath })

	// Classify CSS entries and mark their imports as modules.
	modules := map[string]bool{}
	for _, a := range all {
		if filepath.Base(a.RelPath) != pl.CSSEntryName || !strings.HasSuffix(a.RelPath, ".css") {
			continue
		}
		a.Class = ClassCSSEntry
		deps, err := pl.cssImports(a)
		if err != nil {
			return nil, err
		}
		a.Deps = deps
		for _, dep := range deps {
			modules[dep] = true
		}
	}
	for _, a := range all {
		if a.Class == ClassStatic && modules[a.RelPath] {
			a.Class = ClassCSSModule
		}
	}
	return all, nil
}

// Process produces an asset's output bytes and assigns its fingerprint and
// output path. CSS modules return nil: they are folded into their entry.
func (pl *Pipeline) Process(a *Asset) ([]byte, error) {
	switch a.Class {
	case ClassCSSModule:
		return nil, nil

	case ClassCSSEntry:
		bundled, err := pl.bundleCSS(a)
		if err != nil {
			return nil, err
		}
		if pl.CSSMinifier != nil {
			minified, err := pl.CSSMinifier.Process(bundled, map[string]string{"kind": "css"})
			if err != nil {
				// Minifier failure degrades to the unminified bundle.
				return pl.finish(a, bundled, true), nil
			}
			bundled = minified
		}
		return pl.finish(a, bundled, true), nil

	default:
		data, err := os.ReadFile(a.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("reading asset %s: %w", a.RelPath, err)
		}
		if pl.JSMinifier != nil && strings.HasSuffix(a.RelPath, ".js") {
			if minified, err := pl.JSMinifier.Process(data, map[string]string{"kind": "js"}); err == nil {
				data = minified
			}
		}
		fingerprint := pl.FingerprintExts[strings.ToLower(filepath.Ext(a.RelPath))]
		return pl.finish(a, data, fingerprint), nil
	}
}

// finish assigns fingerprint and output path from the final bytes.
func (pl *Pipeline) finish(a *Asset, data []byte, fingerprint bool) []byte {
	if fingerprint {
		a.Fingerprint = cache.HashBytes(data)[:8]
		ext := filepath.Ext(a.RelPath)
		stem := strings.TrimSuffix(a.RelPath, ext)
		a.OutputPath = "assets/" + stem + "." + a.Fingerprint + ext
	} else {
		a.OutputPath = "assets/" + a.RelPath
	}
	return data
}

// URLMap returns logical asset path → final URL, for the asset_url helper.
func URLMap(assets []*Asset, baseURL string) map[string]string {
	base := strings.TrimRight(baseURL, "/")
	m := map[string]string{}
	for _, a := range assets {
		if a.OutputPath == "" {
			continue
		}
		m[a.RelPath] = base + "/" + a.OutputPath
	}
	return m
}
