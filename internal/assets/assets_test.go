package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeAssets(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return dir
}

func findAsset(assets []*Asset, rel string) *Asset {
	for _, a := range assets {
		if a.RelPath == rel {
			return a
		}
	}
	return nil
}

func TestDiscoverClassification(t *testing.T) {
	dir := writeAssets(t, map[string]string{
		"css/style.css": "@import \"base.css\";\nbody { color: red; }\n",
		"css/base.css":  "* { margin: 0; }\n",
		"js/app.js":     "console.log(1);\n",
		"img/logo.png":  "pngbytes",
	})

	pl := NewPipeline(dir, "style.css", []string{".css", ".js"})
	assets, err := pl.Discover()
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(assets) != 4 {
		t.Fatalf("got %d assets, want 4", len(assets))
	}

	entry := findAsset(assets, "css/style.css")
	if entry == nil || entry.Class != ClassCSSEntry {
		t.Errorf("style.css class = %v, want css-entry", entry)
	}
	if len(entry.Deps) != 1 || entry.Deps[0] != "css/base.css" {
		t.Errorf("entry deps = %v, want [css/base.css]", entry.Deps)
	}
	if a := findAsset(assets, "css/base.css"); a.Class != ClassCSSModule {
		t.Errorf("base.css class = %v, want css-module", a.Class)
	}
	if a := findAsset(assets, "img/logo.png"); a.Class != ClassStatic {
		t.Errorf("logo.png class = %v, want static", a.Class)
	}
}

func TestProcessBundlesCSSEntry(t *testing.T) {
	dir := writeAssets(t, map[string]string{
		"style.css": "@import \"base.css\";\nbody { color: red; }\n",
		"base.css":  "* { margin: 0; }\n",
	})

	pl := NewPipeline(dir, "style.css", []string{".css"})
	assets, err := pl.Discover()
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	entry := findAsset(assets, "style.css")
	data, err := pl.Process(entry)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	out := string(data)

	// Import contents come first, @import line is gone.
	if strings.Contains(out, "@import") {
		t.Errorf("@import should be resolved away: %s", out)
	}
	if !strings.Contains(out, "margin: 0") || !strings.Contains(out, "color: red") {
		t.Errorf("bundle missing content: %s", out)
	}
	if strings.Index(out, "margin") > strings.Index(out, "color") {
		t.Errorf("imports must precede the importing file: %s", out)
	}

	if len(entry.Fingerprint) != 8 {
		t.Errorf("fingerprint = %q, want 8 hex chars", entry.Fingerprint)
	}
	want := "assets/style." + entry.Fingerprint + ".css"
	if entry.OutputPath != want {
		t.Errorf("OutputPath = %q, want %q", entry.OutputPath, want)
	}

	// The module itself produces no output.
	module := findAsset(assets, "base.css")
	if data, err := pl.Process(module); err != nil || data != nil {
		t.Errorf("module Process = %v, %v; want nil, nil", data, err)
	}
}

type upperProcessor struct{}

func (upperProcessor) Process(input []byte, _ map[string]string) ([]byte, error) {
	return []byte(strings.ToUpper(string(input))), nil
}

func TestProcessInvokesMinifier(t *testing.T) {
	dir := writeAssets(t, map[string]string{"style.css": "body { color: red; }\n"})

	pl := NewPipeline(dir, "style.css", []string{".css"})
	pl.CSSMinifier = upperProcessor{}
	assets, _ := pl.Discover()

	data, err := pl.Process(findAsset(assets, "style.css"))
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if !strings.Contains(string(data), "COLOR: RED") {
		t.Errorf("minifier not invoked: %s", data)
	}
}

func TestProcessStaticCopy(t *testing.T) {
	dir := writeAssets(t, map[string]string{"img/logo.png": "pngbytes"})

	pl := NewPipeline(dir, "style.css", []string{".css", ".js"})
	assets, _ := pl.Discover()
	logo := findAsset(assets, "img/logo.png")

	data, err := pl.Process(logo)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if string(data) != "pngbytes" {
		t.Errorf("static asset should copy verbatim")
	}
	if logo.OutputPath != "assets/img/logo.png" {
		t.Errorf("OutputPath = %q, non-fingerprinted extensions keep their name", logo.OutputPath)
	}
}

func TestURLMap(t *testing.T) {
	assets := []*Asset{
		{RelPath: "css/style.css", OutputPath: "assets/css/style.deadbeef.css"},
		{RelPath: "css/base.css"}, // module: no output
	}
	m := URLMap(assets, "/")
	if m["css/style.css"] != "/assets/css/style.deadbeef.css" {
		t.Errorf("URLMap = %v", m)
	}
	if _, ok := m["css/base.css"]; ok {
		t.Error("modules must not appear in the URL map")
	}
}
