package health

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bengal-ssg/bengal/internal/config"
	"github.com/bengal-ssg/bengal/internal/content"
)

func healthContext(t *testing.T) *Context {
	t.Helper()
	cfg := config.Default()
	cfg.Title = "Site"
	outputDir := t.TempDir()
	for _, name := range []string{"index.html", "404.html"} {
		if err := os.WriteFile(filepath.Join(outputDir, name), []byte("<html></html>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	site := content.NewSite(cfg)
	return &Context{
		Config:        cfg,
		Site:          site,
		OutputDir:     outputDir,
		PagesExpected: 0,
		PagesRendered: 0,
	}
}

func TestRunCleanBuild(t *testing.T) {
	ctx := healthContext(t)
	results := NewRegistry().Run(config.ProfileWriter, ctx)
	if HasErrors(results) {
		t.Errorf("clean build should have no errors: %+v", results)
	}
}

func TestProfileFiltering(t *testing.T) {
	ctx := healthContext(t)
	// Directive-heavy page triggers only under theme-dev and dev.
	ctx.DirectiveCounts = map[string]int{"docs/big.md": 15}

	writer := NewRegistry().Run(config.ProfileWriter, ctx)
	for _, r := range writer {
		if r.Category == "directives" {
			t.Error("directives validator must not run under writer profile")
		}
	}

	themeDev := NewRegistry().Run(config.ProfileThemeDev, ctx)
	found := false
	for _, r := range themeDev {
		if r.Category == "directives" {
			found = true
		}
	}
	if !found {
		t.Error("directives validator should run under theme-dev profile")
	}
}

func TestRenderingValidator(t *testing.T) {
	ctx := healthContext(t)
	ctx.RenderErrors = 2
	results := NewRegistry().Run(config.ProfileWriter, ctx)
	if !HasErrors(results) {
		t.Error("render errors should produce an error result")
	}
}

func TestLinksValidator(t *testing.T) {
	ctx := healthContext(t)
	good := &content.Page{SourcePath: "a.md", URL: "/a/"}
	bad := &content.Page{
		SourcePath: "b.md",
		URL:        "/b/",
		Links: []content.Link{
			{Href: "/a/", Internal: true},
			{Href: "/missing/", Internal: true},
			{Href: "https://example.com/x", Internal: false},
		},
	}
	ctx.Site.Pages = []*content.Page{good, bad}

	results := (&linksValidator{}).Validate(ctx)
	if len(results) != 1 {
		t.Fatalf("results = %+v, want exactly the broken internal link", results)
	}
	if results[0].Severity != SeverityError {
		t.Errorf("broken link severity = %v", results[0].Severity)
	}
}

func TestNavigationValidator(t *testing.T) {
	ctx := healthContext(t)
	ctx.Site.Pages = []*content.Page{{URL: "/docs/"}}
	ctx.Site.Menus = map[string][]*content.MenuNode{
		"main": {
			{Name: "Docs", URL: "/docs/"},
			{Name: "Ghost", URL: "/ghost/"},
		},
	}

	results := (&navigationValidator{}).Validate(ctx)
	if len(results) != 1 {
		t.Fatalf("results = %+v, want one warning for /ghost/", results)
	}
}

func TestValidatorTimeout(t *testing.T) {
	reg := NewRegistry()
	reg.timeout = 10 * time.Millisecond
	reg.Register(&slowValidator{})

	results := reg.Run(config.ProfileWriter, healthContext(t))
	found := false
	for _, r := range results {
		if r.Category == "slow" && r.Severity == SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Errorf("timed-out validator should contribute a warning: %+v", results)
	}
}

type slowValidator struct{}

func (*slowValidator) Name() string       { return "slow" }
func (*slowValidator) Profiles() []string { return allProfiles }
func (*slowValidator) Validate(*Context) []Result {
	time.Sleep(time.Second)
	return nil
}
