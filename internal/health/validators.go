package health

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bengal-ssg/bengal/internal/cache"
	"github.com/bengal-ssg/bengal/internal/config"
	"github.com/bengal-ssg/bengal/internal/content"
)

// Context carries everything the validators inspect.
type Context struct {
	Config          *config.Config
	Site            *content.Site
	Cache           *cache.Cache
	OutputDir       string
	PagesExpected   int
	PagesRendered   int
	RenderErrors    int
	Duration        time.Duration
	DirectiveCounts map[string]int // page key -> directive count
}

var (
	allProfiles      = []string{config.ProfileWriter, config.ProfileThemeDev, config.ProfileDev}
	themeDevProfiles = []string{config.ProfileThemeDev, config.ProfileDev}
	devProfiles      = []string{config.ProfileDev}
)

// configValidator sanity-checks the effective configuration.
type configValidator struct{}

func (*configValidator) Name() string        { return "configuration" }
func (*configValidator) Profiles() []string  { return allProfiles }

func (*configValidator) Validate(ctx *Context) []Result {
	var out []Result
	if ctx.Config == nil {
		return []Result{{Severity: SeverityError, Category: "configuration", Message: "no configuration loaded"}}
	}
	if strings.TrimSpace(ctx.Config.Title) == "" {
		out = append(out, Result{
			Severity:   SeverityWarning,
			Category:   "configuration",
			Message:    "site title is empty",
			Suggestion: "set title in bengal.toml",
		})
	}
	if !strings.HasSuffix(ctx.Config.BaseURL, "/") {
		out = append(out, Result{
			Severity:   SeverityWarning,
			Category:   "configuration",
			Message:    fmt.Sprintf("baseurl %q has no trailing slash", ctx.Config.BaseURL),
			Suggestion: "generated links join cleaner with a trailing slash",
		})
	}
	return out
}

// outputValidator confirms the output tree exists and has its entry points.
type outputValidator struct{}

func (*outputValidator) Name() string       { return "output" }
func (*outputValidator) Profiles() []string { return allProfiles }

func (*outputValidator) Validate(ctx *Context) []Result {
	var out []Result
	if _, err := os.Stat(ctx.OutputDir); err != nil {
		return []Result{{Severity: SeverityError, Category: "output", Message: fmt.Sprintf("output directory missing: %v", err)}}
	}
	for _, name := range []string{"index.html", "404.html"} {
		if _, err := os.Stat(filepath.Join(ctx.OutputDir, name)); err != nil {
			out = append(out, Result{
				Severity: SeverityWarning,
				Category: "output",
				Message:  fmt.Sprintf("%s not present in output", name),
			})
		}
	}
	return out
}

// renderingValidator compares rendered counts against expectations.
type renderingValidator struct{}

func (*renderingValidator) Name() string       { return "rendering" }
func (*renderingValidator) Profiles() []string { return allProfiles }

func (*renderingValidator) Validate(ctx *Context) []Result {
	var out []Result
	if ctx.RenderErrors > 0 {
		out = append(out, Result{
			Severity: SeverityError,
			Category: "rendering",
			Message:  fmt.Sprintf("%d page(s) failed to render", ctx.RenderErrors),
		})
	}
	if ctx.PagesRendered < ctx.PagesExpected {
		out = append(out, Result{
			Severity: SeverityWarning,
			Category: "rendering",
			Message:  fmt.Sprintf("rendered %d of %d expected pages", ctx.PagesRendered, ctx.PagesExpected),
		})
	}
	return out
}

// directivesValidator flags directive-heavy pages, a theme-dev smell.
type directivesValidator struct{}

func (*directivesValidator) Name() string       { return "directives" }
func (*directivesValidator) Profiles() []string { return themeDevProfiles }

func (*directivesValidator) Validate(ctx *Context) []Result {
	var out []Result
	for key, count := range ctx.DirectiveCounts {
		if count > 10 {
			out = append(out, Result{
				Severity:   SeverityWarning,
				Category:   "directives",
				Message:    fmt.Sprintf("%s uses %d directives", key, count),
				Suggestion: "consider splitting the page or promoting repeated patterns into the theme",
			})
		}
	}
	return out
}

// navigationValidator checks menu entries against the page URL set.
type navigationValidator struct{}

func (*navigationValidator) Name() string       { return "navigation" }
func (*navigationValidator) Profiles() []string { return themeDevProfiles }

func (*navigationValidator) Validate(ctx *Context) []Result {
	if ctx.Site == nil {
		return nil
	}
	urls := pageURLSet(ctx.Site)
	var out []Result
	for menuName, nodes := range ctx.Site.Menus {
		var walk func([]*content.MenuNode)
		walk = func(level []*content.MenuNode) {
			for _, n := range level {
				if strings.HasPrefix(n.URL, "/") && !urls[n.URL] {
					out = append(out, Result{
						Severity: SeverityWarning,
						Category: "navigation",
						Message:  fmt.Sprintf("menu %q entry %q points at %s, which no page provides", menuName, n.Name, n.URL),
					})
				}
				walk(n.Children)
			}
		}
		walk(nodes)
	}
	return out
}

// linksValidator reports broken internal links extracted during rendering.
type linksValidator struct{}

func (*linksValidator) Name() string       { return "links" }
func (*linksValidator) Profiles() []string { return allProfiles }

func (*linksValidator) Validate(ctx *Context) []Result {
	if ctx.Site == nil {
		return nil
	}
	urls := pageURLSet(ctx.Site)
	var out []Result
	for _, p := range ctx.Site.Pages {
		for _, link := range p.Links {
			if !link.Internal {
				continue
			}
			href := link.Href
			if i := strings.IndexAny(href, "#?"); i >= 0 {
				href = href[:i]
			}
			if href == "" || urls[href] {
				continue
			}
			out = append(out, Result{
				Severity: SeverityError,
				Category: "links",
				Message:  fmt.Sprintf("%s links to %s, which does not exist", p.Key(), link.Href),
			})
		}
	}
	return out
}

// taxonomyValidator reports orphan terms.
type taxonomyValidator struct{}

func (*taxonomyValidator) Name() string       { return "taxonomies" }
func (*taxonomyValidator) Profiles() []string { return devProfiles }

func (*taxonomyValidator) Validate(ctx *Context) []Result {
	if ctx.Site == nil {
		return nil
	}
	var out []Result
	for kind, terms := range ctx.Site.Taxonomies {
		for slug, term := range terms {
			if len(term.Pages) == 0 {
				out = append(out, Result{
					Severity: SeverityWarning,
					Category: "taxonomies",
					Message:  fmt.Sprintf("term %s/%s has no pages", kind, slug),
				})
			}
		}
	}
	return out
}

// cacheValidator cross-checks cache integrity.
type cacheValidator struct{}

func (*cacheValidator) Name() string       { return "cache" }
func (*cacheValidator) Profiles() []string { return devProfiles }

func (*cacheValidator) Validate(ctx *Context) []Result {
	if ctx.Cache == nil {
		return nil
	}
	var out []Result
	if ctx.Cache.Version != cache.SchemaVersion {
		out = append(out, Result{
			Severity: SeverityWarning,
			Category: "cache",
			Message:  fmt.Sprintf("cache schema %q does not match %q", ctx.Cache.Version, cache.SchemaVersion),
		})
	}
	for page, deps := range ctx.Cache.PageDeps {
		for _, dep := range deps {
			if _, tracked := ctx.Cache.FileHashes[dep]; !tracked {
				out = append(out, Result{
					Severity:   SeverityWarning,
					Category:   "cache",
					Message:    fmt.Sprintf("page %s depends on untracked file %s", page, dep),
					Suggestion: "a full rebuild will repair the dependency graph",
				})
			}
		}
	}
	return out
}

// performanceValidator enforces a soft build-time budget.
type performanceValidator struct{}

func (*performanceValidator) Name() string       { return "performance" }
func (*performanceValidator) Profiles() []string { return devProfiles }

func (*performanceValidator) Validate(ctx *Context) []Result {
	const budget = 30 * time.Second
	if ctx.Duration <= budget {
		return nil
	}
	return []Result{{
		Severity:   SeverityWarning,
		Category:   "performance",
		Message:    fmt.Sprintf("build took %s, over the %s budget", ctx.Duration.Round(time.Millisecond), budget),
		Suggestion: "run with --incremental to reuse the build cache",
	}}
}

func pageURLSet(site *content.Site) map[string]bool {
	urls := map[string]bool{}
	for _, p := range site.Pages {
		urls[p.URL] = true
		for _, alias := range p.Aliases {
			urls[alias] = true
		}
	}
	return urls
}
