// Package build drives the Bengal pipeline: discovery, cascade resolution,
// cross-reference indexing, taxonomy and menu materialization, incremental
// work filtering, parallel rendering, asset processing, post-processing,
// cache persistence, and health validation.
package build

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bengal-ssg/bengal/internal/assets"
	"github.com/bengal-ssg/bengal/internal/cache"
	"github.com/bengal-ssg/bengal/internal/config"
	"github.com/bengal-ssg/bengal/internal/content"
	"github.com/bengal-ssg/bengal/internal/health"
	"github.com/bengal-ssg/bengal/internal/markdown"
)

// StrictError marks failures that should exit with code 2 (strict-mode
// render aborts and strict health failures) rather than 1.
type StrictError struct{ Err error }

func (e *StrictError) Error() string { return e.Err.Error() }
func (e *StrictError) Unwrap() error { return e.Err }

// IsStrictFailure reports whether err is a strict-mode validation failure.
func IsStrictFailure(err error) bool {
	var se *StrictError
	return errors.As(err, &se)
}

// Options controls one build invocation.
type Options struct {
	Incremental bool
	Parallel    bool
	Strict      bool
	Drafts      bool
	Profile     string
	OutputDir   string
	ProjectRoot string
}

// Builder coordinates the full pipeline.
type Builder struct {
	cfg  *config.Config
	opts Options
	log  *zap.Logger

	newCache  *cache.Cache
	dataFiles []string // project-relative data file paths
}

// New creates a Builder. A nil logger disables logging.
func New(cfg *config.Config, opts Options, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Profile == "" {
		opts.Profile = cfg.Health.Profile
	}
	return &Builder{cfg: cfg, opts: opts, log: log}
}

func (b *Builder) strict() bool { return b.opts.Strict || b.cfg.StrictMode }

func (b *Builder) projectRoot() string {
	if b.opts.ProjectRoot != "" {
		return b.opts.ProjectRoot
	}
	return "."
}

func (b *Builder) contentDir() string { return filepath.Join(b.projectRoot(), b.cfg.ContentDir) }
func (b *Builder) assetsDir() string  { return filepath.Join(b.projectRoot(), b.cfg.AssetsDir) }
func (b *Builder) dataDir() string    { return filepath.Join(b.projectRoot(), b.cfg.DataDir) }

func (b *Builder) outputDir() string {
	if b.opts.OutputDir != "" {
		return b.opts.OutputDir
	}
	return filepath.Join(b.projectRoot(), b.cfg.OutputDir)
}

func (b *Builder) themeLayoutDir() string {
	return filepath.Join(b.projectRoot(), "themes", b.cfg.Theme, "layouts")
}

func (b *Builder) userLayoutDir() string {
	return filepath.Join(b.projectRoot(), "layouts")
}

func (b *Builder) cachePath() string {
	dir := b.cfg.Cache.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(b.projectRoot(), dir)
	}
	return filepath.Join(dir, cache.FileName)
}

// pageFile maps a page to its project-relative source path; "" for virtual
// pages.
func (b *Builder) pageFile(p *content.Page) string {
	if p.Virtual {
		return ""
	}
	return path.Join(filepath.ToSlash(b.cfg.ContentDir), p.SourcePath)
}

// assetFile maps an assets-dir-relative path to a project-relative path.
func (b *Builder) assetFile(rel string) string {
	return path.Join(filepath.ToSlash(b.cfg.AssetsDir), rel)
}

// relPath normalizes a filesystem path to the project-relative slash form
// used as cache keys.
func (b *Builder) relPath(p string) string {
	if rel, err := filepath.Rel(b.projectRoot(), filepath.FromSlash(p)); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(p)
}

// Build runs the phase pipeline and returns build statistics. The returned
// error, when non-nil, is the fatal that stopped the build; recoverable
// errors accumulate in the stats instead.
func (b *Builder) Build() (*Stats, error) {
	start := time.Now()
	stats := &Stats{}
	defer func() { stats.Duration = time.Since(start) }()

	// Phase 1: initialization.
	phaseStart := time.Now()
	configHash := b.cfg.Hash()
	b.newCache = cache.New()
	b.newCache.ConfigHash = configHash

	prior := cache.New()
	useCache := b.opts.Incremental && b.cfg.Cache.Enabled
	if useCache {
		var err error
		prior, err = cache.Load(b.cachePath())
		if err != nil {
			stats.AddWarning(fmt.Sprintf("build cache: %v (full rebuild)", err))
			b.log.Warn("build cache discarded", zap.Error(err))
		}
	}
	stats.recordPhase("init", phaseStart)

	// Phase 2: discovery.
	phaseStart = time.Now()
	site := content.NewSite(b.cfg)
	discovered, err := content.Discover(b.contentDir(), content.DiscoverOptions{IncludeDrafts: b.opts.Drafts})
	if err != nil {
		return stats, fmt.Errorf("discovering content: %w", err)
	}
	for _, warn := range discovered.Warnings {
		stats.AddWarning(warn)
	}
	site.Root = discovered.Root
	site.Pages = discovered.Pages
	for _, p := range site.Pages {
		p.Site = site
	}
	stats.PagesDiscovered = len(site.Pages)

	data, dataFiles, err := content.LoadDataFiles(b.dataDir())
	if err != nil {
		return stats, fmt.Errorf("loading data files: %w", err)
	}
	site.Data = data
	b.dataFiles = b.dataFiles[:0]
	for _, f := range dataFiles {
		if rel, err := filepath.Rel(b.projectRoot(), filepath.FromSlash(f)); err == nil {
			b.dataFiles = append(b.dataFiles, filepath.ToSlash(rel))
		}
	}
	stats.recordPhase("discovery", phaseStart)

	// Phase 3: cascade.
	phaseStart = time.Now()
	snapshot, err := content.BuildCascadeSnapshot(site.Root)
	if err != nil {
		return stats, fmt.Errorf("building cascade: %w", err)
	}
	content.ApplyCascade(site.Pages, snapshot)
	stats.recordPhase("cascade", phaseStart)

	// Phase 4: cross-reference index over the source pages.
	phaseStart = time.Now()
	site.XRef, err = content.BuildXRefIndex(site.Pages)
	if err != nil {
		return stats, fmt.Errorf("building cross-reference index: %w", err)
	}
	stats.recordPhase("xref", phaseStart)

	// Phase 5: section finalization.
	phaseStart = time.Now()
	b.finalizeSections(site)
	stats.recordPhase("sections", phaseStart)

	// Phase 6: taxonomies and dynamic pages.
	phaseStart = time.Now()
	for _, kind := range b.cfg.Taxonomies {
		if sec := site.Root.Lookup(kind); sec != nil {
			return stats, fmt.Errorf("content section %q collides with the %q taxonomy output path", sec.Path, kind)
		}
	}
	site.Taxonomies = content.CollectTaxonomies(site.Pages, b.cfg.Taxonomies)
	taxPages := content.GenerateTaxonomyPages(site.Taxonomies, b.cfg.Pagination.PerPage, site.Strategies)
	for _, p := range taxPages {
		p.Site = site
	}
	site.Pages = append(site.Pages, taxPages...)

	// Re-index so generated pages resolve under their virtual paths. Still
	// strictly before rendering: no reference resolves against a partial
	// index.
	site.XRef, err = content.BuildXRefIndex(site.Pages)
	if err != nil {
		return stats, fmt.Errorf("building cross-reference index: %w", err)
	}
	stats.recordPhase("taxonomies", phaseStart)

	// Phase 7: menus.
	phaseStart = time.Now()
	menus, menuWarnings := content.BuildMenus(b.cfg.Menu, site.Pages)
	site.Menus = menus
	for _, warn := range menuWarnings {
		stats.AddWarning(warn)
	}
	stats.recordPhase("menus", phaseStart)

	// Phase 8: output path assignment, before rendering so page.url works
	// inside templates.
	phaseStart = time.Now()
	for _, p := range site.Pages {
		p.AssignOutputPath(b.cfg.PrettyURLs)
	}
	stats.recordPhase("paths", phaseStart)

	// Phase 9: hash inventory and incremental work filter.
	phaseStart = time.Now()
	hashes, err := b.hashInventory()
	if err != nil {
		return stats, fmt.Errorf("hashing inputs: %w", err)
	}
	b.newCache.FileHashes = hashes
	taxSources := site.Taxonomies.TaxonomySources()
	b.newCache.TaxonomySources = taxSources

	pipeline := assets.NewPipeline(b.assetsDir(), b.cfg.Assets.CSSEntry, b.cfg.Assets.FingerprintExts)
	assetList, err := pipeline.Discover()
	if err != nil {
		return stats, fmt.Errorf("discovering assets: %w", err)
	}
	assetPaths := make([]string, 0, len(assetList))
	for _, a := range assetList {
		assetPaths = append(assetPaths, b.assetFile(a.RelPath))
	}

	pagesToRender := site.Pages
	assetsToProcess := map[string]bool{}
	for _, p := range assetPaths {
		assetsToProcess[p] = true
	}

	if useCache {
		// Carry forward edges for pages this build will not touch.
		for key, deps := range prior.PageDeps {
			b.newCache.PageDeps[key] = deps
		}
		filter := cache.NewWorkFilter(prior, hashes, configHash)
		if filter.NoChanges() {
			b.log.Info("no changes detected")
			stats.Skipped = true
			stats.recordPhase("filter", phaseStart)
			b.saveCache(stats)
			return b.healthCheck(site, stats, prior, 0)
		}
		pagesToRender = filter.PagesToRender(site, b.pageFile, taxSources)
		assetsToProcess = map[string]bool{}
		for _, p := range filter.AssetsToProcess(assetPaths) {
			assetsToProcess[p] = true
		}
		b.log.Info("incremental filter",
			zap.Int("pages", len(pagesToRender)),
			zap.Int("assets", len(assetsToProcess)),
			zap.Strings("changed", filter.ChangedPaths()))
	}
	stats.recordPhase("filter", phaseStart)

	writer := NewWriter(b.outputDir())

	// Phase 10a: asset processing. Runs ahead of page rendering because the
	// asset_url helper needs final fingerprinted names.
	phaseStart = time.Now()
	if err := b.processAssets(pipeline, assetList, assetsToProcess, writer, stats); err != nil {
		return stats, err
	}
	urlMap := assets.URLMap(assetList, b.cfg.BaseURL)
	stats.recordPhase("assets", phaseStart)

	// Phase 10b: parallel rendering.
	phaseStart = time.Now()
	if err := b.renderPages(site, pagesToRender, writer, urlMap, stats); err != nil {
		// Hashes computed from unchanged files stay useful across a broken
		// build, so the cache still saves.
		b.saveCache(stats)
		if re, ok := err.(*RenderError); ok && !re.Fatal {
			return stats, &StrictError{Err: err}
		}
		return stats, err
	}
	stats.recordPhase("render", phaseStart)

	// Phase 12: post-processing.
	phaseStart = time.Now()
	if err := b.postProcess(site, writer, stats); err != nil {
		b.saveCache(stats)
		return stats, err
	}
	stats.recordPhase("postprocess", phaseStart)

	// Phase 13: cache persistence.
	phaseStart = time.Now()
	b.saveCache(stats)
	stats.recordPhase("cache", phaseStart)

	stats.FilesWritten = writer.Writes()
	stats.Duration = time.Since(start)
	b.appendMetrics(stats)

	// Phase 14: health validation.
	return b.healthCheck(site, stats, b.newCache, len(pagesToRender))
}

// finalizeSections guarantees every section (the root included) has an index
// page, generating archive indexes where the author wrote none, and computes
// each index's display posts with the section strategy.
func (b *Builder) finalizeSections(site *content.Site) {
	site.Root.Walk(func(sec *content.Section) {
		strategy := site.Strategies.ForSection(sec)

		if sec.Index == nil {
			url := "/"
			title := b.cfg.Title
			if !sec.IsRoot() {
				url = "/" + sec.Path + "/"
				title = strings.ToUpper(sec.Name[:1]) + sec.Name[1:]
			}
			if title == "" {
				title = "Home"
			}
			idx := &content.Page{
				SourcePath: strings.TrimPrefix(url, "/") + "index.html",
				Title:      title,
				Generated:  true,
				Virtual:    true,
				URL:        url,
				Section:    sec,
				Site:       site,
				Metadata: map[string]any{
					"title":      title,
					"_generated": true,
					"_virtual":   true,
				},
			}
			sec.Index = idx
			site.Pages = append(site.Pages, idx)
		}

		members := strategy.FilterDisplayPages(sec.Pages, sec.Index)
		members = append([]*content.Page(nil), members...)
		strategy.SortPages(members)
		sec.Index.Posts = members
	})
}

// processAssets runs every asset through the pipeline to learn its final
// name, writing only the ones the work filter selected. Assets fan out on
// their own bounded worker group.
func (b *Builder) processAssets(pipeline *assets.Pipeline, assetList []*assets.Asset, toWrite map[string]bool, writer *Writer, stats *Stats) error {
	var g errgroup.Group
	g.SetLimit(b.cfg.MaxWorkers)

	var depsMu sync.Mutex
	for _, a := range assetList {
		a := a
		g.Go(func() error {
			data, err := pipeline.Process(a)
			if err != nil {
				return fmt.Errorf("processing asset %s: %w", a.RelPath, err)
			}
			if data == nil {
				return nil // CSS modules fold into their entry
			}

			deps := make([]string, 0, len(a.Deps))
			for _, dep := range a.Deps {
				deps = append(deps, b.assetFile(dep))
			}
			depsMu.Lock()
			b.newCache.SetPageDeps("asset:"+b.assetFile(a.RelPath), deps)
			depsMu.Unlock()

			if !toWrite[b.assetFile(a.RelPath)] {
				return nil
			}
			if err := writer.WriteFile(a.OutputPath, data); err != nil {
				return err
			}
			stats.AssetsProcessed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Syntax highlighting stylesheet for class-based chroma output.
	light, dark, err := markdown.GenerateChromaCSS(b.cfg.Highlight.Style, b.cfg.Highlight.DarkStyle)
	if err == nil {
		if err := writer.WriteFile("assets/css/syntax.css", []byte(light+"\n"+dark)); err != nil {
			return err
		}
	}
	return nil
}

// postProcess emits the site-wide artifacts: sitemap, robots.txt, feeds,
// search indexes, the 404 page, and alias redirects.
func (b *Builder) postProcess(site *content.Site, writer *Writer, stats *Stats) error {
	if err := b.writeSitemap(site, writer); err != nil {
		return err
	}
	if err := b.writeFeeds(site, writer); err != nil {
		return err
	}
	if err := b.writeSearchIndexes(site, writer); err != nil {
		return err
	}
	if err := b.writeNotFound(site, writer, stats); err != nil {
		return err
	}

	var aliases []aliasPage
	for _, p := range site.Pages {
		for _, alias := range p.Aliases {
			aliases = append(aliases, aliasPage{aliasURL: alias, canonicalURL: p.URL})
		}
	}
	for rel, data := range generateAliasFiles(aliases) {
		if err := writer.WriteFile(rel, data); err != nil {
			return err
		}
	}
	return nil
}

// saveCache persists the build cache; failures degrade to warnings because
// a missing cache only costs the next build a full rebuild.
func (b *Builder) saveCache(stats *Stats) {
	if !b.cfg.Cache.Enabled {
		return
	}
	if err := b.newCache.Save(b.cachePath()); err != nil {
		stats.AddWarning(fmt.Sprintf("saving build cache: %v", err))
		b.log.Warn("saving build cache", zap.Error(err))
	}
}

// healthCheck runs the validators for the active profile. Errors escalate to
// a strict failure when health.strict (or build strict mode) is on.
func (b *Builder) healthCheck(site *content.Site, stats *Stats, c *cache.Cache, expected int) (*Stats, error) {
	directiveCounts := map[string]int{}
	for _, p := range site.Pages {
		if n := strings.Count(p.Source, "```{"); n > 0 {
			directiveCounts[p.Key()] = n
		}
	}

	ctx := &health.Context{
		Config:          b.cfg,
		Site:            site,
		Cache:           c,
		OutputDir:       b.outputDir(),
		PagesExpected:   expected,
		PagesRendered:   int(stats.PagesRendered.Load()),
		RenderErrors:    len(stats.Errors()),
		Duration:        stats.Duration,
		DirectiveCounts: directiveCounts,
	}

	results := health.NewRegistry().Run(b.opts.Profile, ctx)
	stats.Health = results

	if health.HasErrors(results) && (b.cfg.Health.Strict || b.strict()) {
		return stats, &StrictError{Err: fmt.Errorf("health check failed with %d error(s)", health.Count(results, health.SeverityError))}
	}
	return stats, nil
}

// hashInventory hashes every input file the cache tracks: content, theme and
// user layouts, data files, and assets, keyed by project-relative path.
func (b *Builder) hashInventory() (map[string]string, error) {
	hashes := map[string]string{}
	roots := []string{
		b.contentDir(),
		b.themeLayoutDir(),
		b.userLayoutDir(),
		b.dataDir(),
		b.assetsDir(),
	}
	for _, root := range roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			hash, err := cache.HashFile(p)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(b.projectRoot(), p)
			if err != nil {
				return err
			}
			hashes[filepath.ToSlash(rel)] = hash
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return hashes, nil
}

