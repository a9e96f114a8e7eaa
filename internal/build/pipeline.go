package build

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bengal-ssg/bengal/internal/content"
	"github.com/bengal-ssg/bengal/internal/markdown"
	tmpl "github.com/bengal-ssg/bengal/internal/template"
)

// worker holds the thread-local render state: its own template engine and
// markdown renderer, reset between pages. Workers share only the Site
// (read-only during rendering), the Writer, and the dependency sink.
type worker struct {
	b        *Builder
	site     *content.Site
	engine   *tmpl.Engine
	renderer *markdown.Renderer
	writer   *Writer
	urlMap   map[string]string

	// Per-page dependency edges, reset before each page.
	deps []string
}

// newWorker builds a worker with fresh engine and renderer instances.
func (b *Builder) newWorker(site *content.Site, writer *Writer, urlMap map[string]string) (*worker, error) {
	engine, err := tmpl.NewEngine(b.themeLayoutDir(), b.userLayoutDir(), tmpl.Options{
		Strict:  b.strict(),
		BaseURL: b.cfg.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	w := &worker{
		b:      b,
		site:   site,
		engine: engine,
		writer: writer,
		urlMap: urlMap,
	}
	w.renderer = markdown.NewRenderer(markdown.Options{
		HighlightStyle: b.cfg.Highlight.Style,
		Resolver:       w,
	})
	engine.SetHooks(tmpl.Hooks{
		Ref:      w.ResolveRef,
		AssetURL: w.assetURL,
		RecordDep: func(path string) {
			w.deps = append(w.deps, path)
		},
	})
	return w, nil
}

// resetPage wipes the worker's per-page state.
func (w *worker) resetPage() {
	w.deps = w.deps[:0]
	w.renderer.Reset()
}

// ResolveRef implements markdown.RefResolver against the site index,
// recording the target's source file as a dependency edge.
func (w *worker) ResolveRef(ref, label string) (string, string, bool) {
	page, text, ok := w.site.XRef.Resolve(ref, label)
	if !ok {
		return "", "", false
	}
	if !page.Virtual {
		w.deps = append(w.deps, w.b.pageFile(page))
	}
	return page.URL, text, true
}

// assetURL maps a logical asset path to its fingerprinted URL, recording
// the dependency.
func (w *worker) assetURL(path string) string {
	if url, ok := w.urlMap[path]; ok {
		w.deps = append(w.deps, w.b.assetFile(path))
		return url
	}
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return path
}

// renderPages runs the selected pages through the worker pool. The job
// queue is bounded at 4x the worker count so rendered output never piles up
// unboundedly. Workers never stop draining the queue — on a fatal they set
// the abort flag and skip remaining pages — so the producer cannot wedge on
// a full queue. Falls back to a single worker for tiny batches where pool
// overhead dominates. Returns the first fatal error.
func (b *Builder) renderPages(site *content.Site, pages []*content.Page, writer *Writer, urlMap map[string]string, stats *Stats) error {
	if len(pages) == 0 {
		return nil
	}

	workers := b.cfg.MaxWorkers
	if !b.opts.Parallel || len(pages) <= 1 {
		workers = 1
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(pages) {
		workers = len(pages)
	}

	// Engines parse the full layout tree; build them before any page runs
	// so a broken template fails the build once, not once per worker.
	pool := make([]*worker, workers)
	for i := range pool {
		w, err := b.newWorker(site, writer, urlMap)
		if err != nil {
			return fmt.Errorf("creating render worker: %w", err)
		}
		pool[i] = w
	}

	jobs := make(chan *content.Page, workers*4)
	var abort atomic.Bool
	var once sync.Once
	var firstErr error

	var depsMu sync.Mutex
	newDeps := map[string][]string{}

	var wg sync.WaitGroup
	for _, w := range pool {
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			for page := range jobs {
				if abort.Load() {
					continue
				}
				w.resetPage()
				renderErr := w.renderPage(page, stats)
				if renderErr == nil {
					stats.PagesRendered.Add(1)
					depsMu.Lock()
					newDeps[page.Key()] = append([]string(nil), w.deps...)
					depsMu.Unlock()
					continue
				}

				stats.AddError(renderErr)
				if renderErr.Fatal || (b.strict() && fatalInStrict(renderErr.Kind)) {
					once.Do(func() { firstErr = renderErr })
					abort.Store(true)
				}
			}
		}(w)
	}

	for _, p := range pages {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	// Publish the recorded edges even when the build aborted: hashes and
	// edges from completed pages stay valid.
	for key, deps := range newDeps {
		b.newCache.SetPageDeps(key, deps)
	}
	return firstErr
}
