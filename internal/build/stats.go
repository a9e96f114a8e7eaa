package build

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bengal-ssg/bengal/internal/health"
)

// PhaseTiming records how long one pipeline phase took.
type PhaseTiming struct {
	Name     string
	Duration time.Duration
}

// Stats summarizes a completed (or aborted) build. Counter fields are
// updated atomically by renderer workers; the error and warning lists are
// behind a mutex.
type Stats struct {
	PagesDiscovered int
	PagesRendered   atomic.Int64
	AssetsProcessed atomic.Int64
	FilesWritten    int64
	Skipped         bool // incremental build detected no changes
	Duration        time.Duration
	Phases          []PhaseTiming

	Health []health.Result

	mu       sync.Mutex
	errors   []*RenderError
	warnings []string
}

// AddError appends a per-page render error.
func (s *Stats) AddError(e *RenderError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, e)
}

// AddWarning appends a build warning.
func (s *Stats) AddWarning(w string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, w)
}

// Errors returns the accumulated render errors.
func (s *Stats) Errors() []*RenderError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*RenderError(nil), s.errors...)
}

// Warnings returns the accumulated warnings.
func (s *Stats) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warnings...)
}

// recordPhase appends a phase timing.
func (s *Stats) recordPhase(name string, start time.Time) {
	s.Phases = append(s.Phases, PhaseTiming{Name: name, Duration: time.Since(start)})
}
