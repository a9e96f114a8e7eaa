// Package health runs post-build validation sweeps. Validators are filtered
// by the configured profile (writer, theme-dev, dev) and produce leveled
// results; in strict health mode any error fails the build, but validators
// never block the cache save.
package health

import (
	"fmt"
	"time"
)

// Severity levels for validator results.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Result is one validator finding.
type Result struct {
	Severity   Severity
	Category   string
	Message    string
	Suggestion string
}

// Validator checks one aspect of a finished build.
type Validator interface {
	Name() string
	// Profiles lists the profiles this validator runs under.
	Profiles() []string
	Validate(ctx *Context) []Result
}

// Registry holds the configured validators.
type Registry struct {
	validators []Validator
	timeout    time.Duration
}

// NewRegistry returns a registry with the built-in validators.
func NewRegistry() *Registry {
	return &Registry{
		validators: []Validator{
			&configValidator{},
			&outputValidator{},
			&renderingValidator{},
			&directivesValidator{},
			&navigationValidator{},
			&linksValidator{},
			&taxonomyValidator{},
			&cacheValidator{},
			&performanceValidator{},
		},
		timeout: 5 * time.Second,
	}
}

// Register appends a custom validator.
func (r *Registry) Register(v Validator) {
	r.validators = append(r.validators, v)
}

// Run executes every validator enabled for the profile. A validator that
// exceeds the registry timeout contributes a warning instead of blocking.
func (r *Registry) Run(profile string, ctx *Context) []Result {
	var results []Result
	for _, v := range r.validators {
		if !enabledFor(v, profile) {
			continue
		}
		results = append(results, r.runOne(v, ctx)...)
	}
	return results
}

func (r *Registry) runOne(v Validator, ctx *Context) []Result {
	done := make(chan []Result, 1)
	go func() { done <- v.Validate(ctx) }()

	select {
	case res := <-done:
		return res
	case <-time.After(r.timeout):
		return []Result{{
			Severity: SeverityWarning,
			Category: v.Name(),
			Message:  fmt.Sprintf("validator %q timed out after %s", v.Name(), r.timeout),
		}}
	}
}

func enabledFor(v Validator, profile string) bool {
	for _, p := range v.Profiles() {
		if p == profile {
			return true
		}
	}
	return false
}

// HasErrors reports whether any result is error severity.
func HasErrors(results []Result) bool {
	for _, r := range results {
		if r.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns how many results have the given severity.
func Count(results []Result, s Severity) int {
	n := 0
	for _, r := range results {
		if r.Severity == s {
			n++
		}
	}
	return n
}
