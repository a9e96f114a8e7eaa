package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Error is a structured template failure with enough context for the build's
// error table: template name, line, message, and a suggestion when the
// message matches a known pattern.
type Error struct {
	Template   string
	Line       int
	Message    string
	Locals     []string
	Suggestion string
}

func (e *Error) Error() string {
	loc := e.Template
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Template, e.Line)
	}
	msg := fmt.Sprintf("%s: %s", loc, e.Message)
	if e.Suggestion != "" {
		msg += " (" + e.Suggestion + ")"
	}
	return msg
}

// Exec errors look like:
//
//	template: blog/single.html:12:8: executing "blog/single.html" at <.Page.Missing>: ...
var execErrRe = regexp.MustCompile(`template: ([^:]+):(\d+)(?::\d+)?: (.*)`)

var (
	missingKeyRe   = regexp.MustCompile(`map has no entry for key "([^"]+)"`)
	missingFieldRe = regexp.MustCompile(`can't evaluate field (\w+) in type`)
	noFunctionRe   = regexp.MustCompile(`function "(\w+)" not defined`)
)

// translateExecError converts an html/template execution error into an
// *Error carrying line info and a suggestion for recognized patterns.
func translateExecError(err error, name string, locals []string) error {
	te := &Error{Template: name, Message: err.Error(), Locals: locals}

	if m := execErrRe.FindStringSubmatch(err.Error()); m != nil {
		te.Template = m[1]
		if line, convErr := strconv.Atoi(m[2]); convErr == nil {
			te.Line = line
		}
		te.Message = m[3]
	}

	switch {
	case missingKeyRe.MatchString(te.Message):
		key := missingKeyRe.FindStringSubmatch(te.Message)[1]
		te.Suggestion = fmt.Sprintf("use (get . %q \"\") for optional keys", key)
	case missingFieldRe.MatchString(te.Message):
		field := missingFieldRe.FindStringSubmatch(te.Message)[1]
		if best := nearestName(field, locals); best != "" {
			te.Suggestion = fmt.Sprintf("no field %q; did you mean .%s?", field, best)
		}
	case noFunctionRe.MatchString(te.Message):
		fn := noFunctionRe.FindStringSubmatch(te.Message)[1]
		if best := nearestName(fn, funcNames()); best != "" {
			te.Suggestion = fmt.Sprintf("unknown function %q; did you mean %q?", fn, best)
		}
	}
	return te
}

// translateParseError converts a template compile error.
func translateParseError(err error, name string) error {
	te := &Error{Template: name, Message: err.Error()}
	if m := execErrRe.FindStringSubmatch(err.Error()); m != nil {
		if line, convErr := strconv.Atoi(m[2]); convErr == nil {
			te.Line = line
		}
		te.Message = m[3]
	}
	if m := noFunctionRe.FindStringSubmatch(te.Message); m != nil {
		if best := nearestName(m[1], funcNames()); best != "" {
			te.Suggestion = fmt.Sprintf("unknown function %q; did you mean %q?", m[1], best)
		}
	}
	return te
}

// nearestName returns the candidate with the smallest edit distance to name,
// or "" when nothing is close enough to be a plausible typo.
func nearestName(name string, candidates []string) string {
	best := ""
	bestDist := len(name)/2 + 1 // anything further is not a typo
	lower := strings.ToLower(name)
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(c))
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}
