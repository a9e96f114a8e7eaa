package content

import (
	"regexp"
	"strings"
)

// moreMarker delimits the summary portion of a page body.
const moreMarker = "<!--more-->"

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	firstParaRe = regexp.MustCompile(`(?s)<p[^>]*>(.*?)</p>`)
)

// DeriveSummary produces a page summary when frontmatter does not supply one.
// A <!--more--> marker in the source splits the rendered HTML; otherwise the
// first paragraph is used. The result is capped at maxLength characters of
// plain text (default 300).
func DeriveSummary(rawSource, renderedHTML string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 300
	}

	var summary string
	if strings.Contains(rawSource, moreMarker) {
		parts := strings.SplitN(renderedHTML, moreMarker, 2)
		summary = strings.TrimSpace(parts[0])
	} else if match := firstParaRe.FindString(renderedHTML); match != "" {
		summary = match
	}

	plain := StripHTML(summary)
	if len(plain) > maxLength {
		summary = "<p>" + TruncateAtWord(plain, maxLength) + "</p>"
	}
	return summary
}

// StripHTML removes tags, yielding plain text.
func StripHTML(s string) string {
	return htmlTagRe.ReplaceAllString(s, "")
}

// PlainText strips tags and normalizes whitespace, for search indexing.
func PlainText(html string) string {
	return strings.Join(strings.Fields(StripHTML(html)), " ")
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// ReadingTime estimates minutes at roughly 200 words per minute, at least 1
// for non-empty content.
func ReadingTime(s string) int {
	wc := WordCount(s)
	if wc == 0 {
		return 0
	}
	minutes := wc / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// TruncateAtWord truncates at the last space before maxLen, appending an
// ellipsis when truncation happened.
func TruncateAtWord(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	truncated := s[:maxLen]
	if idx := strings.LastIndexByte(truncated, ' '); idx > 0 {
		truncated = truncated[:idx]
	}
	return truncated + "..."
}
