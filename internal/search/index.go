// Package search generates the site-wide JSON and plain-text indexes used by
// client-side search.
package search

import (
	"encoding/json"
	"strings"
)

// Entry is one rendered page in the search index.
type Entry struct {
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Summary   string   `json:"summary,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Section   string   `json:"section,omitempty"`
	PlainText string   `json:"plain_text,omitempty"`
}

// GenerateJSON serializes entries as the index.json payload. Content is
// truncated at a word boundary to maxContentLen characters when positive.
func GenerateJSON(entries []Entry, maxContentLen int) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	if maxContentLen > 0 {
		truncated := make([]Entry, len(entries))
		copy(truncated, entries)
		for i := range truncated {
			truncated[i].PlainText = truncateAtWord(truncated[i].PlainText, maxContentLen)
		}
		entries = truncated
	}
	return json.MarshalIndent(entries, "", "  ")
}

// GeneratePlainText emits one line per page: URL, a tab, then the title.
// A cheap grep-able index for tooling.
func GeneratePlainText(entries []Entry) []byte {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.URL)
		b.WriteByte('\t')
		b.WriteString(e.Title)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func truncateAtWord(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	truncated := s[:maxLen]
	if idx := strings.LastIndexByte(truncated, ' '); idx > 0 {
		truncated = truncated[:idx]
	}
	return truncated + "..."
}
