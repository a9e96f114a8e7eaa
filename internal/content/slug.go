package content

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var multiHyphenRe = regexp.MustCompile(`-{2,}`)

// stripMarks removes combining marks after NFD decomposition, so that
// accented letters slugify to their base form.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a term or filename stem into a URL-safe slug: accents are
// folded, the result is lowercased, spaces and underscores become hyphens,
// anything else non-alphanumeric is dropped, and hyphen runs collapse.
func Slugify(s string) string {
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")

	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	out := multiHyphenRe.ReplaceAllString(b.String(), "-")
	return strings.Trim(out, "-")
}
