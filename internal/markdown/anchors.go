package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bengal-ssg/bengal/internal/content"
)

var (
	headingTagRe = regexp.MustCompile(`(?s)<h([1-6])([^>]*)>(.*?)</h[1-6]>`)
	idAttrRe     = regexp.MustCompile(`\sid="([^"]*)"`)
	innerTagRe   = regexp.MustCompile(`<[^>]*>`)
)

// InjectAnchors gives every heading a stable id and an appended headerlink
// anchor, and harvests the heading list for the TOC tree and the by_heading
// index. Headings missing an id (goldmark assigns most) get one slugified
// from their text, with -2, -3... suffixes on collision within the page.
// This is a single regex pass over the rendered HTML, not DOM rewriting.
func InjectAnchors(html string) (string, []content.Heading) {
	var headings []content.Heading
	seen := map[string]int{}

	out := headingTagRe.ReplaceAllStringFunc(html, func(match string) string {
		m := headingTagRe.FindStringSubmatch(match)
		level, _ := strconv.Atoi(m[1])
		attrs := m[2]
		inner := m[3]
		text := strings.TrimSpace(innerTagRe.ReplaceAllString(inner, ""))

		id := ""
		if idm := idAttrRe.FindStringSubmatch(attrs); idm != nil {
			id = idm[1]
		}
		if id == "" {
			id = content.Slugify(text)
			if id == "" {
				id = "section"
			}
		}
		// Per-page collision suffixes.
		seen[id]++
		if n := seen[id]; n > 1 {
			id = fmt.Sprintf("%s-%d", id, n)
			seen[id]++
		}

		// Rewrite the id attribute to the final value.
		if idAttrRe.MatchString(attrs) {
			attrs = idAttrRe.ReplaceAllString(attrs, ` id="`+id+`"`)
		} else {
			attrs += ` id="` + id + `"`
		}

		headings = append(headings, content.Heading{Level: level, ID: id, Text: text})

		headerlink := `<a class="headerlink" href="#` + id + `">&para;</a>`
		return fmt.Sprintf("<h%d%s>%s%s</h%d>", level, attrs, inner, headerlink, level)
	})

	return out, headings
}
