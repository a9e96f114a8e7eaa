package template

import (
	"encoding/json"
	"fmt"
	"html/template"
	"math/rand"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bengal-ssg/bengal/internal/content"
)

// funcNames lists every helper for nearest-name suggestions.
func funcNames() []string {
	return []string{
		"slugify", "truncate", "upper", "lower", "titleize", "trim", "replace",
		"markdownify", "plainify", "safeHTML", "urlize", "wordcount",
		"readingTime", "pluralize", "dateFormat", "dateISO", "timeAgo", "now",
		"first", "last", "where", "sortBy", "groupBy", "uniq", "shuffle", "in",
		"seq", "dict", "list", "get", "hasKey", "default", "jsonify",
		"dataTable", "relURL", "absURL", "urlFor", "ref", "relref", "doc",
		"anchor", "assetURL", "partial",
	}
}

// funcMap builds the helper library. Helpers that resolve references or
// asset URLs close over the engine so the active page's dependency recorder
// sees every lookup.
func (e *Engine) funcMap() template.FuncMap {
	return template.FuncMap{
		// Strings
		"slugify":     content.Slugify,
		"truncate":    truncate,
		"upper":       strings.ToUpper,
		"lower":       strings.ToLower,
		"titleize":    titleize,
		"trim":        strings.TrimSpace,
		"replace":     func(s, old, new string) string { return strings.ReplaceAll(s, old, new) },
		"markdownify": markdownify,
		"plainify":    content.StripHTML,
		"safeHTML":    func(s string) template.HTML { return template.HTML(s) },
		"urlize":      content.Slugify,

		// Words
		"wordcount":   content.WordCount,
		"readingTime": content.ReadingTime,
		"pluralize":   pluralize,

		// Dates
		"dateFormat": func(layout string, t time.Time) string { return t.Format(layout) },
		"dateISO":    func(t time.Time) string { return t.Format("2006-01-02") },
		"timeAgo":    timeAgo,
		"now":        time.Now,

		// Collections
		"first":   firstN,
		"last":    lastN,
		"where":   where,
		"sortBy":  sortPagesBy,
		"groupBy": groupBy,
		"uniq":    uniq,
		"shuffle": shuffle,
		"in":      inSlice,
		"seq":     seq,

		// Data helpers
		"dict":      dict,
		"list":      func(values ...any) []any { return values },
		"get":       getWithDefault,
		"hasKey":    hasKey,
		"default":   defaultValue,
		"jsonify":   jsonify,
		"dataTable": dataTable,

		// URLs and references
		"relURL":   relURL,
		"absURL":   func(path string) string { return absURL(e.baseURL, path) },
		"urlFor":   e.urlFor,
		"ref":      e.refHelper,
		"relref":   e.relrefHelper,
		"doc":      e.docHelper,
		"anchor":   e.anchorHelper,
		"assetURL": e.assetURLHelper,

		// Layout fragments
		"partial": e.executePartial,
	}
}

// --- Reference helpers (hook-backed) ---

func (e *Engine) urlFor(p *content.Page) string {
	if p == nil {
		return ""
	}
	return p.URL
}

func (e *Engine) refHelper(ref string) (template.HTML, error) {
	if e.hooks.Ref == nil {
		return "", fmt.Errorf("ref %q: resolver not wired", ref)
	}
	href, text, ok := e.hooks.Ref(ref, "")
	if !ok {
		return template.HTML(`<a class="broken-ref" data-ref="` + template.HTMLEscapeString(ref) + `">` + template.HTMLEscapeString(ref) + `</a>`), nil
	}
	return template.HTML(`<a href="` + href + `">` + template.HTMLEscapeString(text) + `</a>`), nil
}

func (e *Engine) relrefHelper(ref string) (string, error) {
	if e.hooks.Ref == nil {
		return "", fmt.Errorf("relref %q: resolver not wired", ref)
	}
	href, _, ok := e.hooks.Ref(ref, "")
	if !ok {
		return "", fmt.Errorf("relref %q: no such page", ref)
	}
	return href, nil
}

// doc resolves a reference to the page's URL, the same value relref returns;
// it does not return the page object.
func (e *Engine) docHelper(ref string) (string, error) {
	return e.relrefHelper(ref)
}

func (e *Engine) anchorHelper(ref, anchor string) (string, error) {
	href, err := e.relrefHelper(ref)
	if err != nil {
		return "", err
	}
	return href + "#" + content.Slugify(anchor), nil
}

func (e *Engine) assetURLHelper(path string) string {
	if e.hooks.AssetURL == nil {
		return relURL(path)
	}
	return e.hooks.AssetURL(path)
}

// --- Strings ---

func truncate(n int, s string) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func titleize(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
	codeRe   = regexp.MustCompile("`(.+?)`")
	mdLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// markdownify renders an inline markdown fragment (bold, italic, code,
// links). Full documents go through the markdown pipeline, not this helper.
func markdownify(s string) template.HTML {
	out := template.HTMLEscapeString(s)
	out = mdLinkRe.ReplaceAllString(out, `<a href="$2">$1</a>`)
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicRe.ReplaceAllString(out, "<em>$1</em>")
	out = codeRe.ReplaceAllString(out, "<code>$1</code>")
	return template.HTML(out)
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return pluralize(int(d.Minutes()), "minute ago", "minutes ago")
	case d < 24*time.Hour:
		return pluralize(int(d.Hours()), "hour ago", "hours ago")
	case d < 30*24*time.Hour:
		return pluralize(int(d.Hours()/24), "day ago", "days ago")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// --- Collections ---

func firstN(n int, items any) any {
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice {
		return items
	}
	if n < 0 {
		n = 0
	}
	if n > v.Len() {
		n = v.Len()
	}
	return v.Slice(0, n).Interface()
}

func lastN(n int, items any) any {
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice {
		return items
	}
	if n < 0 {
		n = 0
	}
	if n > v.Len() {
		n = v.Len()
	}
	return v.Slice(v.Len()-n, v.Len()).Interface()
}

func where(items any, key string, value any) any {
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice {
		return items
	}
	result := reflect.MakeSlice(v.Type(), 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		field := item
		if field.Kind() == reflect.Ptr {
			field = field.Elem()
		}
		if field.Kind() != reflect.Struct {
			continue
		}
		f := field.FieldByName(key)
		if f.IsValid() && fmt.Sprintf("%v", f.Interface()) == fmt.Sprintf("%v", value) {
			result = reflect.Append(result, item)
		}
	}
	return result.Interface()
}

func sortPagesBy(pages []*content.Page, field string) []*content.Page {
	sorted := make([]*content.Page, len(pages))
	copy(sorted, pages)
	sort.SliceStable(sorted, func(i, j int) bool {
		switch field {
		case "title":
			return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
		case "date":
			return sorted[i].Date.After(sorted[j].Date)
		case "weight":
			return sorted[i].Weight < sorted[j].Weight
		default:
			return false
		}
	})
	return sorted
}

func groupBy(items any, key string) map[string]any {
	result := map[string]any{}
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice {
		return result
	}
	groups := map[string]reflect.Value{}
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		field := item
		if field.Kind() == reflect.Ptr {
			field = field.Elem()
		}
		if field.Kind() != reflect.Struct {
			continue
		}
		f := field.FieldByName(key)
		if !f.IsValid() {
			continue
		}
		k := fmt.Sprintf("%v", f.Interface())
		if _, ok := groups[k]; !ok {
			groups[k] = reflect.MakeSlice(v.Type(), 0, 0)
		}
		groups[k] = reflect.Append(groups[k], item)
	}
	for k, gv := range groups {
		result[k] = gv.Interface()
	}
	return result
}

func uniq(items []any) []any {
	seen := map[string]bool{}
	var out []any
	for _, item := range items {
		k := fmt.Sprintf("%v", item)
		if !seen[k] {
			seen[k] = true
			out = append(out, item)
		}
	}
	return out
}

func shuffle(items any) any {
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice {
		return items
	}
	result := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
	reflect.Copy(result, v)
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := result.Len() - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		tmp := result.Index(i).Interface()
		result.Index(i).Set(result.Index(j))
		result.Index(j).Set(reflect.ValueOf(tmp))
	}
	return result.Interface()
}

func inSlice(items any, needle any) bool {
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice {
		return false
	}
	want := fmt.Sprintf("%v", needle)
	for i := 0; i < v.Len(); i++ {
		if fmt.Sprintf("%v", v.Index(i).Interface()) == want {
			return true
		}
	}
	return false
}

func seq(from, to int) []int {
	if to < from {
		return nil
	}
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// --- Data helpers ---

func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key at position %d is not a string", i)
		}
		m[key] = values[i+1]
	}
	return m, nil
}

func getWithDefault(m any, key string, fallback any) any {
	switch v := m.(type) {
	case map[string]any:
		if val, ok := v[key]; ok {
			return val
		}
	case *RenderContext:
		if v != nil && v.Config != nil {
			if val, ok := v.Config[key]; ok {
				return val
			}
		}
	}
	return fallback
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func defaultValue(fallback, value any) any {
	if value == nil {
		return fallback
	}
	if s, ok := value.(string); ok && s == "" {
		return fallback
	}
	return value
}

func jsonify(v any) (template.JS, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("jsonify: %w", err)
	}
	return template.JS(data), nil
}

// dataTable renders rows of maps as an HTML table, with columns taken from
// the sorted keys of the first row.
func dataTable(rows []any) (template.HTML, error) {
	if len(rows) == 0 {
		return `<table class="data-table"></table>`, nil
	}
	first, ok := rows[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("dataTable: rows must be maps, got %T", rows[0])
	}
	cols := make([]string, 0, len(first))
	for k := range first {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	var b strings.Builder
	b.WriteString(`<table class="data-table"><thead><tr>`)
	for _, c := range cols {
		b.WriteString("<th>" + template.HTMLEscapeString(c) + "</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, raw := range rows {
		row, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		b.WriteString("<tr>")
		for _, c := range cols {
			b.WriteString("<td>" + template.HTMLEscapeString(fmt.Sprintf("%v", row[c])) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return template.HTML(b.String()), nil
}

// --- URLs ---

func relURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func absURL(baseURL, path string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return baseURL + path
}
