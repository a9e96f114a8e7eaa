package build

import (
	"fmt"
	"strings"
)

const aliasTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta http-equiv="refresh" content="0; url=%s">
  <link rel="canonical" href="%s">
  <title>Redirect</title>
</head>
<body>
  <p>This page has moved to <a href="%s">%s</a>.</p>
</body>
</html>
`

// aliasPage maps an alias URL to its canonical page URL.
type aliasPage struct {
	aliasURL     string
	canonicalURL string
}

// generateAliasFiles produces static redirect files, keyed by output-relative
// path: "/old-post/" becomes "old-post/index.html".
func generateAliasFiles(aliases []aliasPage) map[string][]byte {
	out := make(map[string][]byte, len(aliases))
	for _, a := range aliases {
		html := fmt.Sprintf(aliasTemplate, a.canonicalURL, a.canonicalURL, a.canonicalURL, a.canonicalURL)
		out[aliasFilePath(a.aliasURL)] = []byte(html)
	}
	return out
}

func aliasFilePath(url string) string {
	path := strings.Trim(url, "/")
	if path == "" {
		return "index.html"
	}
	return path + "/index.html"
}
