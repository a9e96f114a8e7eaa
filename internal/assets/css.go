package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Matches @import "x.css"; and @import url(x.css); forms.
var cssImportRe = regexp.MustCompile(`(?m)^\s*@import\s+(?:url\()?["']?([^"')\s]+)["']?\)?\s*;`)

// cssImports returns the transitive assets-dir-relative import set of a CSS
// entry, in resolution order. Imports outside the assets directory (remote
// URLs) are left in place and not followed.
func (pl *Pipeline) cssImports(a *Asset) ([]string, error) {
	var order []string
	seen := map[string]bool{}

	var visit func(rel string) error
	visit = func(rel string) error {
		data, err := os.ReadFile(filepath.Join(pl.AssetsDir, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("resolving @import %s: %w", rel, err)
		}
		for _, m := range cssImportRe.FindAllStringSubmatch(string(data), -1) {
			target := m[1]
			if strings.Contains(target, "://") {
				continue
			}
			resolved := resolveRelative(rel, target)
			if seen[resolved] {
				continue
			}
			seen[resolved] = true
			if err := visit(resolved); err != nil {
				return err
			}
			order = append(order, resolved)
		}
		return nil
	}
	if err := visit(a.RelPath); err != nil {
		return nil, err
	}
	return order, nil
}

// bundleCSS concatenates an entry's transitive imports depth-first, imports
// before the importing file, with @import lines stripped.
func (pl *Pipeline) bundleCSS(a *Asset) ([]byte, error) {
	var out strings.Builder
	seen := map[string]bool{}

	var visit func(rel string) error
	visit = func(rel string) error {
		if seen[rel] {
			return nil
		}
		seen[rel] = true

		data, err := os.ReadFile(filepath.Join(pl.AssetsDir, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("bundling %s: %w", rel, err)
		}
		text := string(data)
		for _, m := range cssImportRe.FindAllStringSubmatch(text, -1) {
			if strings.Contains(m[1], "://") {
				continue
			}
			if err := visit(resolveRelative(rel, m[1])); err != nil {
				return err
			}
		}
		stripped := cssImportRe.ReplaceAllStringFunc(text, func(line string) string {
			if strings.Contains(line, "://") {
				return line
			}
			return ""
		})
		out.WriteString(strings.TrimSpace(stripped))
		out.WriteString("\n")
		return nil
	}
	if err := visit(a.RelPath); err != nil {
		return nil, err
	}
	return []byte(out.String()), nil
}

// resolveRelative resolves an import target against the importing file's
// directory.
func resolveRelative(from, target string) string {
	dir := filepath.ToSlash(filepath.Dir(from))
	if dir == "." {
		return filepath.ToSlash(filepath.Clean(target))
	}
	return filepath.ToSlash(filepath.Clean(dir + "/" + target))
}
