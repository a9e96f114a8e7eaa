package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Content file extensions recognized during discovery.
var contentExts = map[string]bool{
	".md":       true,
	".markdown": true,
}

// DiscoverOptions controls content discovery.
type DiscoverOptions struct {
	IncludeDrafts bool
}

// DiscoverResult is the output of walking the content root.
type DiscoverResult struct {
	Root     *Section
	Pages    []*Page
	Warnings []string
}

// Discover walks the content root depth-first, sorted alphabetically at each
// level, building the section tree and page records. A file named
// "_index.<ext>" becomes its directory's index page. Draft pages are skipped
// unless opts.IncludeDrafts is set. Malformed frontmatter degrades to a
// warning and the page is treated as having no frontmatter.
func Discover(contentDir string, opts DiscoverOptions) (*DiscoverResult, error) {
	root := &Section{}
	result := &DiscoverResult{Root: root}

	if _, err := os.Stat(contentDir); os.IsNotExist(err) {
		// A site with zero content files still builds.
		return result, nil
	}

	if err := discoverDir(contentDir, "", root, opts, result); err != nil {
		return nil, err
	}
	return result, nil
}

func discoverDir(absDir, relDir string, section *Section, opts DiscoverOptions, result *DiscoverResult) error {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return fmt.Errorf("reading content directory %s: %w", absDir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		absPath := filepath.Join(absDir, name)
		relPath := name
		if relDir != "" {
			relPath = relDir + "/" + name
		}

		if entry.IsDir() {
			child := &Section{
				Name:   name,
				Path:   relPath,
				Parent: section,
			}
			section.Children = append(section.Children, child)
			if err := discoverDir(absPath, relPath, child, opts, result); err != nil {
				return err
			}
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		if !contentExts[ext] {
			continue
		}

		page, warn, err := readPage(absPath, relPath)
		if err != nil {
			return err
		}
		if warn != "" {
			result.Warnings = append(result.Warnings, warn)
		}
		if page.Draft && !opts.IncludeDrafts {
			continue
		}

		page.Section = section
		stem := strings.TrimSuffix(name, ext)
		if stem == "_index" {
			section.Index = page
			section.Cascade = cascadeBlock(page.Metadata)
			section.Metadata = page.Metadata
		} else {
			if page.Slug == "" {
				page.Slug = Slugify(stem)
			}
			section.Pages = append(section.Pages, page)
		}
		result.Pages = append(result.Pages, page)
	}
	return nil
}

// readPage reads a content file and splits its frontmatter. Frontmatter
// errors are non-fatal: the page keeps its full source and empty metadata.
func readPage(absPath, relPath string) (*Page, string, error) {
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", absPath, err)
	}

	page := &Page{SourcePath: relPath}

	metadata, body, err := ParseFrontmatter(raw)
	warn := ""
	if err != nil {
		warn = fmt.Sprintf("%s: %v (treating as plain content)", relPath, err)
		metadata = nil
		body = raw
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	page.Metadata = metadata
	page.Source = string(body)
	page.SyncMetadata()
	if page.Title == "" {
		stem := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
		page.Title = titleFromStem(stem)
	}
	return page, warn, nil
}

// cascadeBlock extracts a section's cascade map from its index metadata.
func cascadeBlock(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	v, ok := metadata["cascade"]
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

// titleFromStem derives a human title from a filename stem.
func titleFromStem(stem string) string {
	if stem == "_index" {
		return ""
	}
	s := strings.ReplaceAll(stem, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
