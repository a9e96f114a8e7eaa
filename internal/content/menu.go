package content

import (
	"fmt"
	"sort"

	"github.com/bengal-ssg/bengal/internal/config"
)

// MenuNode is one entry in a materialized menu tree. Siblings sort by weight
// ascending, ties broken by insertion order.
type MenuNode struct {
	Name     string
	URL      string
	Weight   int
	Children []*MenuNode

	order  int
	parent string
}

// BuildMenus merges config-declared entries with page frontmatter menu:
// declarations into hierarchical menus. An entry naming a missing parent is
// promoted to the root with a warning.
func BuildMenus(declared map[string][]config.MenuEntry, pages []*Page) (map[string][]*MenuNode, []string) {
	var warnings []string
	collected := map[string][]*MenuNode{}

	for menuName, entries := range declared {
		for _, e := range entries {
			collected[menuName] = append(collected[menuName], &MenuNode{
				Name:   e.Name,
				URL:    e.URL,
				Weight: e.Weight,
				parent: e.Parent,
				order:  len(collected[menuName]),
			})
		}
	}

	for _, p := range pages {
		menuMeta, ok := p.Metadata["menu"].(map[string]any)
		if !ok {
			continue
		}
		for menuName, raw := range menuMeta {
			node := &MenuNode{
				Name:  p.Title,
				URL:   p.URL,
				order: len(collected[menuName]),
			}
			if entry, ok := raw.(map[string]any); ok {
				if v, ok := entry["name"].(string); ok && v != "" {
					node.Name = v
				}
				if v, ok := entry["url"].(string); ok && v != "" {
					node.URL = v
				}
				if v, ok := entry["weight"]; ok {
					if n, err := toInt(v); err == nil {
						node.Weight = n
					}
				}
				if v, ok := entry["parent"].(string); ok {
					node.parent = v
				}
			}
			collected[menuName] = append(collected[menuName], node)
		}
	}

	menus := map[string][]*MenuNode{}
	for menuName, nodes := range collected {
		byName := map[string]*MenuNode{}
		for _, n := range nodes {
			byName[n.Name] = n
		}

		var roots []*MenuNode
		for _, n := range nodes {
			if n.parent == "" {
				roots = append(roots, n)
				continue
			}
			parent, ok := byName[n.parent]
			if !ok || parent == n {
				warnings = append(warnings, fmt.Sprintf("menu %q: entry %q names missing parent %q; promoted to root", menuName, n.Name, n.parent))
				roots = append(roots, n)
				continue
			}
			parent.Children = append(parent.Children, n)
		}

		sortMenuLevel(roots)
		for _, n := range nodes {
			sortMenuLevel(n.Children)
		}
		menus[menuName] = roots
	}
	return menus, warnings
}

func sortMenuLevel(nodes []*MenuNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Weight != nodes[j].Weight {
			return nodes[i].Weight < nodes[j].Weight
		}
		return nodes[i].order < nodes[j].order
	})
}

// Active reports whether a node matches the given page URL (exact match or
// section prefix for non-root entries).
func (n *MenuNode) Active(pageURL string) bool {
	if n.URL == pageURL {
		return true
	}
	if n.URL != "/" && len(pageURL) > len(n.URL) && pageURL[:len(n.URL)] == n.URL {
		return true
	}
	return false
}
