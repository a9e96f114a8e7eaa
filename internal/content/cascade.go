package content

import (
	"fmt"
	"sort"
)

// Keys a cascade block may never set; they are pipeline-owned.
var protectedCascadeKeys = map[string]bool{
	"_section":   true,
	"_site":      true,
	"_generated": true,
	"_virtual":   true,
}

// CascadeSnapshot maps section path to the fully merged cascade for that
// section. It is immutable once built.
type CascadeSnapshot map[string]map[string]any

// BuildCascadeSnapshot walks every section root-to-leaf and accumulates
// cascade blocks by deep merge: leaf values override ancestor values, list
// values replace wholesale. A cascade block touching a protected key is a
// fatal error.
func BuildCascadeSnapshot(root *Section) (CascadeSnapshot, error) {
	snapshot := CascadeSnapshot{}
	var err error

	root.Walk(func(sec *Section) {
		if err != nil {
			return
		}
		merged := map[string]any{}
		if sec.Parent != nil {
			for k, v := range snapshot[sec.Parent.Path] {
				merged[k] = v
			}
		}
		if sec.Cascade != nil {
			for k := range sec.Cascade {
				if protectedCascadeKeys[k] {
					err = fmt.Errorf("cascade in section %q sets protected key %q", sec.Path, k)
					return
				}
			}
			merged = deepMerge(merged, sec.Cascade)
		}
		snapshot[sec.Path] = merged
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// deepMerge overlays src onto a copy of dst. Nested maps merge recursively;
// everything else, lists included, replaces.
func deepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := out[k].(map[string]any); ok {
				out[k] = deepMerge(dstMap, srcMap)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// ApplyCascade eagerly applies the snapshot to every page: for each cascade
// key not present in the page's own frontmatter, the cascade value is set and
// the key recorded in CascadeKeys. Frontmatter always wins. Typed fields are
// re-synced afterwards so inherited type/weight/tags take effect before
// indexing and taxonomy collection.
func ApplyCascade(pages []*Page, snapshot CascadeSnapshot) {
	for _, p := range pages {
		secPath := ""
		if p.Section != nil {
			secPath = p.Section.Path
		}
		cascade := snapshot[secPath]
		if len(cascade) == 0 {
			continue
		}

		keys := make([]string, 0, len(cascade))
		for k := range cascade {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if _, present := p.Metadata[k]; present {
				continue
			}
			p.Metadata[k] = cascade[k]
			p.CascadeKeys = append(p.CascadeKeys, k)
		}
		p.SyncMetadata()
	}
}
