package content

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sectionFixture() (*Section, *Section, *Section) {
	root := &Section{Cascade: map[string]any{"author": "root"}}
	docs := &Section{
		Name: "docs", Path: "docs", Parent: root,
		Cascade: map[string]any{"type": "doc", "labels": []any{"x"}},
	}
	nested := &Section{
		Name: "advanced", Path: "docs/advanced", Parent: docs,
		Cascade: map[string]any{"type": "tutorial"},
	}
	root.Children = []*Section{docs}
	docs.Children = []*Section{nested}
	return root, docs, nested
}

func TestBuildCascadeSnapshotMerges(t *testing.T) {
	root, _, _ := sectionFixture()

	snap, err := BuildCascadeSnapshot(root)
	if err != nil {
		t.Fatalf("BuildCascadeSnapshot() error: %v", err)
	}

	wantDocs := map[string]any{"author": "root", "type": "doc", "labels": []any{"x"}}
	if diff := cmp.Diff(wantDocs, snap["docs"]); diff != "" {
		t.Errorf("docs cascade mismatch (-want +got):\n%s", diff)
	}

	// Leaf overrides ancestor; everything else still inherits.
	wantAdvanced := map[string]any{"author": "root", "type": "tutorial", "labels": []any{"x"}}
	if diff := cmp.Diff(wantAdvanced, snap["docs/advanced"]); diff != "" {
		t.Errorf("advanced cascade mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCascadeSnapshotProtectedKey(t *testing.T) {
	root := &Section{Cascade: map[string]any{"_site": "nope"}}
	if _, err := BuildCascadeSnapshot(root); err == nil {
		t.Error("protected cascade key should be fatal")
	}
}

func TestApplyCascadeFrontmatterWins(t *testing.T) {
	root, docs, _ := sectionFixture()
	snap, err := BuildCascadeSnapshot(root)
	if err != nil {
		t.Fatalf("BuildCascadeSnapshot() error: %v", err)
	}

	inherits := &Page{
		SourcePath: "docs/a.md",
		Section:    docs,
		Metadata:   map[string]any{"title": "A"},
	}
	overrides := &Page{
		SourcePath: "docs/b.md",
		Section:    docs,
		Metadata:   map[string]any{"title": "B", "type": "api"},
	}
	ApplyCascade([]*Page{inherits, overrides}, snap)

	if inherits.Metadata["type"] != "doc" {
		t.Errorf("inherited type = %v, want doc", inherits.Metadata["type"])
	}
	if inherits.Type != "doc" {
		t.Errorf("typed field not re-synced: %q", inherits.Type)
	}
	found := false
	for _, k := range inherits.CascadeKeys {
		if k == "type" {
			found = true
		}
	}
	if !found {
		t.Errorf("CascadeKeys = %v, want to include type", inherits.CascadeKeys)
	}

	if overrides.Metadata["type"] != "api" {
		t.Errorf("frontmatter type overwritten: %v", overrides.Metadata["type"])
	}
	for _, k := range overrides.CascadeKeys {
		if k == "type" {
			t.Error("overridden key must not be recorded as inherited")
		}
	}
}

func TestApplyCascadeEmptyListReplaces(t *testing.T) {
	root := &Section{Cascade: map[string]any{"labels": []any{"a", "b"}}}
	docs := &Section{Name: "docs", Path: "docs", Parent: root, Cascade: map[string]any{"labels": []any{}}}
	root.Children = []*Section{docs}

	snap, err := BuildCascadeSnapshot(root)
	if err != nil {
		t.Fatalf("BuildCascadeSnapshot() error: %v", err)
	}
	labels, ok := snap["docs"]["labels"].([]any)
	if !ok || len(labels) != 0 {
		t.Errorf("empty list should replace ancestor list, got %v", snap["docs"]["labels"])
	}
}
