package feed

import (
	"strings"
	"testing"
	"time"
)

func feedItems() []Item {
	return []Item{
		{Title: "Older", Link: "https://e.com/older/", GUID: "https://e.com/older/", PubDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Description: "old"},
		{Title: "Newer", Link: "https://e.com/newer/", GUID: "https://e.com/newer/", PubDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Description: "new", Categories: []string{"go"}},
	}
}

func TestGenerateRSS(t *testing.T) {
	data, err := GenerateRSS(feedItems(), Options{
		Title:    "Site",
		Link:     "https://e.com",
		FeedLink: "https://e.com/rss.xml",
	})
	if err != nil {
		t.Fatalf("GenerateRSS() error: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, `version="2.0"`) {
		t.Error("missing RSS version")
	}
	if strings.Index(out, "Newer") > strings.Index(out, "Older") {
		t.Error("items should be newest first")
	}
	if !strings.Contains(out, "<category>go</category>") {
		t.Errorf("categories missing: %s", out)
	}
	if !strings.Contains(out, "<![CDATA[new]]>") {
		t.Errorf("description should be CDATA: %s", out)
	}
}

func TestGenerateRSSLimit(t *testing.T) {
	data, err := GenerateRSS(feedItems(), Options{Title: "S", MaxItems: 1})
	if err != nil {
		t.Fatalf("GenerateRSS() error: %v", err)
	}
	out := string(data)
	if strings.Count(out, "<item>") != 1 {
		t.Errorf("limit not applied: %s", out)
	}
	if !strings.Contains(out, "Newer") {
		t.Error("limit should keep the newest item")
	}
}

func TestGenerateAtom(t *testing.T) {
	data, err := GenerateAtom(feedItems(), Options{
		Title:    "Site",
		Link:     "https://e.com",
		FeedLink: "https://e.com/atom.xml",
	})
	if err != nil {
		t.Fatalf("GenerateAtom() error: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, `xmlns="http://www.w3.org/2005/Atom"`) {
		t.Error("missing Atom namespace")
	}
	if strings.Count(out, "<entry>") != 2 {
		t.Errorf("want 2 entries: %s", out)
	}
	if !strings.Contains(out, "2025-02-01T00:00:00Z") {
		t.Errorf("updated should be the newest item date: %s", out)
	}
}
