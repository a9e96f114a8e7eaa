package search

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGenerateJSON(t *testing.T) {
	entries := []Entry{
		{Title: "Hello", URL: "/blog/hello/", Tags: []string{"a"}, Section: "blog", PlainText: "Hi there"},
	}
	data, err := GenerateJSON(entries, 0)
	if err != nil {
		t.Fatalf("GenerateJSON() error: %v", err)
	}

	var decoded []Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].URL != "/blog/hello/" || decoded[0].Section != "blog" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestGenerateJSONTruncates(t *testing.T) {
	long := strings.Repeat("word ", 100)
	data, err := GenerateJSON([]Entry{{Title: "T", PlainText: long}}, 50)
	if err != nil {
		t.Fatalf("GenerateJSON() error: %v", err)
	}
	var decoded []Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded[0].PlainText) > 60 || !strings.HasSuffix(decoded[0].PlainText, "...") {
		t.Errorf("PlainText = %q, want word-boundary truncation", decoded[0].PlainText)
	}
}

func TestGenerateJSONEmpty(t *testing.T) {
	data, err := GenerateJSON(nil, 0)
	if err != nil {
		t.Fatalf("GenerateJSON() error: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("empty index = %q, want []", data)
	}
}

func TestGeneratePlainText(t *testing.T) {
	out := string(GeneratePlainText([]Entry{
		{Title: "A", URL: "/a/"},
		{Title: "B", URL: "/b/"},
	}))
	if out != "/a/\tA\n/b/\tB\n" {
		t.Errorf("plain index = %q", out)
	}
}
