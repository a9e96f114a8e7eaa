package feed

import (
	"encoding/xml"
	"time"
)

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	XMLNS   string      `xml:"xmlns,attr"`
	Title   string      `xml:"title"`
	Link    []atomLink  `xml:"link"`
	Updated string      `xml:"updated"`
	ID      string      `xml:"id"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

type atomEntry struct {
	Title   string      `xml:"title"`
	Link    atomLink    `xml:"link"`
	ID      string      `xml:"id"`
	Updated string      `xml:"updated"`
	Summary atomContent `xml:"summary"`
}

type atomContent struct {
	Type string `xml:"type,attr"`
	Text string `xml:",cdata"`
}

// GenerateAtom produces an Atom 1.0 feed with the same ordering and limit
// rules as the RSS variant.
func GenerateAtom(items []Item, opts Options) ([]byte, error) {
	sorted := orderedItems(items, opts.MaxItems)

	updated := time.Now()
	if len(sorted) > 0 {
		updated = sorted[0].PubDate
	}

	entries := make([]atomEntry, 0, len(sorted))
	for _, item := range sorted {
		entries = append(entries, atomEntry{
			Title:   item.Title,
			Link:    atomLink{Href: item.Link},
			ID:      item.GUID,
			Updated: item.PubDate.Format(time.RFC3339),
			Summary: atomContent{Type: "html", Text: item.Description},
		})
	}

	feed := atomFeed{
		XMLNS:   "http://www.w3.org/2005/Atom",
		Title:   opts.Title,
		ID:      opts.Link + "/",
		Updated: updated.Format(time.RFC3339),
		Link: []atomLink{
			{Href: opts.FeedLink, Rel: "self"},
			{Href: opts.Link},
		},
		Entries: entries,
	}

	output, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), output...), nil
}
