// Package feed generates RSS and Atom feeds from page lists.
package feed

import (
	"encoding/xml"
	"sort"
	"time"
)

// Options configures feed generation.
type Options struct {
	Title       string
	Description string
	Link        string // site URL
	FeedLink    string // feed URL
	MaxItems    int    // 0 means no limit
}

// Item is a single feed entry.
type Item struct {
	Title       string
	Link        string
	Description string
	PubDate     time.Time
	GUID        string
	Categories  []string
}

// CDATA wraps text in a CDATA section when marshaled.
type CDATA struct {
	Text string `xml:",cdata"`
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string      `xml:"title"`
	Link        string      `xml:"link"`
	Description string      `xml:"description"`
	AtomLink    rssAtomLink `xml:"atom:link"`
	Items       []rssItem   `xml:"item"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
	Description CDATA    `xml:"description"`
	Categories  []string `xml:"category,omitempty"`
}

// GenerateRSS produces an RSS 2.0 feed, newest entries first, capped at
// opts.MaxItems when positive.
func GenerateRSS(items []Item, opts Options) ([]byte, error) {
	sorted := orderedItems(items, opts.MaxItems)

	rssItems := make([]rssItem, 0, len(sorted))
	for _, item := range sorted {
		rssItems = append(rssItems, rssItem{
			Title:       item.Title,
			Link:        item.Link,
			PubDate:     item.PubDate.Format(time.RFC1123Z),
			GUID:        item.GUID,
			Description: CDATA{Text: item.Description},
			Categories:  item.Categories,
		})
	}

	feed := rssFeed{
		Version: "2.0",
		AtomNS:  "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:       opts.Title,
			Link:        opts.Link,
			Description: opts.Description,
			AtomLink: rssAtomLink{
				Href: opts.FeedLink,
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Items: rssItems,
		},
	}

	output, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), output...), nil
}

// orderedItems copies, sorts newest first, and truncates.
func orderedItems(items []Item, maxItems int) []Item {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PubDate.After(sorted[j].PubDate)
	})
	if maxItems > 0 && len(sorted) > maxItems {
		sorted = sorted[:maxItems]
	}
	return sorted
}
