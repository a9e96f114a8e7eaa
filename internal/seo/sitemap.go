// Package seo generates the sitemap and robots.txt outputs.
package seo

import (
	"encoding/xml"
	"time"
)

// SitemapEntry is one URL in the sitemap.
type SitemapEntry struct {
	URL     string
	Lastmod time.Time
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	Lastmod string `xml:"lastmod,omitempty"`
}

// GenerateSitemap produces sitemap.xml for the given entries. Zero lastmod
// values are omitted.
func GenerateSitemap(entries []SitemapEntry) ([]byte, error) {
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, 0, len(entries)),
	}
	for _, e := range entries {
		u := sitemapURL{Loc: e.URL}
		if !e.Lastmod.IsZero() {
			u.Lastmod = e.Lastmod.Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}

	output, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), output...), nil
}

// GenerateRobotsTxt produces a permissive robots.txt pointing at the sitemap.
func GenerateRobotsTxt(sitemapURL string) []byte {
	return []byte("User-agent: *\nAllow: /\n\nSitemap: " + sitemapURL + "\n")
}
