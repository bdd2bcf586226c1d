package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Page is a fixed sitemap listing entry.
type Page struct {
	Path       string
	ChangeFreq string
	Priority   float64
}

// MainPages and BlogPages are placeholder listings; they are not derived from
// the product catalog.
var (
	MainPages = []Page{
		{Path: "/", ChangeFreq: "daily", Priority: 1.0},
		{Path: "/shop", ChangeFreq: "daily", Priority: 0.8},
	}
	BlogPages = []Page{
		{Path: "/blog", ChangeFreq: "weekly", Priority: 0.7},
	}
)

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type SitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Xmlns    string       `xml:"xmlns,attr"`
	Sitemaps []SitemapRef `xml:"sitemap"`
}

type SitemapRef struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// LastMod formats t the way sitemaps expect (W3C datetime, UTC).
func LastMod(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// BuildURLSet lists pages on domain, all stamped with now.
func BuildURLSet(domain string, pages []Page, now time.Time) URLSet {
	set := URLSet{Xmlns: sitemapNS, URLs: make([]URL, 0, len(pages))}
	for _, p := range pages {
		set.URLs = append(set.URLs, URL{
			Loc:        SiteURL(domain, p.Path),
			LastMod:    LastMod(now),
			ChangeFreq: p.ChangeFreq,
			Priority:   strconv.FormatFloat(p.Priority, 'f', 1, 64),
		})
	}
	return set
}

// BuildIndex references the main and blog sitemaps on domain.
func BuildIndex(domain string, now time.Time) SitemapIndex {
	idx := SitemapIndex{Xmlns: sitemapNS}
	for _, k := range []Kind{KindSitemapMain, KindSitemapBlog} {
		idx.Sitemaps = append(idx.Sitemaps, SitemapRef{
			Loc:     SiteURL(domain, k.Path()),
			LastMod: LastMod(now),
		})
	}
	return idx
}

// Sitemap renders the sitemap document of the given kind.
func Sitemap(kind Kind, domain string, now time.Time) (Document, error) {
	var v any
	switch kind {
	case KindSitemapMain:
		v = BuildURLSet(domain, MainPages, now)
	case KindSitemapBlog:
		v = BuildURLSet(domain, BlogPages, now)
	case KindSitemapIndex:
		v = BuildIndex(domain, now)
	default:
		return Document{}, fmt.Errorf("feed: %q is not a sitemap", kind)
	}

	body, err := encodeXML(v)
	if err != nil {
		return Document{}, fmt.Errorf("feed: encode %s: %w", kind, err)
	}
	return Document{
		Kind:         kind,
		Body:         body,
		ContentType:  ContentTypeXML,
		CacheControl: CacheSitemap,
	}, nil
}

func encodeXML(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
