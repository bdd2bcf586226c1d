// Package feed builds the crawler-facing documents: robots.txt and the XML
// sitemaps. Listings are fixed; only the domain and timestamp vary.
package feed

import "fmt"

// Kind names a document the storefront serves to crawlers.
type Kind string

const (
	KindRobots       Kind = "robots"
	KindSitemapIndex Kind = "sitemap"
	KindSitemapMain  Kind = "sitemap-main"
	KindSitemapBlog  Kind = "sitemap-blog"
)

const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeXML  = "text/xml; charset=utf-8"

	CacheRobots  = "public, max-age=3600, s-maxage=3600"
	CacheSitemap = "public, s-maxage=600, stale-while-revalidate=60"
)

// Kinds lists every document kind in serving order.
var Kinds = []Kind{KindRobots, KindSitemapIndex, KindSitemapMain, KindSitemapBlog}

// Path is the URL path the document is served on.
func (k Kind) Path() string {
	if k == KindRobots {
		return "/robots.txt"
	}
	return "/" + string(k) + ".xml"
}

// ParseKind accepts a kind name or its served path ("sitemap-main", "/sitemap-main.xml").
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if s == string(k) || s == k.Path() || "/"+s == k.Path() {
			return k, nil
		}
	}
	return "", fmt.Errorf("feed: unknown document %q", s)
}

// Document is a rendered feed with the headers it must be served with.
type Document struct {
	Kind         Kind
	Body         []byte
	ContentType  string
	CacheControl string
}

// SiteURL returns the absolute https URL of path on domain.
func SiteURL(domain, path string) string {
	return "https://" + domain + path
}
