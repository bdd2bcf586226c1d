package feed

import (
	"bytes"
	"text/template"
)

var robotsTemplate = template.Must(template.New("robots").Parse(`User-agent: *
Allow: /
Disallow: /api/

Sitemap: {{ .SitemapURL }}
`))

// Robots renders robots.txt for domain.
func Robots(domain string) Document {
	var buf bytes.Buffer
	// The template only interpolates a string; execution cannot fail.
	_ = robotsTemplate.Execute(&buf, struct{ SitemapURL string }{
		SitemapURL: SiteURL(domain, KindSitemapIndex.Path()),
	})
	return Document{
		Kind:         KindRobots,
		Body:         buf.Bytes(),
		ContentType:  ContentTypeText,
		CacheControl: CacheRobots,
	}
}
