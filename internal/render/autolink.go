package render

import (
	"html/template"
	"net/url"
	"sort"
	"strings"

	"github.com/hpungsan/roost/internal/archive"
)

// AutoLinker turns post text into HTML with its URL entities hyperlinked.
type AutoLinker interface {
	AutoLink(text string, urls []archive.URLEntity) template.HTML
}

// EntityLinker escapes the text and replaces each entity's short URL with an
// anchor to its expanded URL, labelled with the display URL.
type EntityLinker struct{}

// AutoLink implements AutoLinker.
func (EntityLinker) AutoLink(text string, urls []archive.URLEntity) template.HTML {
	escaped := template.HTMLEscapeString(text)

	entities := make([]archive.URLEntity, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if u.URL == "" || seen[u.URL] {
			continue
		}
		seen[u.URL] = true
		entities = append(entities, u)
	}
	if len(entities) == 0 {
		return template.HTML(escaped)
	}

	// Longest first so a short link never matches inside a longer one.
	sort.SliceStable(entities, func(i, j int) bool {
		return len(entities[i].URL) > len(entities[j].URL)
	})
	pairs := make([]string, 0, 2*len(entities))
	for _, u := range entities {
		pairs = append(pairs, template.HTMLEscapeString(u.URL), anchor(u))
	}
	return template.HTML(strings.NewReplacer(pairs...).Replace(escaped))
}

func anchor(u archive.URLEntity) string {
	href := u.ExpandedURL
	if !safeHref(href) {
		href = u.URL
	}
	label := u.DisplayURL
	if label == "" {
		label = href
	}

	var b strings.Builder
	b.WriteString(`<a href="`)
	b.WriteString(template.HTMLEscapeString(href))
	b.WriteString(`" rel="nofollow noopener" target="_blank">`)
	b.WriteString(template.HTMLEscapeString(label))
	b.WriteString(`</a>`)
	return b.String()
}

// safeHref allows only absolute http(s) links.
func safeHref(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
