package browser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Meta is the document metadata handed to the extraction agent alongside the
// rendered text. On social pages og:title usually carries the author's
// display name and og:description a copy of the post body.
type Meta struct {
	Title       string
	Author      string
	Description string
}

// ParseMeta pulls title and OpenGraph/Twitter-card fields out of raw HTML.
func ParseMeta(html string) (Meta, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Meta{}, fmt.Errorf("parse page html: %w", err)
	}

	m := Meta{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Author: metaContent(doc,
			`meta[property="og:title"]`,
			`meta[name="twitter:title"]`),
		Description: metaContent(doc,
			`meta[property="og:description"]`,
			`meta[name="twitter:description"]`,
			`meta[name="description"]`),
	}
	return m, nil
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// CollapseText trims trailing whitespace per line and squeezes runs of blank
// lines so long feeds stay readable inside a token budget.
func CollapseText(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	out := strings.Join(lines, "\n")
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
