package search

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ReadablePage strips markup from an HTML document and returns readable text.
// Script, style, and navigation chrome are removed; remaining block text is
// joined with newlines. Used to condense fetched plan documents and search
// hits before they are handed to a model.
func ReadablePage(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript, nav, header, footer, aside, iframe").Remove()

	var lines []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, th, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			lines = append(lines, text)
		}
	})

	if len(lines) == 0 {
		return strings.TrimSpace(doc.Text()), nil
	}
	return strings.Join(lines, "\n"), nil
}
