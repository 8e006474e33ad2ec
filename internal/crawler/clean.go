package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var noiseSelectors = "script, style, noscript, template, svg, iframe, nav, footer, aside, .nav, .navbar, .footer, .sidebar, .advertisement, .ads, .skip-link, .mw-editsection, .reference, .reflist"

// Semantic containers tried before falling back to the whole body
var contentSelectors = []string{
	"main",
	"article",
	"[role='main']",
	"#mw-content-text",
	".main-content",
	"#content",
}

// Clean reduces an HTML document to its visible text. It never fails:
// unparseable input yields an empty string.
func Clean(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find(noiseSelectors).Remove()

	var text string
	for _, selector := range contentSelectors {
		var content strings.Builder
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			content.WriteString(s.Text())
			content.WriteString("\n")
		})
		if len(strings.TrimSpace(content.String())) > 100 {
			text = content.String()
			break
		}
	}
	if text == "" {
		body := doc.Find("body")
		if body.Length() > 0 {
			text = body.Text()
		} else {
			text = doc.Text()
		}
	}

	return collapseWhitespace(text)
}

// collapseWhitespace trims every line, squeezes runs of blanks inside a line
// and drops empty lines.
func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
