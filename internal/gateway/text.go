package gateway

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	newlineRuns = regexp.MustCompile(`\n{2,}`)
	spaceFolder = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\t", " ", "\u00a0", " ")
)

// PrepareText builds the typeable text for an article: the title, a blank
// line, then the body with markup removed. Runs of newlines collapse to one.
func PrepareText(title, body string) string {
	text := strings.TrimSpace(title) + "\n\n"
	if body != "" {
		text += StripHTML(body)
	}
	text = spaceFolder.Replace(text)
	text = strings.TrimSpace(text)
	return newlineRuns.ReplaceAllString(text, "\n")
}

// StripHTML returns the text content of an HTML fragment. Plain text passes
// through with entities decoded.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}
