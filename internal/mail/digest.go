package mail

import (
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// digestSubject is the subject line for every recommendation digest.
const digestSubject = "Your Weekly Book Recommendations!"

//go:embed digest.html
var digestHTML string

var digestTmpl = template.Must(template.New("digest").Parse(digestHTML))

// digestBook is one recommended book in a digest email.
type digestBook struct {
	Title  string
	Author string
}

// digestData is the template context for one digest email.
type digestData struct {
	Name               string
	SiteName           string
	SiteURL            string
	RecommendationsURL string
	UnsubscribeURL     string
	Books              []digestBook
	AdditionalCount    int
}

// renderDigest produces the HTML body and its text/plain alternative. The
// text part is derived from the rendered HTML so the two never drift apart.
// If the derivation fails the text part comes back empty and the email goes
// out HTML-only.
func renderDigest(data digestData) (html, text string, err error) {
	var buf strings.Builder
	if err := digestTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("execute digest template: %w", err)
	}
	html = buf.String()

	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return html, "", nil
	}
	return html, strings.TrimSpace(markdown), nil
}
