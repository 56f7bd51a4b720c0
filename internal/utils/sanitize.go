package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MaxTextLength bounds any plain-text field after sanitization.
const MaxTextLength = 10000

var contentPolicy = newContentPolicy()

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "strong", "em", "u", "s",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "blockquote", "code", "pre", "a", "img",
	)
	p.AllowAttrs("href", "src", "alt", "title", "class").Globally()
	p.AllowURLSchemes("http", "https", "mailto", "tel", "callto", "sms", "cid", "xmpp", "data")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)
	return p
}

// SanitizeHTML keeps only the rich-text subset the editor produces and
// drops every other element, attribute and URL scheme.
func SanitizeHTML(dirty string) string {
	return contentPolicy.Sanitize(dirty)
}

// SanitizeText strips angle brackets, trims whitespace and caps the
// result at MaxTextLength runes.
func SanitizeText(text string) string {
	text = strings.NewReplacer("<", "", ">", "").Replace(text)
	text = strings.TrimSpace(text)
	if r := []rune(text); len(r) > MaxTextLength {
		text = string(r[:MaxTextLength])
	}
	return text
}
