// Package richtext handles note text that display surfaces submit as HTML:
// sanitising it on the way in and rendering it as Markdown or plain text on
// the way out. Callers decide which text is HTML; nothing here guesses from
// the shape of the input, so "i<j" is only ever markup if the caller says so.
package richtext

import (
	"regexp"
	"strings"
	"sync"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

//nolint:gochecknoglobals // Policies are safe for concurrent use once built
var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func ugc() *bluemonday.Policy {
	policyOnce.Do(func() { policy = bluemonday.UGCPolicy() })
	return policy
}

// Sanitize strips unsafe markup from the HTML fragment s.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.TrimSpace(ugc().Sanitize(s))
}

// ToMarkdown converts an HTML fragment to Markdown.
func ToMarkdown(s string) string {
	if s == "" {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return ToPlainText(s)
	}
	return strings.TrimSpace(md)
}

// ToPlainText returns the text content of the HTML fragment s with
// whitespace collapsed and entities decoded.
func ToPlainText(s string) string {
	if s == "" {
		return s
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	var buf strings.Builder
	extractText(doc, &buf)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(buf.String(), " "))
}

func extractText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	if n.Type == html.ElementNode && isBlock(n.Data) {
		buf.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}
	if n.Type == html.ElementNode && isBlock(n.Data) {
		buf.WriteString(" ")
	}
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre":
		return true
	}
	return false
}

// Fold normalises s for case-insensitive matching.
func Fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

// Title upper-cases the first letter of each word, e.g. "linkedin learning"
// becomes "Linkedin Learning".
func Title(s string) string {
	return cases.Title(language.English).String(s)
}
