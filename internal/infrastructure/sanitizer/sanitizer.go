// Package sanitizer cleans user-supplied group text with bluemonday policies.
package sanitizer

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer implements ports.Sanitizer. Policies are safe for concurrent use.
type Sanitizer struct {
	text *bluemonday.Policy
	rich *bluemonday.Policy
}

// New creates a Sanitizer. Text strips every tag; RichText keeps basic
// formatting and links.
func New() *Sanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements("p", "br", "ul", "ol", "li", "strong", "em", "b", "i", "blockquote")
	rich.AllowAttrs("href").OnElements("a")
	rich.AllowStandardURLs()
	rich.RequireNoFollowOnLinks(true)
	rich.AddTargetBlankToFullyQualifiedLinks(true)

	return &Sanitizer{
		text: bluemonday.StrictPolicy(),
		rich: rich,
	}
}

// Text strips all markup. Entities escaped by the policy are decoded again
// since the result is stored as plain text.
func (s *Sanitizer) Text(v string) string {
	if v == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.text.Sanitize(v)))
}

// RichText keeps safe formatting markup only.
func (s *Sanitizer) RichText(v string) string {
	if v == "" {
		return ""
	}
	return strings.TrimSpace(s.rich.Sanitize(v))
}
