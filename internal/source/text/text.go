// Package text turns upstream markup into plain display text.
package text

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Plain strips tags, decodes character references and collapses whitespace.
func Plain(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<&") {
		return Collapse(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return Collapse(s)
	}
	return Collapse(doc.Text())
}

// Collapse replaces whitespace runs with a single space and trims.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SelectionText returns the collapsed text of a selection.
func SelectionText(sel *goquery.Selection) string {
	return Collapse(sel.Text())
}
