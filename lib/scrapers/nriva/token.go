package nriva

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var tokenNameRegex = regexp.MustCompile(`(?i)token`)

// ResolveToken extracts the anti-forgery token out of a served page.
// Lookup order: the csrf meta tag, the hidden _token input, then any
// input whose name looks token-like. Returns "" when the page
// carries no token.
func ResolveToken(doc *goquery.Document) string {
	token := doc.Find(`meta[name=csrf-token]`).AttrOr("content", "")
	if token != "" {
		return token
	}

	token = doc.Find(`input[name=_token]`).AttrOr("value", "")
	if token != "" {
		return token
	}

	doc.Find("input").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		name := sel.AttrOr("name", "")
		if !tokenNameRegex.MatchString(name) {
			return true
		}
		value := sel.AttrOr("value", "")
		if value == "" {
			return true
		}
		token = value
		return false
	})
	return token
}
