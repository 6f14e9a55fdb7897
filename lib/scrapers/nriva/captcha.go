package nriva

import (
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

var captchaRegex = regexp.MustCompile(`(\d+)\s*([+\-*/])\s*(\d+)\s*=`)

// the places the arithmetic challenge has been observed in, most
// specific first
var captchaSelectors = []string{
	"#captcha",
	".captcha",
	"label[for*=captcha]",
	"label",
}

// SolveCaptcha parses an arithmetic challenge like "5 + 9 = " and
// returns the answer as text. ok is false when the text contains no
// such challenge.
func SolveCaptcha(text string) (string, bool) {
	groups := captchaRegex.FindStringSubmatch(text)
	if groups == nil {
		return "", false
	}

	a, err := strconv.Atoi(groups[1])
	if err != nil {
		return "", false
	}
	b, err := strconv.Atoi(groups[3])
	if err != nil {
		return "", false
	}

	switch groups[2] {
	case "+":
		return strconv.Itoa(a + b), true
	case "-":
		return strconv.Itoa(a - b), true
	case "*":
		return strconv.Itoa(a * b), true
	case "/":
		if b == 0 {
			return "", false
		}
		return strconv.FormatFloat(float64(a)/float64(b), 'f', -1, 64), true
	}
	return "", false
}

// FindCaptcha locates the challenge text on a served page, trying
// the known selectors before falling back to a whole-page text scan.
func FindCaptcha(doc *goquery.Document) (string, bool) {
	found := ""
	for _, selector := range captchaSelectors {
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := sel.Text()
			match := captchaRegex.FindString(text)
			if match == "" {
				return true
			}
			found = match
			return false
		})
		if found != "" {
			return found, true
		}
	}

	match := captchaRegex.FindString(doc.Text())
	if match == "" {
		return "", false
	}
	return match, true
}
