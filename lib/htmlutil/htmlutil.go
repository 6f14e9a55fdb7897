package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

func NormalizeText(s string) string {
	s = removeNonPrintable(s)
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}

// the full document text, one line per leaf element with text,
// blank lines dropped.
func PageText(doc *goquery.Document) string {
	var lines []string
	doc.Find("body *").Each(func(_ int, sel *goquery.Selection) {
		if sel.Children().Length() > 0 {
			return
		}
		line := NormalizeText(sel.Text())
		if line == "" {
			return
		}
		lines = append(lines, line)
	})
	if lines == nil {
		return NormalizeText(doc.Text())
	}
	return strings.Join(lines, "\n")
}

// the text of the first h1, h2 or h3 in document order, or "" when
// the page has no headings.
func FirstHeading(doc *goquery.Document) string {
	for _, tag := range []string{"h1", "h2", "h3"} {
		sel := doc.Find(tag).First()
		if sel.Length() == 0 {
			continue
		}
		text := NormalizeText(sel.Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// every img src in document order, resolved against base. sources
// that fail to parse are dropped.
func ImageSources(doc *goquery.Document, base *url.URL) []string {
	var out []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src := sel.AttrOr("src", "")
		if src == "" {
			return
		}
		resolved, ok := ResolveHref(base, src)
		if !ok {
			return
		}
		out = append(out, resolved)
	})
	return out
}

// every anchor href in document order, resolved against base.
func AnchorHrefs(doc *goquery.Document, base *url.URL) []string {
	var out []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := sel.AttrOr("href", "")
		if href == "" {
			return
		}
		resolved, ok := ResolveHref(base, href)
		if !ok {
			return
		}
		out = append(out, resolved)
	})
	return out
}

func ResolveHref(base *url.URL, href string) (string, bool) {
	link, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	if base != nil {
		link = base.ResolveReference(link)
	}
	return link.String(), true
}
