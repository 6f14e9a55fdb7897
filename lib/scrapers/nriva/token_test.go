package nriva

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestResolveToken(t *testing.T) {
	testCases := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name: "meta tag wins over hidden input",
			html: `<html><head><meta name="csrf-token" content="meta-value"></head>
				<body><input type="hidden" name="_token" value="input-value"></body></html>`,
			expected: "meta-value",
		},
		{
			name:     "hidden input",
			html:     `<html><body><form><input type="hidden" name="_token" value="input-value"></form></body></html>`,
			expected: "input-value",
		},
		{
			name: "token-like input name as last resort",
			html: `<html><body><form>
				<input name="email" value="ignored">
				<input name="csrfToken" value="pattern-value">
			</form></body></html>`,
			expected: "pattern-value",
		},
		{
			name:     "no token anywhere",
			html:     `<html><body><form><input name="email"></form></body></html>`,
			expected: "",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(test.html))
			if err != nil {
				t.Fatal(err)
			}
			require.Equal(t, test.expected, ResolveToken(doc))
		})
	}
}
