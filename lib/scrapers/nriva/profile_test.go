package nriva

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const detailPageFixture = `<html><body>
	<h2>Asha R</h2>
	<table>
		<tr><td>Profile Id : 3513</td></tr>
		<tr><td>Age : 29</td></tr>
	</table>
	<img src="/img/a.jpg">
	<img src="/img/b.png">
	<a href="/uploads/horoscope_3513.PDF">Horoscope</a>
	<a href="/logout">Logout</a>
</body></html>`

func TestExtractProfile(t *testing.T) {
	base, err := url.Parse("https://www.nriva.org")
	if err != nil {
		t.Fatal(err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(detailPageFixture))
	if err != nil {
		t.Fatal(err)
	}

	profile := extractProfile(doc, "987654", base)

	require.Equal(t, "987654", profile.ProfileId)
	require.Equal(t, "3513", profile.DisplayProfileId)
	require.Equal(t, "3513", profile.FolderKey())
	require.Equal(t, "Asha R", profile.Name)
	require.Contains(t, profile.FullText, "Profile Id : 3513")

	diff := cmp.Diff([]string{
		"https://www.nriva.org/img/a.jpg",
		"https://www.nriva.org/img/b.png",
	}, profile.ImageUrls)
	if diff != "" {
		t.Fatal(diff)
	}

	diff = cmp.Diff([]string{
		"https://www.nriva.org/uploads/horoscope_3513.PDF",
	}, profile.DocumentUrls)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestFolderKeyFallsBackToOpaqueId(t *testing.T) {
	profile := Profile{ProfileId: "987654"}
	require.Equal(t, "987654", profile.FolderKey())
}

func TestExtractDisplayProfileId(t *testing.T) {
	testCases := []struct {
		text     string
		expected string
		ok       bool
	}{
		{text: "Profile Id : 3513", expected: "3513", ok: true},
		{text: "profile ID:42", expected: "42", ok: true},
		{text: "Member Id : 3513", ok: false},
		{text: "", ok: false},
	}
	for _, test := range testCases {
		id, ok := ExtractDisplayProfileId(test.text)
		require.Equal(t, test.ok, ok, "text: %q", test.text)
		require.Equal(t, test.expected, id, "text: %q", test.text)
	}
}

func TestFetchProfileUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), ClientOptions{BaseUrl: server.URL})
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.FetchProfile(context.Background(), "123")
	require.ErrorIs(t, err, ErrProfileUnavailable)
}

func TestFetchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/eedu-jodu/profile/987654" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, detailPageFixture)
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), ClientOptions{BaseUrl: server.URL})
	if err != nil {
		t.Fatal(err)
	}

	profile, err := client.FetchProfile(context.Background(), "987654")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "3513", profile.DisplayProfileId)
	require.False(t, profile.ExtractedAt.IsZero())
	require.Equal(t, server.URL+"/img/a.jpg", profile.ImageUrls[0])
}
