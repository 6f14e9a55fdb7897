package nriva

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"nriva-scraper/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

var ErrProfileUnavailable = fmt.Errorf("profile page unavailable")

// Profile is the unit of persistence. ProfileId is always set; every
// other field is best-effort and may be absent without the record
// being invalid.
type Profile struct {
	ProfileId        string         `json:"profile_id"`
	DisplayProfileId string         `json:"display_profile_id,omitempty"`
	Name             string         `json:"name,omitempty"`
	FullText         string         `json:"full_text"`
	ImageUrls        []string       `json:"image_urls"`
	DocumentUrls     []string       `json:"document_urls"`
	SearchFields     map[string]any `json:"search_fields,omitempty"`
	ExtractedAt      time.Time      `json:"extracted_at"`
}

// FolderKey is the string the persisted directory is named by: the
// human-visible display id when the detail page exposed one, the
// opaque search id otherwise.
func (p Profile) FolderKey() string {
	if p.DisplayProfileId != "" {
		return p.DisplayProfileId
	}
	return p.ProfileId
}

var displayIdRegex = regexp.MustCompile(`(?i)profile id\s*:\s*(\d+)`)

// ExtractDisplayProfileId scans extracted page text for the
// "Profile Id : <digits>" marker.
func ExtractDisplayProfileId(text string) (string, bool) {
	groups := displayIdRegex.FindStringSubmatch(text)
	if groups == nil {
		return "", false
	}
	return groups[1], true
}

// FetchProfile retrieves and parses one candidate's detail page.
// There is a single documented url shape; a non-200 response means
// the profile is unavailable, with no retry and no probing of
// alternative paths.
func (c *Client) FetchProfile(ctx context.Context, id string) (Profile, error) {
	ctx, span := tracer.Start(ctx, "client:FetchProfile")
	defer span.End()

	doc, res, err := c.fetchDocument(ctx, fmt.Sprintf(profilePathFormat, id))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch profile page")
		return Profile{}, fmt.Errorf("fetch profile %s: %w", id, err)
	}
	if res.StatusCode() != 200 {
		span.SetStatus(codes.Error, "profile page unavailable")
		return Profile{}, fmt.Errorf("%w: id %s, status %d", ErrProfileUnavailable, id, res.StatusCode())
	}

	profile := extractProfile(doc, id, c.BaseUrl)
	profile.ExtractedAt = time.Now()
	return profile, nil
}

func extractProfile(doc *goquery.Document, id string, baseUrl *url.URL) Profile {
	fullText := htmlutil.PageText(doc)
	profile := Profile{
		ProfileId: id,
		Name:      htmlutil.FirstHeading(doc),
		FullText:  fullText,
		ImageUrls: htmlutil.ImageSources(doc, baseUrl),
	}

	if displayId, ok := ExtractDisplayProfileId(fullText); ok {
		profile.DisplayProfileId = displayId
	}

	for _, href := range htmlutil.AnchorHrefs(doc, baseUrl) {
		if strings.HasSuffix(strings.ToLower(href), ".pdf") {
			profile.DocumentUrls = append(profile.DocumentUrls, href)
		}
	}

	return profile
}
