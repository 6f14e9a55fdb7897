package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"nriva-scraper/lib/scrapers/nriva"

	"go.opentelemetry.io/otel/codes"
)

const (
	profileJsonName   = "profile_data.json"
	profileTextName   = "profile_text.txt"
	imagesDirName     = "images"
	horoscopesDirName = "horoscopes"
)

// PersistProfile writes one extracted profile to disk: the json
// snapshot, the plain-text dump, then every image and horoscope
// document. A single failed asset download is logged and skipped; it
// never fails the profile.
func PersistProfile(ctx context.Context, client *nriva.Client, profile nriva.Profile, dir string) error {
	ctx, span := tracer.Start(ctx, "PersistProfile")
	defer span.End()

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create profile directory")
		return fmt.Errorf("create profile directory: %w", err)
	}

	snapshot, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		span.SetStatus(codes.Error, "failed to marshal profile")
		return fmt.Errorf("marshal profile: %w", err)
	}
	err = os.WriteFile(filepath.Join(dir, profileJsonName), snapshot, 0644)
	if err != nil {
		span.SetStatus(codes.Error, "failed to write profile json")
		return fmt.Errorf("write %s: %w", profileJsonName, err)
	}

	err = os.WriteFile(filepath.Join(dir, profileTextName), []byte(profile.FullText), 0644)
	if err != nil {
		span.SetStatus(codes.Error, "failed to write profile text")
		return fmt.Errorf("write %s: %w", profileTextName, err)
	}

	persistAssets(ctx, client, profile.ImageUrls, filepath.Join(dir, imagesDirName), imageFilename)
	persistAssets(ctx, client, profile.DocumentUrls, filepath.Join(dir, horoscopesDirName), horoscopeFilename)

	return nil
}

func persistAssets(
	ctx context.Context,
	client *nriva.Client,
	urls []string,
	dir string,
	filename func(index int, url string) string,
) {
	if len(urls) == 0 {
		return
	}

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		slog.WarnContext(ctx, "failed to create asset directory", "dir", dir, "err", err)
		return
	}

	for i, assetUrl := range urls {
		body, err := client.Download(ctx, assetUrl)
		if err != nil {
			slog.WarnContext(ctx, "failed to download asset", "url", assetUrl, "err", err)
			continue
		}

		path := filepath.Join(dir, filename(i, assetUrl))
		err = os.WriteFile(path, body, 0644)
		if err != nil {
			slog.WarnContext(ctx, "failed to write asset", "path", path, "err", err)
			continue
		}
		slog.DebugContext(ctx, "downloaded asset", "path", path)
	}
}

// the extension is guessed off a substring of the url, never off the
// response content type
func imageFilename(index int, url string) string {
	lowered := strings.ToLower(url)
	ext := ".jpg"
	switch {
	case strings.Contains(lowered, "png"):
		ext = ".png"
	case strings.Contains(lowered, "gif"):
		ext = ".gif"
	}
	return fmt.Sprintf("image_%d%s", index, ext)
}

func horoscopeFilename(index int, url string) string {
	return fmt.Sprintf("horoscope_%d.pdf", index)
}
