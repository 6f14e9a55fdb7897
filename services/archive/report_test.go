package archive

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nriva-scraper/lib/scrapers/nriva"

	"github.com/stretchr/testify/require"
)

func TestWriteSummary(t *testing.T) {
	outputDir := t.TempDir()
	summary := Summary{
		Criteria:   nriva.Criteria{Gender: "Female", MaxAge: 31, Citizenship: "USA"},
		OutputDir:  outputDir,
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
		Candidates: 3,
		Persisted: []nriva.Profile{
			{
				ProfileId:        "101",
				DisplayProfileId: "5101",
				Name:             "Candidate A",
				ImageUrls:        []string{"https://x.org/a.jpg"},
				ExtractedAt:      time.Now(),
			},
			{
				ProfileId:   "102",
				ExtractedAt: time.Now(),
			},
		},
	}

	err := WriteSummary(summary)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(outputDir, "data", "all_profiles.json"))
	if err != nil {
		t.Fatal(err)
	}
	var restored []nriva.Profile
	err = json.Unmarshal(raw, &restored)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, restored, 2)
	require.Equal(t, "5101", restored[0].DisplayProfileId)

	file, err := os.Open(filepath.Join(outputDir, "data", "all_profiles.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, rows, 3)
	require.Equal(t, "profile_key", rows[0][0])
	require.Equal(t, "5101", rows[1][0])
	// no display id falls back to the opaque one
	require.Equal(t, "102", rows[2][0])

	report, err := os.ReadFile(filepath.Join(outputDir, "data", "scraping_report.txt"))
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, string(report), "Total profiles scraped: 2")
	require.Contains(t, string(report), "Search criteria: Female, Max Age 31, USA Citizenship")
	require.Contains(t, string(report), "- 5101: Candidate A")
	require.Contains(t, string(report), "- 102: N/A")
}

func TestWriteSummaryEmptyRun(t *testing.T) {
	outputDir := t.TempDir()
	err := WriteSummary(Summary{OutputDir: outputDir})
	if err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(outputDir, "data", "all_profiles.json"))
	if err != nil {
		t.Fatal(err)
	}
	require.JSONEq(t, "[]", string(raw))
}
