package archive

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"nriva-scraper/lib/scrapers/nriva"
)

const (
	dataDirName     = "data"
	summaryJsonName = "all_profiles.json"
	summaryCsvName  = "all_profiles.csv"
	reportName      = "scraping_report.txt"
)

// WriteSummary emits the run-level exports next to the profile
// directories: the json array of every persisted record, a flattened
// csv, and a plain-text report.
func WriteSummary(summary Summary) error {
	dataDir := filepath.Join(summary.OutputDir, dataDirName)
	err := os.MkdirAll(dataDir, 0755)
	if err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	err = writeSummaryJson(summary, filepath.Join(dataDir, summaryJsonName))
	if err != nil {
		return err
	}
	err = writeSummaryCsv(summary, filepath.Join(dataDir, summaryCsvName))
	if err != nil {
		return err
	}
	return writeReport(summary, filepath.Join(dataDir, reportName))
}

func writeSummaryJson(summary Summary, path string) error {
	profiles := summary.Persisted
	if profiles == nil {
		// an empty run still emits a valid json array
		profiles = []nriva.Profile{}
	}
	out, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	err = os.WriteFile(path, out, 0644)
	if err != nil {
		return fmt.Errorf("write %s: %w", summaryJsonName, err)
	}
	return nil
}

func writeSummaryCsv(summary Summary, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", summaryCsvName, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	err = writer.Write([]string{
		"profile_key", "profile_id", "display_profile_id", "name",
		"image_count", "document_count", "extracted_at",
	})
	if err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, profile := range summary.Persisted {
		err = writer.Write([]string{
			profile.FolderKey(),
			profile.ProfileId,
			profile.DisplayProfileId,
			profile.Name,
			strconv.Itoa(len(profile.ImageUrls)),
			strconv.Itoa(len(profile.DocumentUrls)),
			profile.ExtractedAt.Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeReport(summary Summary, path string) error {
	var report strings.Builder
	report.WriteString("NRIVA Profile Scraping Report\n")
	report.WriteString(fmt.Sprintf("Generated: %s\n", summary.FinishedAt.Format("2006-01-02 15:04:05")))
	report.WriteString(fmt.Sprintf("Total profiles scraped: %d\n", len(summary.Persisted)))
	report.WriteString(fmt.Sprintf(
		"Search criteria: %s, Max Age %d, %s Citizenship\n",
		summary.Criteria.Gender,
		summary.Criteria.MaxAge,
		summary.Criteria.Citizenship,
	))
	report.WriteString("\nProfile IDs:\n")
	for _, profile := range summary.Persisted {
		name := profile.Name
		if name == "" {
			name = "N/A"
		}
		report.WriteString(fmt.Sprintf("- %s: %s\n", profile.FolderKey(), name))
	}

	err := os.WriteFile(path, []byte(report.String()), 0644)
	if err != nil {
		return fmt.Errorf("write %s: %w", reportName, err)
	}
	return nil
}
