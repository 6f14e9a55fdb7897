package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"nriva-scraper/lib/configutil"
	"nriva-scraper/lib/ratelimit"
	"nriva-scraper/lib/restyutil"
	"nriva-scraper/lib/scrapers/nriva"
	"nriva-scraper/lib/telemetry"
	"nriva-scraper/services/archive"

	"github.com/spf13/cobra"
)

const (
	defaultBaseUrl = "https://www.nriva.org"
	candidateDelay = time.Second * 2

	usernameEnv = "NRIVA_USERNAME"
	passwordEnv = "NRIVA_PASSWORD"
)

type Config struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	BaseUrl   string `json:"base_url"`
	OutputDir string `json:"output_dir"`
}

var (
	scrapeUsername    *string
	scrapePassword    *string
	scrapeGender      *string
	scrapeMaxAge      *int
	scrapeCitizenship *string
	scrapeOnExists    *string
	scrapeMaxProfiles *int
	scrapeOutput      *string
)

func init() {
	scrapeUsername = scrapeCmd.Flags().String("username", "", "Account email, falls back to $"+usernameEnv+".")
	scrapePassword = scrapeCmd.Flags().String("password", "", "Account password, falls back to $"+passwordEnv+".")
	scrapeGender = scrapeCmd.Flags().String("gender", "Female", "Gender filter for the profile search.")
	scrapeMaxAge = scrapeCmd.Flags().Int("max-age", 31, "Maximum age filter for the profile search.")
	scrapeCitizenship = scrapeCmd.Flags().String("citizenship", "USA", "Citizenship filter for the profile search.")
	scrapeOnExists = scrapeCmd.Flags().String("on-exists", "skip", "What to do with an already-persisted profile directory: skip or overwrite.")
	scrapeMaxProfiles = scrapeCmd.Flags().Int("max-profiles", 0, "Cap on successfully persisted profiles, 0 means no cap.")
	scrapeOutput = scrapeCmd.Flags().String("output", "", "Output directory, defaults to nriva_profiles.")
	rootCmd.AddCommand(scrapeCmd)
}

// flag > config file > environment
func resolveCredentials(cfg Config) (string, string, error) {
	username := *scrapeUsername
	if username == "" {
		username = cfg.Username
	}
	if username == "" {
		username = os.Getenv(usernameEnv)
	}

	password := *scrapePassword
	if password == "" {
		password = cfg.Password
	}
	if password == "" {
		password = os.Getenv(passwordEnv)
	}

	if username == "" || password == "" {
		return "", "", fmt.Errorf(
			"no credentials: pass --username/--password, set them in config.json5, or export %s and %s",
			usernameEnv, passwordEnv,
		)
	}
	return username, password, nil
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--gender Female] [--max-age 31] [--citizenship USA]",
	Short: "Logs in, runs the filtered profile search and archives every match.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil && !os.IsNotExist(err) {
			fatal("failed to read config", err)
		}

		username, password, err := resolveCredentials(cfg)
		if err != nil {
			fatal("missing credentials", err)
		}

		policy, err := archive.ParseExistsPolicy(*scrapeOnExists)
		if err != nil {
			fatal("bad --on-exists value", err)
		}

		baseUrl := cfg.BaseUrl
		if baseUrl == "" {
			baseUrl = defaultBaseUrl
		}
		outputDir := *scrapeOutput
		if outputDir == "" {
			outputDir = cfg.OutputDir
		}
		if outputDir == "" {
			outputDir = "nriva_profiles"
		}

		client, err := nriva.NewClient(ctx, nriva.ClientOptions{BaseUrl: baseUrl})
		if err != nil {
			fatal("failed to initialize client", err)
		}
		if *verbose {
			client.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/nriva"))
			telemetry.InstrumentPerfStats(ctx)
		}

		err = os.MkdirAll(filepath.Join(outputDir, "data"), 0755)
		if err != nil {
			fatal("failed to create output directory", err)
		}
		ledger, err := archive.OpenLedger(filepath.Join(outputDir, "data", "archive.db"))
		if err != nil {
			fatal("failed to open run ledger", err)
		}
		defer ledger.Close()

		slog.Info("scraping using user", "username", username)

		t1 := time.Now()
		summary, err := archive.Run(ctx, client, username, password, archive.Options{
			Criteria: nriva.Criteria{
				Gender:      *scrapeGender,
				MaxAge:      *scrapeMaxAge,
				Citizenship: *scrapeCitizenship,
			},
			OutputDir:   outputDir,
			OnExists:    policy,
			MaxProfiles: *scrapeMaxProfiles,
			Gate:        ratelimit.NewGate(candidateDelay),
			Ledger:      ledger,
		})
		if err != nil {
			fatal("scraping run failed", err)
		}
		t2 := time.Now()

		err = archive.WriteSummary(summary)
		if err != nil {
			fatal("failed to write run summary", err)
		}

		slog.Info(
			"scraping complete",
			"persisted", len(summary.Persisted),
			"skipped", summary.Skipped,
			"failed", summary.Failed,
			"seconds", t2.Sub(t1).Seconds(),
		)
	},
}
