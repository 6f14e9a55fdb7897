package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"nriva-scraper/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	verbose *bool
	logFile *string
)

var rootCmd = &cobra.Command{
	Use:   "nriva-scraper",
	Short: "nriva-scraper retrieves matching member profiles and archives them to disk.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if *logFile == "" {
			telemetry.InitSlog(*verbose)
			return
		}
		err := telemetry.InitSlogTee(*verbose, *logFile)
		if err != nil {
			telemetry.InitSlog(*verbose)
			slog.Warn("failed to open log file, logging to stderr only", "path", *logFile, "err", err)
		}
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging and request dumps.")
	logFile = rootCmd.PersistentFlags().String("log-file", "", "Mirror log output into this file.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}
