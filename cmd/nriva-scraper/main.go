package main

import (
	"context"

	"nriva-scraper/cmd/nriva-scraper/commands"
	"nriva-scraper/lib/telemetry"
)

func main() {
	ctx := context.Background()

	// telemetry is best-effort, the scraper works fine without a
	// telemetry.json5 around
	tel, err := telemetry.SetupFromEnv(ctx, "nriva-scraper")
	if err == nil {
		defer tel.Shutdown(ctx)
	}

	commands.ExecuteContext(ctx)
}
