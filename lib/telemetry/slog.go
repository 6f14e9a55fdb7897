package telemetry

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

func InitSlog(verbose bool) {
	slog.SetDefault(slog.New(newSlogHandler(os.Stderr, verbose, false)))
}

// InitSlogTee mirrors the log stream into a file alongside stderr.
// Colors are disabled so the file stays grep-able.
func InitSlogTee(verbose bool, path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(newSlogHandler(io.MultiWriter(os.Stderr, file), verbose, true)))
	return nil
}

func newSlogHandler(w io.Writer, verbose bool, noColor bool) slog.Handler {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	})
}
