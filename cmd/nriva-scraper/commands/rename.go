package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"nriva-scraper/lib/scrapers/nriva"

	"github.com/spf13/cobra"
)

var renameDir *string

func init() {
	renameDir = renameCmd.Flags().String("dir", "nriva_profiles", "Archive directory, scanned one criteria level deep for profile folders.")
	rootCmd.AddCommand(renameCmd)
}

// Older archives named folders after the opaque candidate id. This walks the
// archive and renames each folder to the displayed profile id recovered from
// its profile_text.txt.
var renameCmd = &cobra.Command{
	Use:   "rename [--dir nriva_profiles]",
	Short: "Renames archived profile folders to their displayed profile id.",
	Run: func(cmd *cobra.Command, args []string) {
		renamed, skipped, err := renameArchive(*renameDir)
		if err != nil {
			fatal("failed to rename profile folders", err)
		}
		slog.Info("rename complete", "renamed", renamed, "skipped", skipped)
	},
}

// renameArchive scans root for profile folders. The pipeline nests
// them one criteria-slug level down, so a directory without a
// profile_text.txt of its own is treated as a criteria directory and
// its children are scanned instead.
func renameArchive(root string) (renamed, skipped int, err error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "data" {
			continue
		}

		if isProfileDir(filepath.Join(root, entry.Name())) {
			ok, err := renameProfileDir(root, entry.Name())
			if err != nil {
				return renamed, skipped, err
			}
			if ok {
				renamed++
			} else {
				skipped++
			}
			continue
		}

		criteriaDir := filepath.Join(root, entry.Name())
		children, err := os.ReadDir(criteriaDir)
		if err != nil {
			return renamed, skipped, err
		}
		for _, child := range children {
			if !child.IsDir() {
				continue
			}
			ok, err := renameProfileDir(criteriaDir, child.Name())
			if err != nil {
				return renamed, skipped, err
			}
			if ok {
				renamed++
			} else {
				skipped++
			}
		}
	}

	return renamed, skipped, nil
}

func isProfileDir(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "profile_text.txt"))
	return err == nil
}

// renameProfileDir renames one profile folder under parent to its
// displayed profile id. Returns false when the folder was left
// untouched: missing or id-less profile text, already named, or the
// target taken.
func renameProfileDir(parent, name string) (bool, error) {
	dir := filepath.Join(parent, name)

	text, err := os.ReadFile(filepath.Join(dir, "profile_text.txt"))
	if err != nil {
		slog.Warn("folder has no profile text", "folder", name)
		return false, nil
	}
	displayId, ok := nriva.ExtractDisplayProfileId(string(text))
	if !ok {
		slog.Warn("no displayed profile id in profile text", "folder", name)
		return false, nil
	}
	if displayId == name {
		return false, nil
	}

	target := filepath.Join(parent, displayId)
	_, err = os.Stat(target)
	if err == nil {
		slog.Warn(
			"target folder already exists",
			"folder", name,
			"target", displayId,
		)
		return false, nil
	}

	err = os.Rename(dir, target)
	if err != nil {
		return false, err
	}
	slog.Info("renamed profile folder", "from", name, "to", displayId)
	return true, nil
}
