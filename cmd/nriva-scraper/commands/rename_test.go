package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeProfileText(t *testing.T, dir string, text string) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(filepath.Join(dir, "profile_text.txt"), []byte(text), 0644)
	if err != nil {
		t.Fatal(err)
	}
}

func TestRenameArchive(t *testing.T) {
	root := t.TempDir()
	slug := filepath.Join(root, "Female_USA_maxAge31")

	// archive produced by the pipeline: profile folders nested under
	// the criteria slug
	writeProfileText(t, filepath.Join(slug, "101"), "Profile Id : 5101")
	writeProfileText(t, filepath.Join(slug, "5102"), "Profile Id : 5102")
	writeProfileText(t, filepath.Join(slug, "103"), "no id in here")

	// a flat pre-slug layout still works
	writeProfileText(t, filepath.Join(root, "201"), "Profile Id : 5201")

	// the run-level exports are never touched
	err := os.MkdirAll(filepath.Join(root, "data"), 0755)
	if err != nil {
		t.Fatal(err)
	}

	renamed, skipped, err := renameArchive(root)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, 2, renamed)
	// already named + id-less
	require.Equal(t, 2, skipped)

	require.DirExists(t, filepath.Join(slug, "5101"))
	require.NoDirExists(t, filepath.Join(slug, "101"))
	require.DirExists(t, filepath.Join(slug, "5102"))
	require.DirExists(t, filepath.Join(slug, "103"))
	require.DirExists(t, filepath.Join(root, "5201"))
}

func TestRenameProfileDirTargetTaken(t *testing.T) {
	root := t.TempDir()
	writeProfileText(t, filepath.Join(root, "101"), "Profile Id : 5101")
	writeProfileText(t, filepath.Join(root, "5101"), "Profile Id : 5101")

	ok, err := renameProfileDir(root, "101")
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, ok)
	require.DirExists(t, filepath.Join(root, "101"))
}
