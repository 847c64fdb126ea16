package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanEmptyWorkspace(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanFindsOnlyCSVs(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "import")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "processed"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anz-may.csv"), []byte("Date,Amount\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "statement.CSV"), []byte("Date,Amount\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	files, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "anz-may.csv", files[0].Name)
	assert.Equal(t, filepath.Join(dir, "anz-may.csv"), files[0].Path)
}

func TestMarkProcessed(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "import")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anz-may.csv"), []byte("Date,Amount\n"), 0o644))

	require.NoError(t, MarkProcessed(root, "anz-may.csv"))

	_, err := os.Stat(filepath.Join(dir, "anz-may.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "processed", "anz-may.csv"))
	assert.NoError(t, err)
}

func TestMarkProcessedMissingFile(t *testing.T) {
	assert.Error(t, MarkProcessed(t.TempDir(), "ghost.csv"))
}
