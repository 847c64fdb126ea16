package commands

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankfeed-dev/bankfeed/internal/config"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// newWorkspace scaffolds a workspace without git so tests don't depend on
// a git binary or repo state.
func newWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default("test")
	cfg.Git.AutoCommit = false
	cfg.Categorizer.Enabled = false
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "import"), 0o755))
	require.NoError(t, config.Save(filepath.Join(dir, config.FileName), cfg))
	return dir
}

func writeFeed(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", name), []byte(content), 0o644))
}

func TestInitCreatesWorkspace(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()

	out, err := runCommand(t, "init", dir, "--name", "household")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized bankfeed workspace")

	for _, d := range []string{"rules", "logs", "data", "import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir())
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "household", cfg.Project.Name)

	_, err = os.Stat(filepath.Join(dir, "rules", "rules.yaml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ".git"))
	assert.NoError(t, err)
}

func TestImportAndReport(t *testing.T) {
	dir := newWorkspace(t)
	writeFeed(t, dir, "anz-jan.csv",
		"Date,Details,Amount\n01/01/2024,Countdown,-42.10\n02/01/2024,Salary,2000.00\n03/01/2024,BP Connect,-80.00\n")

	out, err := runCommand(t, "import", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "anz-jan.csv: 3 imported, 0 duplicates")
	assert.Contains(t, out, "Imported 3 transactions")

	_, err = os.Stat(filepath.Join(dir, "data", "transactions.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "logs", "import-log.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "import", "processed", "anz-jan.csv"))
	assert.NoError(t, err, "feed file should move to processed/")

	out, err = runCommand(t, "report", "--dir", dir, "--month", "2024-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Month:        2024-01")
	assert.Contains(t, out, "Income:       2000.00")
	assert.Contains(t, out, "Expenses:     122.10")
	assert.Contains(t, out, "Savings rate: 93.9%")
}

func TestImportSecondRunAllDuplicates(t *testing.T) {
	dir := newWorkspace(t)
	feed := "Date,Details,Amount\n01/01/2024,Countdown,-42.10\n"
	writeFeed(t, dir, "anz-jan.csv", feed)

	_, err := runCommand(t, "import", "--dir", dir)
	require.NoError(t, err)

	writeFeed(t, dir, "anz-jan-again.csv", feed)
	out, err := runCommand(t, "import", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 transactions (1 duplicates")
}

func TestImportEmptyInbox(t *testing.T) {
	dir := newWorkspace(t)

	out, err := runCommand(t, "import", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No CSV files found")
}

func TestImportWithoutConfig(t *testing.T) {
	_, err := runCommand(t, "import", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bankfeed init")
}

func TestReportInvalidMonth(t *testing.T) {
	dir := newWorkspace(t)
	_, err := runCommand(t, "report", "--dir", dir, "--month", "January")
	require.Error(t, err)
}
