package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestInitAndIsRepo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()

	assert.False(t, IsRepo(dir), "empty dir should not be a repo")
	require.NoError(t, Init(dir))
	assert.True(t, IsRepo(dir))
}

func TestCommitAll(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	// Nothing to commit in a fresh repo.
	hash, err := CommitAll(dir, "empty", "bankfeed", "bankfeed@localhost")
	require.NoError(t, err)
	assert.Empty(t, hash)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "transactions.csv"), []byte("date\n"), 0o644))

	changed, err := HasChanges(dir)
	require.NoError(t, err)
	assert.True(t, changed)

	hash, err = CommitAll(dir, "import: anz-may.csv", "bankfeed", "bankfeed@localhost")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	changed, err = HasChanges(dir)
	require.NoError(t, err)
	assert.False(t, changed, "worktree should be clean after commit")

	log := exec.Command("git", "log", "--format=%s|%an <%ae>", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "import: anz-may.csv")
	assert.Contains(t, string(out), "bankfeed <bankfeed@localhost>")
}
