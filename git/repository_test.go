package git

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAndOpenOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "liferay-portal")

	repo, err := Init(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, repo.Path())

	_, err = repo.CreateCommit(CommitOptions{
		Author: "Test User", Email: "test@example.com", Message: "Initial commit", AllowEmpty: true,
	})
	require.NoError(t, err)

	opened, err := Open(dir)
	require.NoError(t, err)

	current, err := opened.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", current)
}

func TestOpenMemoryRepository(t *testing.T) {
	fs := memfs.New()
	_, err := Init("repo", WithFilesystem(fs))
	require.NoError(t, err)

	repo, err := Open("repo", WithFilesystem(fs))
	require.NoError(t, err)
	assert.Equal(t, "repo", repo.Path())
	assert.True(t, isMemoryFilesystem(repo.Filesystem()))
}
