package git

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestRepository creates an in-memory test repository with an initial
// commit on master and returns it with the commit hash.
func createTestRepository(t *testing.T, opts ...RepositoryOption) (*Repository, string) {
	t.Helper()

	opts = append([]RepositoryOption{WithFilesystem(memfs.New())}, opts...)
	repo, err := Init("test-repo", opts...)
	require.NoError(t, err)

	hash, err := repo.CreateCommit(CommitOptions{
		Author:     "Test User",
		Email:      "test@example.com",
		Message:    "Initial commit",
		AllowEmpty: true,
	})
	require.NoError(t, err)

	return repo, hash
}

func TestCreateBranch(t *testing.T) {
	t.Run("creates branch at revision", func(t *testing.T) {
		repo, hash := createTestRepository(t)

		require.NoError(t, repo.CreateBranch("feature", hash, false))

		b, err := repo.LocalBranch("feature")
		require.NoError(t, err)
		assert.Equal(t, hash, b.Hash.String())
		assert.False(t, b.IsRemote())
	})

	t.Run("refuses existing branch without force", func(t *testing.T) {
		repo, hash := createTestRepository(t)
		require.NoError(t, repo.CreateBranch("feature", hash, false))

		err := repo.CreateBranch("feature", hash, false)
		require.Error(t, err)
		assert.Equal(t, platformerrors.CodeAlreadyExists, platformerrors.GetCode(err))
	})

	t.Run("force moves existing branch", func(t *testing.T) {
		repo, first := createTestRepository(t)
		require.NoError(t, repo.CreateBranch("feature", first, false))

		second, err := repo.CreateCommit(CommitOptions{
			Author: "Test User", Email: "test@example.com", Message: "Second", AllowEmpty: true,
		})
		require.NoError(t, err)

		require.NoError(t, repo.CreateBranch("feature", second, true))

		b, err := repo.LocalBranch("feature")
		require.NoError(t, err)
		assert.Equal(t, second, b.Hash.String())
	})

	t.Run("unknown revision", func(t *testing.T) {
		repo, _ := createTestRepository(t)

		err := repo.CreateBranch("feature", "does-not-exist", false)
		require.Error(t, err)
		assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
	})

	t.Run("requires name and ref", func(t *testing.T) {
		repo, hash := createTestRepository(t)
		assert.Error(t, repo.CreateBranch("", hash, false))
		assert.Error(t, repo.CreateBranch("feature", "", false))
	})
}

func TestListBranches(t *testing.T) {
	repo, hash := createTestRepository(t)
	require.NoError(t, repo.CreateBranch("feature", hash, false))

	names, err := repo.LocalBranchNames()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"master", "feature"}, names)

	exists, err := repo.BranchExists("feature")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.BranchExists("missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCurrentBranchAndCheckout(t *testing.T) {
	repo, hash := createTestRepository(t)

	current, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", current)

	require.NoError(t, repo.CreateBranch("feature", hash, false))
	require.NoError(t, repo.CheckoutBranch("feature", false))

	current, err = repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "feature", current)

	require.NoError(t, repo.CheckoutBranch("master", true))
	current, err = repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", current)

	assert.Error(t, repo.CheckoutBranch("", false))
}

func TestCurrentBranchUnborn(t *testing.T) {
	repo, err := Init("empty", WithFilesystem(memfs.New()))
	require.NoError(t, err)

	current, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Empty(t, current)
}

func TestDeleteBranch(t *testing.T) {
	t.Run("deletes merged branch", func(t *testing.T) {
		repo, hash := createTestRepository(t)
		require.NoError(t, repo.CreateBranch("feature", hash, false))

		require.NoError(t, repo.DeleteBranch("feature", false))

		_, err := repo.LocalBranch("feature")
		assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
	})

	t.Run("refuses current branch", func(t *testing.T) {
		repo, _ := createTestRepository(t)

		err := repo.DeleteBranch("master", true)
		require.Error(t, err)
		assert.Equal(t, platformerrors.CodeConflict, platformerrors.GetCode(err))
	})

	t.Run("refuses unmerged branch unless forced", func(t *testing.T) {
		repo, _ := createTestRepository(t)

		require.NoError(t, repo.CreateBranch("feature", "master", false))
		require.NoError(t, repo.CheckoutBranch("feature", false))
		_, err := repo.CreateCommit(CommitOptions{
			Author: "Test User", Email: "test@example.com", Message: "Feature work", AllowEmpty: true,
		})
		require.NoError(t, err)
		require.NoError(t, repo.CheckoutBranch("master", false))

		err = repo.DeleteBranch("feature", false)
		require.Error(t, err)
		assert.Equal(t, platformerrors.CodeConflict, platformerrors.GetCode(err))

		require.NoError(t, repo.DeleteBranch("feature", true))
	})

	t.Run("missing branch", func(t *testing.T) {
		repo, _ := createTestRepository(t)

		err := repo.DeleteBranch("missing", true)
		require.Error(t, err)
		assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
	})
}
