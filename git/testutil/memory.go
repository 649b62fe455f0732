// Package testutil provides in-memory testing utilities for the git package.
// It includes helpers for creating in-memory repositories and test data,
// enabling tests to run quickly without external dependencies.
package testutil

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/jmgilman/go/localgit/git"
)

// NewMemoryRepo creates a new in-memory Git repository for testing.
// It uses billy's memory filesystem (memfs) to provide a fully functional
// repository without touching the actual filesystem.
//
// Options are passed through to git.Init, so tests can install mocked
// remote or CLI operations:
//
//	repo, fs, err := testutil.NewMemoryRepo(git.WithRemoteOperations(mock))
//	if err != nil {
//	    t.Fatal(err)
//	}
func NewMemoryRepo(opts ...git.RepositoryOption) (*git.Repository, billy.Filesystem, error) {
	fs := memfs.New()

	opts = append([]git.RepositoryOption{git.WithFilesystem(fs)}, opts...)
	repo, err := git.Init("/", opts...)
	if err != nil {
		//nolint:wrapcheck // Test utility - errors from git package are already wrapped
		return nil, nil, err
	}

	return repo, fs, nil
}

// NewMemoryWorkingDirectory creates an in-memory repository with an initial
// commit on the upstream branch and binds it to the test identity.
//
// Returns the working directory and the hash of the initial commit.
func NewMemoryWorkingDirectory(opts ...git.RepositoryOption) (*git.WorkingDirectory, string, error) {
	repo, _, err := NewMemoryRepo(opts...)
	if err != nil {
		return nil, "", err
	}

	hash, err := CreateTestCommit(repo, TestInitialCommit)
	if err != nil {
		return nil, "", err
	}

	wd, err := git.NewWorkingDirectory(repo, git.Identity{
		Username:       TestUsername,
		Repository:     TestRepositoryName,
		UpstreamBranch: TestUpstreamBranch,
	})
	if err != nil {
		//nolint:wrapcheck // Test utility - errors from git package are already wrapped
		return nil, "", err
	}

	return wd, hash, nil
}

// CreateTestCommit creates an empty commit with standard test author
// information and the provided commit message.
//
// Example:
//
//	hash, err := testutil.CreateTestCommit(repo, "Initial commit")
//	if err != nil {
//	    t.Fatal(err)
//	}
func CreateTestCommit(repo *git.Repository, message string) (string, error) {
	//nolint:wrapcheck // Test utility - errors from git package are already wrapped
	return repo.CreateCommit(git.CommitOptions{
		Author:     TestAuthor,
		Email:      TestEmail,
		Message:    message,
		AllowEmpty: true,
	})
}

// CreateTestFile creates a file with the specified content in the given
// filesystem. If the file already exists, it is truncated and overwritten.
func CreateTestFile(fs billy.Filesystem, path, content string) error {
	file, err := fs.Create(path)
	if err != nil {
		//nolint:wrapcheck // Test utility - simple file operation error
		return err
	}
	defer func() {
		_ = file.Close() // Ignore close error in test utility
	}()

	_, err = file.Write([]byte(content))
	//nolint:wrapcheck // Test utility - simple file operation error
	return err
}

// CreateTestCommitWithFile writes a file, stages it and commits it.
//
// Example:
//
//	hash, err := testutil.CreateTestCommitWithFile(
//	    repo, fs, "README.md", "# Test", "Add README")
func CreateTestCommitWithFile(repo *git.Repository, fs billy.Filesystem, path, content, message string) (string, error) {
	if err := CreateTestFile(fs, path, content); err != nil {
		return "", err
	}

	wt, err := repo.Underlying().Worktree()
	if err != nil {
		//nolint:wrapcheck // Test utility - errors from go-git are transparent
		return "", err
	}

	if _, err := wt.Add(path); err != nil {
		//nolint:wrapcheck // Test utility - errors from go-git are transparent
		return "", err
	}

	//nolint:wrapcheck // Test utility - errors from git package are already wrapped
	return repo.CreateCommit(git.CommitOptions{
		Author:  TestAuthor,
		Email:   TestEmail,
		Message: message,
	})
}
