package git

import (
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CreateCommit records the staged changes of the working tree as a new
// commit on the current branch and returns its hash.
//
// Example:
//
//	hash, err := repo.CreateCommit(git.CommitOptions{
//	    Author:     "Build Agent",
//	    Email:      "ci@example.com",
//	    Message:    "Seed upstream",
//	    AllowEmpty: true,
//	})
func (r *Repository) CreateCommit(opts CommitOptions) (string, error) {
	if opts.Author == "" {
		return "", wrapError(gogit.ErrMissingAuthor, "failed to create commit")
	}
	if opts.Email == "" {
		return "", wrapError(fmt.Errorf("email is required"), "failed to create commit")
	}
	if opts.Message == "" {
		return "", wrapError(fmt.Errorf("message is required"), "failed to create commit")
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return "", wrapError(err, "failed to get worktree")
	}

	hash, err := wt.Commit(opts.Message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  opts.Author,
			Email: opts.Email,
			When:  time.Now(),
		},
		AllowEmptyCommits: opts.AllowEmpty,
	})
	if err != nil {
		return "", wrapError(err, "failed to create commit")
	}

	return hash.String(), nil
}
