package git

import (
	gogit "github.com/go-git/go-git/v5"
)

// ResetHard resets the index and working tree to HEAD, discarding all
// tracked modifications.
func (r *Repository) ResetHard() error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return wrapError(err, "failed to get worktree")
	}

	if err := wt.Reset(&gogit.ResetOptions{Mode: gogit.HardReset}); err != nil {
		return wrapError(err, "failed to reset worktree")
	}

	return nil
}

// Clean removes untracked files and directories from the working tree.
func (r *Repository) Clean() error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return wrapError(err, "failed to get worktree")
	}

	if err := wt.Clean(&gogit.CleanOptions{Dir: true}); err != nil {
		return wrapError(err, "failed to clean worktree")
	}

	return nil
}
