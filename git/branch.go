package git

import (
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	platformerrors "github.com/jmgilman/go/errors"
)

// CreateBranch creates a new local branch pointing at the specified reference.
// The reference can be a commit hash, a branch name, or any revision go-git
// can resolve.
//
// When force is true an existing branch with the same name is moved to the
// new commit instead of failing. This is how a branch is reset to an exact
// SHA without checking it out.
//
// Parameters:
//   - name: the name of the new branch (without refs/heads/ prefix)
//   - ref: the reference to create the branch from
//   - force: overwrite an existing branch
//
// Returns an error if the reference cannot be resolved (ErrNotFound) or the
// branch already exists and force is false (ErrAlreadyExists).
//
// Example:
//
//	err := repo.CreateBranch("cache-liferay-def456-jane-abc123", senderSHA, true)
func (r *Repository) CreateBranch(name string, ref string, force bool) error {
	if name == "" {
		return wrapError(fmt.Errorf("branch name is required"), "failed to create branch")
	}
	if ref == "" {
		return wrapError(fmt.Errorf("reference is required"), "failed to create branch")
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return wrapError(err, fmt.Sprintf("failed to resolve reference %q", ref))
	}

	branchRef := plumbing.NewBranchReferenceName(name)

	if !force {
		if _, err := r.repo.Reference(branchRef, false); err == nil {
			return wrapError(gogit.ErrBranchExists, fmt.Sprintf("failed to create branch %q", name))
		}
	}

	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(branchRef, *hash)); err != nil {
		return wrapError(err, fmt.Sprintf("failed to create branch %q", name))
	}

	return nil
}

// ListBranches returns all local branches and remote-tracking branches.
// Remote-tracking branches carry the remote name in Remote and the branch
// name without the remote prefix in Name.
func (r *Repository) ListBranches() ([]Branch, error) {
	var branches []Branch

	refs, err := r.repo.References()
	if err != nil {
		return nil, wrapError(err, "failed to list references")
	}

	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()

		switch {
		case name.IsBranch():
			branches = append(branches, Branch{
				Name: name.Short(),
				Hash: ref.Hash(),
			})
		case name.IsRemote():
			remote, branch := splitRemoteShort(name.Short())
			branches = append(branches, Branch{
				Name:   branch,
				Hash:   ref.Hash(),
				Remote: remote,
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err, "failed to iterate references")
	}

	return branches, nil
}

// LocalBranchNames returns the names of all local branches.
func (r *Repository) LocalBranchNames() ([]string, error) {
	branches, err := r.ListBranches()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(branches))
	for _, b := range branches {
		if !b.IsRemote() {
			names = append(names, b.Name)
		}
	}
	return names, nil
}

// LocalBranch returns the local branch with the given name.
// Returns an ErrNotFound error if the branch does not exist.
func (r *Repository) LocalBranch(name string) (Branch, error) {
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		return Branch{}, wrapError(err, fmt.Sprintf("failed to find branch %q", name))
	}
	return Branch{Name: name, Hash: ref.Hash()}, nil
}

// BranchExists reports whether a local branch with the given name exists.
func (r *Repository) BranchExists(name string) (bool, error) {
	_, err := r.LocalBranch(name)
	if err == nil {
		return true, nil
	}
	if platformerrors.GetCode(err) == platformerrors.CodeNotFound {
		return false, nil
	}
	return false, err
}

// CurrentBranch returns the name of the checked out branch. It returns an
// empty string when HEAD is detached or unborn.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", wrapError(err, "failed to get HEAD")
	}

	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return "", nil
	}

	// An unborn branch has no commit yet
	if _, err := r.repo.Reference(head.Target(), false); err != nil {
		return "", nil
	}

	return head.Target().Short(), nil
}

// CheckoutBranch switches the working tree to the specified branch.
// With force set, local modifications are discarded.
//
// Example:
//
//	err := repo.CheckoutBranch("master", false)
func (r *Repository) CheckoutBranch(name string, force bool) error {
	if name == "" {
		return wrapError(fmt.Errorf("branch name is required"), "failed to checkout branch")
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return wrapError(err, "failed to get worktree")
	}

	if err := wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Force:  force,
	}); err != nil {
		return wrapError(err, fmt.Sprintf("failed to checkout branch %q", name))
	}

	return nil
}

// DeleteBranch deletes a local branch.
// The current branch cannot be deleted. Unless force is true, a branch with
// commits not reachable from HEAD is refused.
//
// Returns an ErrNotFound error if the branch does not exist.
func (r *Repository) DeleteBranch(name string, force bool) error {
	if name == "" {
		return wrapError(fmt.Errorf("branch name is required"), "failed to delete branch")
	}

	branchRef := plumbing.NewBranchReferenceName(name)

	ref, err := r.repo.Reference(branchRef, false)
	if err != nil {
		return wrapError(err, fmt.Sprintf("failed to find branch %q", name))
	}

	current, err := r.CurrentBranch()
	if err != nil {
		return err
	}
	if current == name {
		return wrapError(
			platformerrors.Newf(platformerrors.CodeConflict, "cannot delete current branch %q", name),
			"failed to delete branch",
		)
	}

	if !force {
		if err := r.ensureMerged(name, ref.Hash()); err != nil {
			return err
		}
	}

	if err := r.repo.Storer.RemoveReference(branchRef); err != nil {
		return wrapError(err, fmt.Sprintf("failed to delete branch %q", name))
	}

	return nil
}

// ensureMerged fails when the commit at hash is not an ancestor of HEAD.
func (r *Repository) ensureMerged(name string, hash plumbing.Hash) error {
	head, err := r.repo.Head()
	if err != nil {
		return wrapError(err, "failed to get HEAD")
	}

	branchCommit, err := r.repo.CommitObject(hash)
	if err != nil {
		return wrapError(err, fmt.Sprintf("failed to get commit for branch %q", name))
	}

	headCommit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return wrapError(err, "failed to get HEAD commit")
	}

	if branchCommit.Hash == headCommit.Hash {
		return nil
	}

	isAncestor, err := branchCommit.IsAncestor(headCommit)
	if err != nil {
		return wrapError(err, "failed to check if branch is merged")
	}
	if !isAncestor {
		return wrapError(
			platformerrors.Newf(platformerrors.CodeConflict, "branch %q has unmerged changes", name),
			"failed to delete branch",
		)
	}

	return nil
}
