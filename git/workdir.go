package git

import (
	"fmt"
)

// Identity names the hosted repository a working directory belongs to.
type Identity struct {
	// Username is the owner of the hosted repository, e.g. "liferay".
	Username string

	// Repository is the hosted repository name, e.g. "liferay-portal".
	Repository string

	// UpstreamBranch is the branch sender work is based on, e.g. "master".
	UpstreamBranch string
}

// Validate reports missing identity fields.
func (i Identity) Validate() error {
	switch {
	case i.Username == "":
		return wrapError(fmt.Errorf("username is required"), "invalid identity")
	case i.Repository == "":
		return wrapError(fmt.Errorf("repository name is required"), "invalid identity")
	case i.UpstreamBranch == "":
		return wrapError(fmt.Errorf("upstream branch is required"), "invalid identity")
	}
	return nil
}

// WorkingDirectory is a Repository bound to the identity of the hosted
// repository it was cloned from. It is the unit the branch cache engine
// operates on.
type WorkingDirectory struct {
	*Repository
	identity Identity
}

// NewWorkingDirectory binds repo to identity.
//
// Example:
//
//	repo, err := git.Open("/builds/liferay-portal")
//	if err != nil {
//	    return err
//	}
//	wd, err := git.NewWorkingDirectory(repo, git.Identity{
//	    Username:       "liferay",
//	    Repository:     "liferay-portal",
//	    UpstreamBranch: "master",
//	})
func NewWorkingDirectory(repo *Repository, identity Identity) (*WorkingDirectory, error) {
	if repo == nil {
		return nil, wrapError(fmt.Errorf("repository is required"), "failed to create working directory")
	}
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	return &WorkingDirectory{Repository: repo, identity: identity}, nil
}

// RepositoryUsername returns the owner of the hosted repository.
func (w *WorkingDirectory) RepositoryUsername() string {
	return w.identity.Username
}

// RepositoryName returns the name of the hosted repository.
func (w *WorkingDirectory) RepositoryName() string {
	return w.identity.Repository
}

// UpstreamBranchName returns the upstream branch name.
func (w *WorkingDirectory) UpstreamBranchName() string {
	return w.identity.UpstreamBranch
}
