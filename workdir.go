package localgit

import (
	"context"

	"github.com/jmgilman/go/localgit/git"
)

// WorkingDirectory is the local clone a Syncer operates on.
//
// *git.WorkingDirectory satisfies it. Remote names passed to the network
// methods must already be registered with AddRemote.
type WorkingDirectory interface {
	// RepositoryUsername returns the owner of the hosted repository.
	RepositoryUsername() string
	// RepositoryName returns the hosted repository name.
	RepositoryName() string
	// UpstreamBranchName returns the branch senders are based on.
	UpstreamBranchName() string

	Remote(name string) (git.Remote, error)
	AddRemote(opts git.RemoteOptions) error
	RemoveRemote(name string) error

	LocalBranchNames() ([]string, error)
	LocalBranch(name string) (git.Branch, error)
	BranchExists(name string) (bool, error)
	// CurrentBranch returns "" when HEAD is detached or unborn.
	CurrentBranch() (string, error)
	CreateBranch(name, ref string, force bool) error
	DeleteBranch(name string, force bool) error
	CheckoutBranch(name string, force bool) error

	RemoteBranches(ctx context.Context, remote string) ([]git.Branch, error)
	FetchBranch(ctx context.Context, remote, src, dst string) error
	PushBranch(ctx context.Context, remote, local, remoteBranch string, force bool) error
	DeleteRemoteBranch(ctx context.Context, remote, branch string) error

	Rebase(ctx context.Context, onto, branch string) error
	RebaseAbort(ctx context.Context) error
	ResetHard() error
	Clean() error
}

var _ WorkingDirectory = (*git.WorkingDirectory)(nil)
