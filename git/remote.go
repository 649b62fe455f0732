package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// RemoteOperations defines the interface for Git remote network operations.
// This interface allows for testing by enabling mock implementations that
// don't require actual network access.
//
// The default implementation (defaultRemoteOps) delegates to go-git's
// network operations. Tests can replace the package-level remoteOps variable
// or pass WithRemoteOperations to avoid network calls.
type RemoteOperations interface {
	// Fetch downloads objects and refs from the remote repository.
	Fetch(ctx context.Context, repo *Repository, opts FetchOptions) error

	// Push uploads objects and refs to the remote repository.
	Push(ctx context.Context, repo *Repository, opts PushOptions) error

	// List returns the references advertised by the remote (ls-remote).
	List(ctx context.Context, repo *Repository, opts ListOptions) ([]*plumbing.Reference, error)
}

// defaultRemoteOps is the default implementation of RemoteOperations that
// uses go-git's network operations to interact with remote repositories.
type defaultRemoteOps struct{}

// Fetch implements RemoteOperations.Fetch using go-git's Fetch.
func (d *defaultRemoteOps) Fetch(ctx context.Context, repo *Repository, opts FetchOptions) error {
	fetchOpts := &gogit.FetchOptions{
		RemoteName: remoteNameOrDefault(opts.RemoteName),
		Force:      opts.Force,
	}

	auth, err := toAuthMethod(opts.Auth)
	if err != nil {
		return err
	}
	fetchOpts.Auth = auth

	for _, refSpec := range opts.RefSpecs {
		fetchOpts.RefSpecs = append(fetchOpts.RefSpecs, config.RefSpec(refSpec))
	}

	err = repo.repo.FetchContext(ctx, fetchOpts)
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return wrapError(err, fmt.Sprintf("failed to fetch from %s", fetchOpts.RemoteName))
	}

	return nil
}

// Push implements RemoteOperations.Push using go-git's Push.
func (d *defaultRemoteOps) Push(ctx context.Context, repo *Repository, opts PushOptions) error {
	pushOpts := &gogit.PushOptions{
		RemoteName: remoteNameOrDefault(opts.RemoteName),
		Force:      opts.Force,
	}

	auth, err := toAuthMethod(opts.Auth)
	if err != nil {
		return err
	}
	pushOpts.Auth = auth

	for _, refSpec := range opts.RefSpecs {
		pushOpts.RefSpecs = append(pushOpts.RefSpecs, config.RefSpec(refSpec))
	}

	err = repo.repo.PushContext(ctx, pushOpts)
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return wrapError(err, fmt.Sprintf("failed to push to %s", pushOpts.RemoteName))
	}

	return nil
}

// List implements RemoteOperations.List using go-git's Remote.List.
func (d *defaultRemoteOps) List(ctx context.Context, repo *Repository, opts ListOptions) ([]*plumbing.Reference, error) {
	remote, err := repo.repo.Remote(remoteNameOrDefault(opts.RemoteName))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to find remote %q", opts.RemoteName))
	}

	auth, err := toAuthMethod(opts.Auth)
	if err != nil {
		return nil, err
	}

	refs, err := remote.ListContext(ctx, &gogit.ListOptions{Auth: auth})
	if err != nil {
		// An empty repository advertises no references
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return nil, nil
		}
		return nil, wrapError(err, fmt.Sprintf("failed to list references on %s", opts.RemoteName))
	}

	return refs, nil
}

// remoteOps is the package-level variable that holds the RemoteOperations
// implementation. By default, it uses defaultRemoteOps which performs actual
// network operations. Tests can replace this with a mock implementation.
var remoteOps RemoteOperations = &defaultRemoteOps{}

func remoteNameOrDefault(name string) string {
	if name == "" {
		return "origin"
	}
	return name
}

func toAuthMethod(auth Auth) (transport.AuthMethod, error) {
	if auth == nil {
		return nil, nil
	}
	method, ok := auth.(transport.AuthMethod)
	if !ok {
		return nil, wrapError(fmt.Errorf("invalid auth type %T", auth), "failed to convert auth")
	}
	return method, nil
}

// splitRemoteShort splits "remote/branch" into its parts.
func splitRemoteShort(short string) (remote, branch string) {
	remote, branch, ok := strings.Cut(short, "/")
	if !ok {
		return "", short
	}
	return remote, branch
}

// ListRemotes returns all configured remotes for this repository.
// Each remote includes its name and configured URLs.
func (r *Repository) ListRemotes() ([]Remote, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, wrapError(err, "failed to list remotes")
	}

	result := make([]Remote, 0, len(remotes))
	for _, remote := range remotes {
		cfg := remote.Config()
		result = append(result, Remote{
			Name: cfg.Name,
			URLs: cfg.URLs,
		})
	}

	return result, nil
}

// Remote returns the configured remote with the given name.
// Returns an ErrNotFound error if no such remote exists.
func (r *Repository) Remote(name string) (Remote, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return Remote{}, wrapError(err, fmt.Sprintf("failed to get remote %q", name))
	}

	cfg := remote.Config()
	return Remote{Name: cfg.Name, URLs: cfg.URLs}, nil
}

// AddRemote adds a new remote to the repository configuration.
// With opts.Replace set, an existing remote of the same name is removed
// first, so the call always leaves the remote pointing at opts.URL.
//
// Example:
//
//	err := repo.AddRemote(git.RemoteOptions{
//	    Name:    "local-git-remote-0",
//	    URL:     "git@mirror-1:liferay/liferay-portal.git",
//	    Replace: true,
//	})
func (r *Repository) AddRemote(opts RemoteOptions) error {
	if opts.Replace {
		err := r.repo.DeleteRemote(opts.Name)
		if err != nil && !errors.Is(err, gogit.ErrRemoteNotFound) {
			return wrapError(err, "failed to replace remote")
		}
	}

	_, err := r.repo.CreateRemote(&config.RemoteConfig{
		Name: opts.Name,
		URLs: []string{opts.URL},
	})
	if err != nil {
		return wrapError(err, "failed to add remote")
	}

	return nil
}

// RemoveRemote removes a remote from the repository configuration.
// Returns an error if the remote doesn't exist (ErrNotFound).
func (r *Repository) RemoveRemote(name string) error {
	if err := r.repo.DeleteRemote(name); err != nil {
		return wrapError(err, "failed to remove remote")
	}

	return nil
}

// Fetch downloads objects and refs from the remote repository.
// The repository's authentication is used when opts.Auth is nil.
func (r *Repository) Fetch(ctx context.Context, opts FetchOptions) error {
	if opts.Auth == nil {
		opts.Auth = r.auth
	}
	//nolint:wrapcheck // Errors from remoteOps are already wrapped in their implementations
	return r.ops().Fetch(ctx, r, opts)
}

// Push uploads objects and refs to the remote repository.
// The repository's authentication is used when opts.Auth is nil.
func (r *Repository) Push(ctx context.Context, opts PushOptions) error {
	if opts.Auth == nil {
		opts.Auth = r.auth
	}
	//nolint:wrapcheck // Errors from remoteOps are already wrapped in their implementations
	return r.ops().Push(ctx, r, opts)
}

// RemoteBranches lists the branches that currently exist on a remote,
// querying the remote rather than the local remote-tracking refs.
//
// Example:
//
//	branches, err := repo.RemoteBranches(ctx, "local-git-remote-0")
func (r *Repository) RemoteBranches(ctx context.Context, remote string) ([]Branch, error) {
	refs, err := r.ops().List(ctx, r, ListOptions{RemoteName: remote, Auth: r.auth})
	if err != nil {
		//nolint:wrapcheck // Errors from remoteOps are already wrapped in their implementations
		return nil, err
	}

	branches := make([]Branch, 0, len(refs))
	for _, ref := range refs {
		if !ref.Name().IsBranch() || ref.Type() != plumbing.HashReference {
			continue
		}
		branches = append(branches, Branch{
			Name:   ref.Name().Short(),
			Hash:   ref.Hash(),
			Remote: remote,
		})
	}

	return branches, nil
}

// FetchBranch fetches branch src from remote straight into the local branch
// dst, creating or moving dst to the fetched commit.
func (r *Repository) FetchBranch(ctx context.Context, remote, src, dst string) error {
	return r.Fetch(ctx, FetchOptions{
		RemoteName: remote,
		RefSpecs:   []string{fmt.Sprintf("+%s:%s", plumbing.NewBranchReferenceName(src), plumbing.NewBranchReferenceName(dst))},
		Force:      true,
	})
}

// PushBranch pushes the local branch to remote under remoteBranch.
func (r *Repository) PushBranch(ctx context.Context, remote, local, remoteBranch string, force bool) error {
	refSpec := fmt.Sprintf("%s:%s", plumbing.NewBranchReferenceName(local), plumbing.NewBranchReferenceName(remoteBranch))
	if force {
		refSpec = "+" + refSpec
	}

	return r.Push(ctx, PushOptions{
		RemoteName: remote,
		RefSpecs:   []string{refSpec},
		Force:      force,
	})
}

// DeleteRemoteBranch deletes branch from remote by pushing an empty source.
func (r *Repository) DeleteRemoteBranch(ctx context.Context, remote, branch string) error {
	return r.Push(ctx, PushOptions{
		RemoteName: remote,
		RefSpecs:   []string{":" + plumbing.NewBranchReferenceName(branch).String()},
	})
}
