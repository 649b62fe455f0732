// Package git provides a thin wrapper around go-git for the branch cache.
//
// The package exposes exactly the working-directory primitives the cache
// engine consumes: branch and remote bookkeeping, fetching a single branch
// into a local branch, pushing or deleting a branch on a remote, listing
// the branches a remote advertises, hard reset and clean of the worktree,
// and rebasing one branch onto another.
//
// # Architecture
//
//  1. Thin wrappers over go-git (not reimplementing Git)
//  2. Billy filesystem for all I/O operations
//  3. Escape hatches via Underlying() for advanced use cases
//  4. RemoteOperations and CLIOperations interfaces enable testing by mocking operations
//  5. Rebase uses the git CLI through the exec module, since go-git cannot rebase
//
// # Core Types
//
// Repository wraps go-git and holds the operation sets used for network and
// CLI work. WorkingDirectory binds a Repository to the Identity of the
// hosted repository (owner, name and upstream branch) so mirror URLs can be
// derived from it.
//
// Branch and Remote are value types. A Branch with a non-empty Remote field
// lives on that remote.
//
// # Remote Branch Operations
//
// Mirrors are addressed by remote name. Branches move between the local
// repository and a mirror through explicit refspecs:
//
//	// ls-remote
//	branches, err := wd.RemoteBranches(ctx, "local-git-remote-0")
//
//	// +refs/heads/feature:refs/heads/cache-...
//	err = wd.FetchBranch(ctx, "sender-temp", "feature", cacheBranch)
//
//	// +refs/heads/cache-...:refs/heads/cache-...-1700000000000
//	err = wd.PushBranch(ctx, "local-git-remote-0", cacheBranch, timestampBranch, true)
//
//	// :refs/heads/cache-...
//	err = wd.DeleteRemoteBranch(ctx, "local-git-remote-0", cacheBranch)
//
// # Authentication
//
// Authentication is configured once per repository with WithAuth and used
// by every network operation:
//
//	auth, err := git.SSHKeyFile("git", "/home/jenkins/.ssh/id_rsa", "")
//	repo, err := git.Open(dir, git.WithAuth(auth))
//
// # Error Handling
//
// All errors are wrapped with platform error types from the errors library.
// go-git sentinel errors and git CLI failures are classified as NOT_FOUND,
// ALREADY_EXISTS, CONFLICT, UNAUTHORIZED, INVALID_INPUT, TIMEOUT,
// NETWORK_ERROR or EXECUTION_FAILED:
//
//	if errors.GetCode(err) == errors.CodeNotFound {
//	    // branch or remote does not exist
//	}
//
// # Testing
//
// Use git.WithFilesystem(memfs.New()) for in-memory repositories and
// WithRemoteOperations / WithCLIOperations to replace network and CLI work.
// The testutil package provides helpers for both.
package git
