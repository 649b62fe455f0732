package git

import (
	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Repository wraps a go-git repository with platform conventions.
// It stores the underlying go-git repository, the billy filesystem used for
// all I/O, and the operation sets used for network and CLI work so tests can
// substitute them.
type Repository struct {
	path      string
	repo      *gogit.Repository
	fs        billy.Filesystem
	remoteOps RemoteOperations
	cliOps    CLIOperations
	auth      Auth
}

// Branch is a simple value type representing a Git branch.
// Remote is empty for local branches and holds the remote name otherwise.
type Branch struct {
	Name   string
	Hash   plumbing.Hash
	Remote string
}

// IsRemote reports whether the branch lives on a remote.
func (b Branch) IsRemote() bool {
	return b.Remote != ""
}

// Remote is a simple value type representing a Git remote.
type Remote struct {
	Name string
	URLs []string
}

// URL returns the first configured URL of the remote, or "" if none.
func (r Remote) URL() string {
	if len(r.URLs) == 0 {
		return ""
	}
	return r.URLs[0]
}

// Auth is an interface for authentication methods.
// It is satisfied by go-git's transport.AuthMethod.
type Auth interface {
	// Marker interface - satisfied by go-git transport.AuthMethod
}

// FetchOptions configures fetch operations.
type FetchOptions struct {
	RemoteName string // Default: "origin"
	RefSpecs   []string
	Auth       Auth
	Force      bool
}

// PushOptions configures push operations.
type PushOptions struct {
	RemoteName string // Default: "origin"
	RefSpecs   []string
	Auth       Auth
	Force      bool
}

// ListOptions configures remote reference listing.
type ListOptions struct {
	RemoteName string
	Auth       Auth
}

// CommitOptions configures commit creation.
type CommitOptions struct {
	Author     string
	Email      string
	Message    string
	AllowEmpty bool
}

// RemoteOptions configures remote management.
type RemoteOptions struct {
	Name string
	URL  string

	// Replace removes an existing remote with the same name first.
	Replace bool
}

// RepositoryOption configures repository creation operations (Init, Open).
type RepositoryOption func(*repositoryOptions)

// repositoryOptions holds the configuration for repository creation.
type repositoryOptions struct {
	fs        billy.Filesystem
	remoteOps RemoteOperations
	cliOps    CLIOperations
	bare      bool
	auth      Auth
}

// WithFilesystem sets the billy filesystem to use for repository operations.
// If not provided, the OS filesystem is used and the path is made absolute.
//
// Example:
//
//	repo, err := git.Init("/path/to/repo", git.WithFilesystem(memfs.New()))
func WithFilesystem(fs billy.Filesystem) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.fs = fs
	}
}

// WithRemoteOperations sets the RemoteOperations implementation used for
// fetch, push and listing. If not provided, the repository uses go-git's
// network operations.
//
// This option is primarily useful for testing, allowing consumers to mock
// network operations without actual network calls.
func WithRemoteOperations(ops RemoteOperations) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.remoteOps = ops
	}
}

// WithCLIOperations sets the CLIOperations implementation used for rebase.
// If not provided, the git CLI is invoked through the exec module.
func WithCLIOperations(ops CLIOperations) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.cliOps = ops
	}
}

// WithBare creates a bare repository (no working tree).
// Only applicable to Init operations.
func WithBare() RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.bare = true
	}
}

// WithAuth sets the authentication used by every network operation of the
// repository.
//
// Example:
//
//	auth, _ := git.SSHKeyFile("git", "~/.ssh/id_rsa")
//	repo, err := git.Open("/path/to/repo", git.WithAuth(auth))
func WithAuth(auth Auth) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.auth = auth
	}
}
