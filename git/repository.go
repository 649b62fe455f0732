package git

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// Init initializes a new Git repository at the specified path.
// By default it creates a repository with a working tree using the OS
// filesystem. Use WithBare() for a bare repository, which is how mirror
// nodes are laid out on disk.
//
// Example:
//
//	repo, err := git.Init("/srv/mirrors/liferay-portal.git", git.WithBare())
func Init(path string, opts ...RepositoryOption) (*Repository, error) {
	options, path, err := applyOptions(path, opts)
	if err != nil {
		return nil, err
	}

	fs := options.fs
	if err := fs.MkdirAll(path, 0o755); err != nil {
		return nil, wrapError(err, "failed to create repository directory")
	}

	scopedFs, err := fs.Chroot(path)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to path")
	}

	if options.bare {
		storage := filesystem.NewStorage(scopedFs, cache.NewObjectLRUDefault())
		repo, err := gogit.Init(storage, nil)
		if err != nil {
			return nil, wrapError(err, "failed to initialize bare repository")
		}
		return newRepository(path, repo, scopedFs, options), nil
	}

	// Non-bare repositories keep their storage under .git
	dotGitFs, err := scopedFs.Chroot(".git")
	if err != nil {
		return nil, wrapError(err, "failed to create .git filesystem")
	}

	storage := filesystem.NewStorage(dotGitFs, cache.NewObjectLRUDefault())
	repo, err := gogit.Init(storage, scopedFs)
	if err != nil {
		return nil, wrapError(err, "failed to initialize repository")
	}

	return newRepository(path, repo, scopedFs, options), nil
}

// Open opens an existing Git repository from the specified path.
// It detects whether the repository is bare by looking for a .git directory.
//
// Example:
//
//	repo, err := git.Open("/path/to/liferay-portal")
//	if err != nil {
//	    return err
//	}
func Open(path string, opts ...RepositoryOption) (*Repository, error) {
	options, path, err := applyOptions(path, opts)
	if err != nil {
		return nil, err
	}

	scopedFs, err := options.fs.Chroot(path)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to path")
	}

	var repo *gogit.Repository

	if stat, statErr := scopedFs.Stat(".git"); statErr == nil && stat.IsDir() {
		dotGitFs, err := scopedFs.Chroot(".git")
		if err != nil {
			return nil, wrapError(err, "failed to scope filesystem to .git")
		}

		storage := filesystem.NewStorage(dotGitFs, cache.NewObjectLRUDefault())
		repo, err = gogit.Open(storage, scopedFs)
		if err != nil {
			return nil, wrapError(err, "failed to open repository")
		}
	} else {
		storage := filesystem.NewStorage(scopedFs, cache.NewObjectLRUDefault())
		repo, err = gogit.Open(storage, nil)
		if err != nil {
			return nil, wrapError(err, "failed to open repository")
		}
	}

	return newRepository(path, repo, scopedFs, options), nil
}

// applyOptions resolves opts. Without WithFilesystem, path is made absolute
// and resolved against the OS filesystem root.
func applyOptions(path string, opts []RepositoryOption) (*repositoryOptions, string, error) {
	options := &repositoryOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.fs == nil {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, "", wrapError(err, "failed to resolve repository path")
		}
		options.fs = osfs.New(string(filepath.Separator))
		path = abs
	}
	return options, path, nil
}

func newRepository(path string, repo *gogit.Repository, fs billy.Filesystem, options *repositoryOptions) *Repository {
	r := &Repository{
		path:      path,
		repo:      repo,
		fs:        fs,
		remoteOps: options.remoteOps,
		cliOps:    options.cliOps,
		auth:      options.auth,
	}
	if r.cliOps == nil {
		r.cliOps = newDefaultCLIOps(nil, path, fs)
	}
	return r
}

// Underlying returns the underlying go-git repository for advanced operations.
func (r *Repository) Underlying() *gogit.Repository {
	return r.repo
}

// Filesystem returns the billy filesystem scoped to the repository root.
func (r *Repository) Filesystem() billy.Filesystem {
	return r.fs
}

// Path returns the path the repository was opened or initialized at.
func (r *Repository) Path() string {
	return r.path
}

// ops returns the RemoteOperations in effect for the repository.
func (r *Repository) ops() RemoteOperations {
	if r.remoteOps != nil {
		return r.remoteOps
	}
	return remoteOps
}
