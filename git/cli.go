package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/exec"
)

// CLIOperations defines the operations go-git cannot perform and which are
// delegated to the git CLI. It follows the same pattern as RemoteOperations
// so the CLI can be replaced in tests.
//
// All operations require a real OS filesystem and will return an error if
// used with memory-based filesystems (like memfs).
type CLIOperations interface {
	// Rebase replays branch on top of onto. A conflicting rebase is
	// aborted before the error is returned.
	Rebase(ctx context.Context, onto, branch string) error

	// RebaseAbort aborts a rebase in progress. It is a no-op when no
	// rebase is in progress.
	RebaseAbort(ctx context.Context) error
}

// defaultCLIOps is the default implementation of CLIOperations that uses
// the git CLI via the exec module.
type defaultCLIOps struct {
	command  exec.Executor
	repoPath string
	fs       billy.Filesystem
}

// newDefaultCLIOps creates a new default CLIOperations implementation.
// If command is nil, a new default command is created.
func newDefaultCLIOps(command exec.Executor, repoPath string, fs billy.Filesystem) CLIOperations {
	if command == nil {
		command = exec.New()
	}
	return &defaultCLIOps{
		command:  command,
		repoPath: repoPath,
		fs:       fs,
	}
}

// Rebase runs 'git rebase <onto> <branch>'.
func (c *defaultCLIOps) Rebase(ctx context.Context, onto, branch string) error {
	if err := c.requireOSFilesystem(); err != nil {
		return err
	}

	git := exec.NewWrapper(c.command, "git")
	_, err := git.WithDir(c.repoPath).WithContext(ctx).Run("rebase", onto, branch)
	if err == nil {
		return nil
	}

	mapped := mapCLIError(err, fmt.Sprintf("failed to rebase %s onto %s", branch, onto))

	if platformerrors.GetCode(mapped) == platformerrors.CodeConflict {
		if abortErr := c.RebaseAbort(ctx); abortErr != nil {
			return errors.Join(mapped, abortErr)
		}
	}

	return mapped
}

// RebaseAbort runs 'git rebase --abort'.
func (c *defaultCLIOps) RebaseAbort(ctx context.Context) error {
	if err := c.requireOSFilesystem(); err != nil {
		return err
	}

	git := exec.NewWrapper(c.command, "git")
	_, err := git.WithDir(c.repoPath).WithContext(ctx).Run("rebase", "--abort")
	if err == nil {
		return nil
	}

	var execErr *exec.ExecError
	if errors.As(err, &execErr) && strings.Contains(execErr.Stderr, "No rebase in progress") {
		return nil
	}

	return mapCLIError(err, "failed to abort rebase")
}

func (c *defaultCLIOps) requireOSFilesystem() error {
	if isMemoryFilesystem(c.fs) {
		return wrapError(
			platformerrors.New(platformerrors.CodeNotImplemented, "git CLI operations not supported with memory filesystem"),
			"memory filesystem detected",
		)
	}
	return nil
}

// mapCLIError converts git CLI errors into platform errors by inspecting
// the captured stderr.
func mapCLIError(err error, context string) error {
	var execErr *exec.ExecError
	if !errors.As(err, &execErr) {
		return wrapError(err, context)
	}

	// Rebase reports conflicts on stdout and the failing commit on stderr
	stderr := execErr.Stderr
	output := execErr.Stdout + stderr

	switch {
	case strings.Contains(output, "CONFLICT"),
		strings.Contains(output, "could not apply"),
		strings.Contains(output, "Resolve all conflicts"):
		return wrapError(
			platformerrors.Wrap(err, platformerrors.CodeConflict, "rebase stopped on conflicts"),
			context,
		)
	case strings.Contains(stderr, "invalid upstream"),
		strings.Contains(stderr, "no such branch"):
		return wrapError(notFoundError(stderr), context)
	case strings.Contains(stderr, "Your local changes"),
		strings.Contains(stderr, "uncommitted changes"):
		return wrapError(gogit.ErrWorktreeNotClean, context)
	}

	return wrapError(
		platformerrors.Wrap(err, platformerrors.CodeExecutionFailed, strings.TrimSpace(stderr)),
		context,
	)
}

func notFoundError(stderr string) error {
	return platformerrors.New(platformerrors.CodeNotFound, strings.TrimSpace(stderr))
}

// Rebase replays branch on top of onto using the git CLI.
//
// Example:
//
//	err := repo.Rebase(ctx, "master", "cache-liferay-def456-jane-abc123")
func (r *Repository) Rebase(ctx context.Context, onto, branch string) error {
	//nolint:wrapcheck // Errors from cliOps are already wrapped in their implementations
	return r.cliOps.Rebase(ctx, onto, branch)
}

// RebaseAbort aborts any rebase in progress.
func (r *Repository) RebaseAbort(ctx context.Context) error {
	//nolint:wrapcheck // Errors from cliOps are already wrapped in their implementations
	return r.cliOps.RebaseAbort(ctx)
}
