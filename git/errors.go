package git

import (
	"context"
	"errors"
	"fmt"
	"net"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	platformerrors "github.com/jmgilman/go/errors"
)

// wrapError wraps an error with context, classifying it as a platform error type.
// It preserves the original error chain for errors.Is/errors.As compatibility.
// If err is nil, returns nil.
func wrapError(err error, context string) error {
	if err == nil {
		return nil
	}

	// First classify the go-git error to a platform error type
	classified := classifyError(err)

	// Then wrap with context
	return fmt.Errorf("%s: %w", context, classified)
}

// classifyError maps go-git errors to platform error types.
// It uses errors.Is() to match go-git error types and returns
// the appropriate platform error code. Unknown errors are passed
// through unchanged to preserve their original information.
//
//nolint:gocyclo,cyclop // High complexity is acceptable for error classification - each case is a simple mapping
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	// Repository not found errors → ErrNotFound
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return platformerrors.New(platformerrors.CodeNotFound, "repository does not exist")
	}
	if errors.Is(err, transport.ErrRepositoryNotFound) {
		return platformerrors.New(platformerrors.CodeNotFound, "repository not found")
	}

	// Reference not found errors → ErrNotFound
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return platformerrors.New(platformerrors.CodeNotFound, "reference not found")
	}

	// Repository already exists errors → ErrAlreadyExists
	if errors.Is(err, gogit.ErrRepositoryAlreadyExists) {
		return platformerrors.New(platformerrors.CodeAlreadyExists, "repository already exists")
	}

	// Remote errors
	if errors.Is(err, gogit.ErrRemoteNotFound) {
		return platformerrors.New(platformerrors.CodeNotFound, "remote not found")
	}
	if errors.Is(err, gogit.ErrRemoteExists) {
		return platformerrors.New(platformerrors.CodeAlreadyExists, "remote already exists")
	}

	// Authentication/Authorization errors → ErrUnauthorized
	if errors.Is(err, transport.ErrAuthenticationRequired) {
		return platformerrors.New(platformerrors.CodeUnauthorized, "authentication required")
	}
	if errors.Is(err, transport.ErrAuthorizationFailed) {
		return platformerrors.New(platformerrors.CodeUnauthorized, "authorization failed")
	}

	// Dirty worktree/conflicts → ErrConflict
	if errors.Is(err, gogit.ErrWorktreeNotClean) {
		return platformerrors.New(platformerrors.CodeConflict, "worktree is not clean")
	}

	// Empty remote repository → ErrNotFound (nothing to fetch)
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return platformerrors.New(platformerrors.CodeNotFound, "remote repository is empty")
	}

	// Invalid input errors → ErrInvalidInput
	if errors.Is(err, gogit.ErrMissingURL) {
		return platformerrors.New(platformerrors.CodeInvalidInput, "URL is required")
	}
	if errors.Is(err, gogit.ErrMissingAuthor) {
		return platformerrors.New(platformerrors.CodeInvalidInput, "author is required")
	}
	if errors.Is(err, plumbing.ErrInvalidType) {
		return platformerrors.New(platformerrors.CodeInvalidInput, "invalid object type")
	}
	if errors.Is(err, gogit.ErrMissingName) {
		return platformerrors.New(platformerrors.CodeInvalidInput, "name is required")
	}

	// Already exists errors → ErrAlreadyExists
	if errors.Is(err, gogit.ErrBranchExists) {
		return platformerrors.New(platformerrors.CodeAlreadyExists, "branch already exists")
	}
	if errors.Is(err, gogit.ErrDestinationExists) {
		return platformerrors.New(platformerrors.CodeAlreadyExists, "destination already exists")
	}

	// Empty commit error → ErrConflict
	if errors.Is(err, gogit.ErrEmptyCommit) {
		return platformerrors.New(platformerrors.CodeConflict, "cannot create empty commit: working tree is clean")
	}

	// Fetching a branch the remote does not advertise → ErrNotFound
	var noMatch gogit.NoMatchingRefSpecError
	if errors.As(err, &noMatch) {
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "remote branch not found")
	}

	// Rejected non-forced update → ErrConflict
	if errors.Is(err, gogit.ErrNonFastForwardUpdate) || errors.Is(err, gogit.ErrForceNeeded) {
		return platformerrors.Wrap(err, platformerrors.CodeConflict, "remote rejected non fast-forward update")
	}

	// Transport level failures are worth retrying
	if errors.Is(err, transport.ErrInvalidAuthMethod) {
		return platformerrors.New(platformerrors.CodeUnauthorized, "invalid authentication method")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return platformerrors.Wrap(err, platformerrors.CodeTimeout, "remote operation timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return platformerrors.Wrap(err, platformerrors.CodeNetwork, "network failure")
	}

	// Pass through unknown errors unchanged to preserve original information
	return err
}
