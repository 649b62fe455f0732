package git

import (
	"errors"
	"fmt"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want platformerrors.ErrorCode
	}{
		{"reference not found", plumbing.ErrReferenceNotFound, platformerrors.CodeNotFound},
		{"remote not found", gogit.ErrRemoteNotFound, platformerrors.CodeNotFound},
		{"remote exists", gogit.ErrRemoteExists, platformerrors.CodeAlreadyExists},
		{"branch exists", gogit.ErrBranchExists, platformerrors.CodeAlreadyExists},
		{"auth required", transport.ErrAuthenticationRequired, platformerrors.CodeUnauthorized},
		{"dirty worktree", gogit.ErrWorktreeNotClean, platformerrors.CodeConflict},
		{"non fast-forward", gogit.ErrNonFastForwardUpdate, platformerrors.CodeConflict},
		{"wrapped go-git error", fmt.Errorf("outer: %w", plumbing.ErrReferenceNotFound), platformerrors.CodeNotFound},
		{"unknown error", errors.New("mystery"), platformerrors.CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapError(tt.err, "operation failed")
			assert.Equal(t, tt.want, platformerrors.GetCode(err))
			assert.Contains(t, err.Error(), "operation failed")
		})
	}

	assert.NoError(t, wrapError(nil, "nothing"))
}

func TestWrapErrorKeepsUnknownCause(t *testing.T) {
	cause := errors.New("mystery")
	err := wrapError(cause, "context")
	assert.ErrorIs(t, err, cause)
}
