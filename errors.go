package localgit

import (
	"context"
	"errors"

	platformerrors "github.com/jmgilman/go/errors"
)

// ErrNoMirrors is returned when no mirror hostnames are configured.
var ErrNoMirrors = platformerrors.New(platformerrors.CodeInvalidConfig, "no cache hostnames configured")

func invalidConfig(format string, args ...any) error {
	return platformerrors.Newf(platformerrors.CodeInvalidConfig, format, args...)
}

// attemptResult is the outcome of one synchronization attempt.
type attemptResult struct {
	branch string
	err    error
	// retryable is false for failures another attempt cannot fix.
	retryable bool
}

func succeeded(branch string) attemptResult {
	return attemptResult{branch: branch}
}

// failed tags err. Configuration errors, input errors and cancellation of
// the caller's context are final.
func failed(ctx context.Context, err error) attemptResult {
	var retryable bool
	switch platformerrors.GetCode(err) {
	case platformerrors.CodeInvalidConfig, platformerrors.CodeInvalidInput:
	default:
		retryable = ctx.Err() == nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrNoMirrors)
	}
	return attemptResult{err: err, retryable: retryable}
}
