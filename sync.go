package localgit

import (
	"context"
	"errors"
	"strings"

	"github.com/chainguard-dev/clog"
	platformerrors "github.com/jmgilman/go/errors"
)

// maxAttempts bounds how often Sync tries before giving up.
const maxAttempts = 2

// SyncRequest describes the branch a build needs.
type SyncRequest struct {
	Key CacheKey

	// SenderBranch is the branch on the sender's fork holding SenderSHA.
	SenderBranch string
}

// Validate reports missing request fields with code INVALID_INPUT.
func (r SyncRequest) Validate() error {
	if err := r.Key.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.SenderBranch) == "" {
		return platformerrors.New(platformerrors.CodeInvalidInput, "sender branch is required")
	}
	return nil
}

// Sync returns the name of the cache branch for req, serving it from the
// mirrors when they all have it and building and replicating it otherwise.
//
// A failed attempt is retried once, from the branch checked out on entry.
// Whatever the outcome, the mirror and sender remotes are removed, the
// branch checked out on entry is checked out again and the local cache
// branch is deleted.
func (s *Syncer) Sync(ctx context.Context, req SyncRequest) (branch string, err error) {
	req.SenderBranch = strings.TrimSpace(req.SenderBranch)
	if err := req.Validate(); err != nil {
		return "", err
	}

	start := s.now()
	cacheBranch := req.Key.BranchName()
	log := clog.FromContext(ctx).With("cache_branch", cacheBranch)
	ctx = clog.WithLogger(ctx, log)

	original, err := s.originalBranch(ctx)
	if err != nil {
		return "", err
	}
	log.Infof("Starting synchronization with local git, current branch is %s", original)

	defer func() {
		if rerr := s.restore(ctx, original, cacheBranch); rerr != nil {
			if err == nil {
				branch, err = "", rerr
			} else {
				log.Warnf("Unable to restore working directory: %v", rerr)
			}
		}
		log.Infof("Synchronization with local git completed in %s", s.now().Sub(start))
	}()

	for attempt := 1; ; attempt++ {
		result := s.attempt(ctx, req)
		if result.err == nil {
			return result.branch, nil
		}

		if !result.retryable || attempt >= maxAttempts {
			failureCounter.Inc()
			log.Errorf("Synchronization with local git failed: %v", result.err)
			return "", result.err
		}

		retryCounter.Inc()
		log.Warnf("Synchronization with local git failed, retrying: %v", result.err)
		if err := s.wd.RebaseAbort(ctx); err != nil {
			log.Warnf("Unable to abort rebase before retrying: %v", err)
		}
		if err := s.returnTo(original); err != nil {
			log.Warnf("Unable to check out %s before retrying: %v", original, err)
		}
	}
}

// returnTo checks out original when a failed attempt left another branch
// checked out.
func (s *Syncer) returnTo(original string) error {
	current, err := s.wd.CurrentBranch()
	if err != nil {
		return err
	}
	if current == original {
		return nil
	}
	exists, err := s.wd.BranchExists(original)
	if err != nil || !exists {
		return err
	}
	return s.wd.CheckoutBranch(original, true)
}

// attempt runs one synchronization. The sender and mirror remotes it
// registers are removed before it returns.
func (s *Syncer) attempt(ctx context.Context, req SyncRequest) attemptResult {
	senderRemote, err := s.addSenderRemote(req.Key.Sender)
	if err != nil {
		return failed(ctx, err)
	}
	defer s.removeRemote(ctx, senderRemote)

	mirrors, err := s.ResolveMirrors(ctx)
	defer s.RemoveMirrors(ctx, mirrors)
	if err != nil {
		return failed(ctx, err)
	}

	branch, err := s.lookup(ctx, req, mirrors, senderRemote)
	if err != nil {
		return failed(ctx, err)
	}
	return succeeded(branch)
}

// originalBranch returns the branch checked out on entry. With a detached
// or unborn HEAD the worktree is reset and the upstream branch checked out
// first.
func (s *Syncer) originalBranch(ctx context.Context) (string, error) {
	current, err := s.wd.CurrentBranch()
	if err != nil {
		return "", err
	}
	if current != "" {
		return current, nil
	}

	upstream := s.wd.UpstreamBranchName()
	clog.FromContext(ctx).Infof("No branch is checked out, checking out %s", upstream)
	if err := s.wd.ResetHard(); err != nil {
		return "", err
	}
	if err := s.wd.CheckoutBranch(upstream, true); err != nil {
		return "", err
	}
	return upstream, nil
}

// restore checks out original again, or the refreshed upstream branch if
// original no longer exists, and deletes the local cache branch.
func (s *Syncer) restore(ctx context.Context, original, cacheBranch string) error {
	var errs []error

	exists, err := s.wd.BranchExists(original)
	switch {
	case err != nil:
		errs = append(errs, err)
	case exists:
		if err := s.wd.CheckoutBranch(original, true); err != nil {
			errs = append(errs, platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to check out %s", original))
		}
	default:
		if err := s.checkoutUpstream(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	s.deleteLocalBranch(ctx, cacheBranch)
	return errors.Join(errs...)
}
