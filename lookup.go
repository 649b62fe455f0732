package localgit

import (
	"context"
	"time"

	"github.com/chainguard-dev/clog"
	platformerrors "github.com/jmgilman/go/errors"
)

// IsCached reports whether cacheBranch exists on every mirror. Mirrors are
// checked in order and the check stops at the first one missing it.
func (s *Syncer) IsCached(ctx context.Context, cacheBranch string, mirrors []MirrorNode) (bool, error) {
	if len(mirrors) == 0 {
		return false, nil
	}

	for _, m := range mirrors {
		branches, err := s.wd.RemoteBranches(ctx, m.Name)
		if err != nil {
			return false, platformerrors.Wrapf(err, platformerrors.CodeNetwork, "failed to list branches on %s", m.Name)
		}

		found := false
		for _, b := range branches {
			if b.Name == cacheBranch {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

// lookup makes the cache branch for req available locally, either from a
// mirror or by building and replicating it.
func (s *Syncer) lookup(ctx context.Context, req SyncRequest, mirrors []MirrorNode, senderRemote string) (string, error) {
	start := s.now()
	cacheBranch := req.Key.BranchName()
	log := clog.FromContext(ctx).With("cache_branch", cacheBranch)

	if err := s.deleteLocalCacheBranches(ctx, cacheBranch); err != nil {
		return "", err
	}

	if _, err := s.SweepExpired(ctx, mirrors); err != nil {
		return "", err
	}

	cached, err := s.IsCached(ctx, cacheBranch, mirrors)
	if err != nil {
		return "", err
	}

	if cached {
		log.Infof("Cache branch %s already exists", cacheBranch)
		lookupCounter.WithLabelValues("hit").Inc()
		if err := s.fetchCached(ctx, cacheBranch, mirrors); err != nil {
			return "", err
		}
		return cacheBranch, nil
	}

	log.Infof("Cache branch %s does not exist, building it", cacheBranch)
	lookupCounter.WithLabelValues("miss").Inc()
	if err := s.build(ctx, req, senderRemote); err != nil {
		return "", err
	}
	if err := s.replicate(ctx, cacheBranch, mirrors, start); err != nil {
		return "", err
	}
	return cacheBranch, nil
}

// fetchCached pulls an existing cache branch from a random mirror and
// refreshes its timestamp.
func (s *Syncer) fetchCached(ctx context.Context, cacheBranch string, mirrors []MirrorNode) error {
	mirror := s.randomMirror(mirrors)
	if err := s.wd.FetchBranch(ctx, mirror.Name, cacheBranch, cacheBranch); err != nil {
		return platformerrors.Wrapf(err, platformerrors.CodeNetwork, "failed to fetch %s from %s", cacheBranch, mirror.Name)
	}

	exists, err := s.wd.BranchExists(s.wd.UpstreamBranchName())
	if err != nil {
		return err
	}
	if !exists {
		if err := s.updateLocalUpstreamBranch(ctx); err != nil {
			return err
		}
	}

	return s.RefreshTimestamp(ctx, cacheBranch, mirrors)
}

// build creates the cache branch locally from the sender branch, rebased
// onto upstream when the sender and upstream commits differ.
func (s *Syncer) build(ctx context.Context, req SyncRequest, senderRemote string) error {
	start := s.now()
	cacheBranch := req.Key.BranchName()
	upstream := s.wd.UpstreamBranchName()

	if err := s.wd.FetchBranch(ctx, senderRemote, req.SenderBranch, cacheBranch); err != nil {
		return platformerrors.Wrapf(err, platformerrors.CodeBuildFailed, "failed to fetch %s from sender %s", req.SenderBranch, req.Key.Sender)
	}

	if err := s.updateLocalUpstreamBranch(ctx); err != nil {
		return platformerrors.Wrap(err, platformerrors.CodeBuildFailed, "failed to update upstream branch")
	}

	if err := s.wd.CreateBranch(cacheBranch, req.Key.SenderSHA, true); err != nil {
		return platformerrors.Wrapf(err, platformerrors.CodeBuildFailed, "failed to create %s at %s", cacheBranch, req.Key.SenderSHA)
	}

	if req.Key.IsPullRequest() {
		if err := s.wd.CheckoutBranch(cacheBranch, true); err != nil {
			return platformerrors.Wrapf(err, platformerrors.CodeBuildFailed, "failed to check out %s", cacheBranch)
		}
		if err := s.wd.Rebase(ctx, upstream, cacheBranch); err != nil {
			return platformerrors.Wrapf(err, platformerrors.CodeBuildFailed, "failed to rebase %s onto %s", cacheBranch, upstream)
		}
	}

	clog.FromContext(ctx).Infof("Built %s in %s", cacheBranch, s.now().Sub(start).Truncate(time.Millisecond))
	return nil
}

// deleteLocalCacheBranches removes every local cache shaped branch except
// keep and the current branch.
func (s *Syncer) deleteLocalCacheBranches(ctx context.Context, keep string) error {
	names, err := s.wd.LocalBranchNames()
	if err != nil {
		return err
	}
	current, err := s.wd.CurrentBranch()
	if err != nil {
		return err
	}

	for _, name := range names {
		if name == keep || name == current || !IsCacheBranch(name) {
			continue
		}
		if err := s.wd.DeleteBranch(name, true); err != nil {
			return platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to delete local branch %s", name)
		}
	}
	return nil
}
