package localgit

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	platformerrors "github.com/jmgilman/go/errors"
)

// remoteUpstreamHash returns the commit the upstream remote advertises for
// the upstream branch.
func (s *Syncer) remoteUpstreamHash(ctx context.Context) (string, error) {
	upstream := s.wd.UpstreamBranchName()

	branches, err := s.wd.RemoteBranches(ctx, s.cfg.UpstreamRemote)
	if err != nil {
		return "", platformerrors.Wrapf(err, platformerrors.CodeNetwork, "failed to list branches on %s", s.cfg.UpstreamRemote)
	}
	for _, b := range branches {
		if b.Name == upstream {
			return b.Hash.String(), nil
		}
	}
	return "", platformerrors.Newf(platformerrors.CodeNotFound, "branch %s not found on remote %s", upstream, s.cfg.UpstreamRemote)
}

// updateLocalUpstreamBranch moves the local upstream branch to the commit
// the upstream remote advertises. The branch is rebuilt through a
// temporary branch so it can be recreated even while checked out, and is
// left checked out afterwards.
func (s *Syncer) updateLocalUpstreamBranch(ctx context.Context) error {
	upstream := s.wd.UpstreamBranchName()

	remoteHash, err := s.remoteUpstreamHash(ctx)
	if err != nil {
		return err
	}

	exists, err := s.wd.BranchExists(upstream)
	if err != nil {
		return err
	}
	if exists {
		local, err := s.wd.LocalBranch(upstream)
		if err != nil {
			return err
		}
		if local.Hash.String() == remoteHash {
			return nil
		}
	}

	log := clog.FromContext(ctx)
	log.Infof("Updating local %s branch to %s", upstream, remoteHash)

	if err := s.wd.RebaseAbort(ctx); err != nil {
		log.Warnf("Unable to abort rebase: %v", err)
	}
	if err := s.wd.Clean(); err != nil {
		return err
	}
	if err := s.wd.ResetHard(); err != nil {
		return err
	}

	temp := fmt.Sprintf("temp-%d", s.now().UnixMilli())
	if err := s.wd.FetchBranch(ctx, s.cfg.UpstreamRemote, upstream, temp); err != nil {
		return platformerrors.Wrapf(err, platformerrors.CodeNetwork, "failed to fetch %s from %s", upstream, s.cfg.UpstreamRemote)
	}
	defer s.deleteLocalBranch(ctx, temp)

	if err := s.wd.CheckoutBranch(temp, true); err != nil {
		return err
	}
	if exists {
		if err := s.wd.DeleteBranch(upstream, true); err != nil {
			return err
		}
	}
	if err := s.wd.CreateBranch(upstream, remoteHash, true); err != nil {
		return err
	}
	return s.wd.CheckoutBranch(upstream, true)
}

// checkoutUpstream refreshes the local upstream branch and checks it out.
func (s *Syncer) checkoutUpstream(ctx context.Context) error {
	if err := s.updateLocalUpstreamBranch(ctx); err != nil {
		return err
	}
	return s.wd.CheckoutBranch(s.wd.UpstreamBranchName(), true)
}

// deleteLocalBranch force-deletes name if it exists. Failures are logged.
func (s *Syncer) deleteLocalBranch(ctx context.Context, name string) {
	exists, err := s.wd.BranchExists(name)
	if err == nil && !exists {
		return
	}
	if err == nil {
		err = s.wd.DeleteBranch(name, true)
	}
	if err != nil {
		clog.FromContext(ctx).Warnf("Unable to delete local branch %s: %v", name, err)
	}
}
