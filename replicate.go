package localgit

import (
	"context"
	"time"

	"github.com/chainguard-dev/clog"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/localgit/fanout"
)

// pushToAll force-pushes the local branch to remoteBranch on every mirror.
// It returns whether each mirror accepted the push. Only a fan-out
// deadline is returned as an error.
func (s *Syncer) pushToAll(ctx context.Context, local, remoteBranch string, mirrors []MirrorNode) (map[MirrorNode]bool, error) {
	start := s.now()

	results, err := fanout.Each(ctx, s.pool, mirrors, s.cfg.ReplicateTimeout, func(ctx context.Context, m MirrorNode) error {
		return s.wd.PushBranch(ctx, m.Name, local, remoteBranch, true)
	})
	if err != nil {
		return nil, platformerrors.Wrapf(err, platformerrors.CodeTimeout, "failed to push %s to mirrors", remoteBranch)
	}

	pushed := s.tally(ctx, "push "+remoteBranch, results)
	clog.FromContext(ctx).Infof("Pushed %s to %s on %d git nodes in %s",
		local, remoteBranch, countTrue(pushed), s.now().Sub(start))
	return pushed, nil
}

// deleteFromAll deletes branch from every mirror that has it.
func (s *Syncer) deleteFromAll(ctx context.Context, branch string, mirrors []MirrorNode) (map[MirrorNode]bool, error) {
	start := s.now()

	results, err := fanout.Each(ctx, s.pool, mirrors, s.cfg.DeleteTimeout, func(ctx context.Context, m MirrorNode) error {
		return s.wd.DeleteRemoteBranch(ctx, m.Name, branch)
	})
	if err != nil {
		return nil, platformerrors.Wrapf(err, platformerrors.CodeTimeout, "failed to delete %s from mirrors", branch)
	}

	deleted := s.tally(ctx, "delete "+branch, results)
	clog.FromContext(ctx).Infof("Deleted %s on %d git nodes in %s", branch, countTrue(deleted), s.now().Sub(start))
	return deleted, nil
}

// tally converts per-mirror errors into success flags, logging and
// counting each failure.
func (s *Syncer) tally(ctx context.Context, op string, results map[MirrorNode]error) map[MirrorNode]bool {
	ok := make(map[MirrorNode]bool, len(results))
	for m, err := range results {
		if err != nil {
			clog.FromContext(ctx).With("mirror", m.Name).Warnf("Unable to %s: %v", op, err)
			pushFailureCounter.WithLabelValues(m.Name).Inc()
		}
		ok[m] = err == nil
	}
	return ok
}

func countTrue(m map[MirrorNode]bool) int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// replicate pushes a freshly built cache branch to every mirror together
// with one timestamp branch stamped at start. The canonical upstream
// branch travels with it so mirrors can serve rebases.
func (s *Syncer) replicate(ctx context.Context, cacheBranch string, mirrors []MirrorNode, start time.Time) error {
	timestamp := TimestampBranchName(cacheBranch, start)
	upstream := s.wd.UpstreamBranchName()
	withUpstream := s.cfg.UpstreamUsername == CanonicalUpstream

	results, err := fanout.Each(ctx, s.pool, mirrors, s.cfg.ReplicateTimeout, func(ctx context.Context, m MirrorNode) error {
		if err := s.wd.PushBranch(ctx, m.Name, cacheBranch, cacheBranch, true); err != nil {
			return err
		}
		if err := s.wd.PushBranch(ctx, m.Name, cacheBranch, timestamp, true); err != nil {
			return err
		}
		if withUpstream {
			return s.wd.PushBranch(ctx, m.Name, upstream, upstream, true)
		}
		return nil
	})
	if err != nil {
		return platformerrors.Wrapf(err, platformerrors.CodePublishFailed, "failed to replicate %s", cacheBranch)
	}

	pushed := countTrue(s.tally(ctx, "replicate "+cacheBranch, results))
	if pushed == 0 {
		return platformerrors.Newf(platformerrors.CodePublishFailed, "no git node accepted %s", cacheBranch)
	}

	clog.FromContext(ctx).Infof("Pushed %s to %d of %d git nodes in %s",
		cacheBranch, pushed, len(mirrors), s.now().Sub(start))
	return nil
}
