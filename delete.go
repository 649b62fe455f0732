package localgit

import (
	"context"

	"github.com/chainguard-dev/clog"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/localgit/fanout"
)

// DeleteCacheBranch removes the cache branch for key and its timestamp
// branches from every mirror. It returns the number of mirrors the entry
// was deleted from. Failures on individual mirrors are logged.
func (s *Syncer) DeleteCacheBranch(ctx context.Context, key CacheKey) (int, error) {
	if err := key.Validate(); err != nil {
		return 0, err
	}
	cacheBranch := key.BranchName()

	mirrors, err := s.ResolveMirrors(ctx)
	defer s.RemoveMirrors(ctx, mirrors)
	if err != nil {
		return 0, err
	}

	start := s.now()
	results, err := fanout.Each(ctx, s.pool, mirrors, s.cfg.DeleteTimeout, func(ctx context.Context, m MirrorNode) error {
		return s.deleteEntry(ctx, m, cacheBranch)
	})
	if err != nil {
		return 0, platformerrors.Wrapf(err, platformerrors.CodeTimeout, "failed to delete %s", cacheBranch)
	}

	deleted := countTrue(s.tally(ctx, "delete "+cacheBranch, results))
	clog.FromContext(ctx).Infof("Deleted cache branch %s from %d git nodes in %s", cacheBranch, deleted, s.now().Sub(start))
	return deleted, nil
}

// deleteEntry deletes cacheBranch and every timestamp branch of it from m.
func (s *Syncer) deleteEntry(ctx context.Context, m MirrorNode, cacheBranch string) error {
	branches, err := s.wd.RemoteBranches(ctx, m.Name)
	if err != nil {
		return err
	}

	for _, b := range branches {
		ts, ok := ParseTimestampBranch(b.Name)
		if b.Name != cacheBranch && (!ok || ts.CacheBranch != cacheBranch) {
			continue
		}
		if err := s.wd.DeleteRemoteBranch(ctx, m.Name, b.Name); err != nil {
			return err
		}
	}
	return nil
}
