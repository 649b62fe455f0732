package localgit

import (
	"context"
	"slices"

	"github.com/chainguard-dev/clog"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/localgit/git"
)

// RefreshTimestamp keeps exactly one timestamp branch for cacheBranch on
// the mirrors and moves it forward once it is older than the refresh age.
//
// One mirror, picked at random, is used as the source of truth. Base cache
// branches on that mirror that lost their timestamp branch are deleted
// first.
func (s *Syncer) RefreshTimestamp(ctx context.Context, cacheBranch string, mirrors []MirrorNode) error {
	if len(mirrors) == 0 {
		return ErrNoMirrors
	}

	now := s.now()
	mirror := s.randomMirror(mirrors)
	log := clog.FromContext(ctx).With("cache_branch", cacheBranch)

	branches, err := s.remoteCacheBranches(ctx, mirror)
	if err != nil {
		return err
	}

	var markers []TimestampBranch
	for _, b := range branches {
		if ts, ok := ParseTimestampBranch(b.Name); ok && ts.CacheBranch == cacheBranch {
			markers = append(markers, ts)
		}
	}
	if len(markers) == 0 {
		log.Warnf("No timestamp branch found for %s on %s", cacheBranch, mirror.Name)
		return nil
	}

	// Newest first.
	slices.SortFunc(markers, func(a, b TimestampBranch) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	newest, stale := markers[0], markers[1:]

	if newest.Age(now) >= s.cfg.RefreshAge {
		if err := s.moveTimestamp(ctx, mirror, newest, TimestampBranchName(cacheBranch, now), mirrors); err != nil {
			return err
		}
	}

	for _, dup := range stale {
		log.Infof("Deleting duplicate timestamp branch %s", dup.Name)
		if _, err := s.deleteFromAll(ctx, dup.Name, mirrors); err != nil {
			return err
		}
	}
	return nil
}

// moveTimestamp replaces the timestamp branch old with next on every
// mirror. The commit is taken from mirror through a temporary local branch.
func (s *Syncer) moveTimestamp(ctx context.Context, mirror MirrorNode, old TimestampBranch, next string, mirrors []MirrorNode) error {
	clog.FromContext(ctx).Infof("Updating cache branch timestamp from %s to %s", old.Name, next)

	current, err := s.wd.CurrentBranch()
	if err != nil {
		return err
	}

	if err := s.wd.FetchBranch(ctx, mirror.Name, old.Name, next); err != nil {
		return platformerrors.Wrapf(err, platformerrors.CodeNetwork, "failed to fetch %s from %s", old.Name, mirror.Name)
	}
	defer func() {
		s.restoreCheckout(ctx, current)
		s.deleteLocalBranch(ctx, next)
	}()

	if _, err := s.pushToAll(ctx, next, next, mirrors); err != nil {
		return err
	}
	_, err = s.deleteFromAll(ctx, old.Name, mirrors)
	return err
}

// restoreCheckout checks out previous again if the current branch moved
// away from it, falling back to the upstream branch when previous is gone.
func (s *Syncer) restoreCheckout(ctx context.Context, previous string) {
	if current, err := s.wd.CurrentBranch(); err == nil && current == previous {
		return
	}

	var err error
	if exists, _ := s.wd.BranchExists(previous); previous != "" && exists {
		err = s.wd.CheckoutBranch(previous, true)
	} else {
		err = s.checkoutUpstream(ctx)
	}
	if err != nil {
		clog.FromContext(ctx).Warnf("Unable to restore checkout of %s: %v", previous, err)
	}
}

// remoteCacheBranches lists the cache shaped branches on mirror. Base
// branches with no timestamp branch are deleted from the mirror and left
// out of the result.
func (s *Syncer) remoteCacheBranches(ctx context.Context, mirror MirrorNode) ([]git.Branch, error) {
	branches, err := s.wd.RemoteBranches(ctx, mirror.Name)
	if err != nil {
		return nil, platformerrors.Wrapf(err, platformerrors.CodeNetwork, "failed to list branches on %s", mirror.Name)
	}

	stamped := make(map[string]bool)
	for _, b := range branches {
		if ts, ok := ParseTimestampBranch(b.Name); ok {
			stamped[ts.CacheBranch] = true
		}
	}

	var cache []git.Branch
	for _, b := range branches {
		if !IsCacheBranch(b.Name) {
			continue
		}
		if _, ok := ParseTimestampBranch(b.Name); !ok && !stamped[b.Name] {
			clog.FromContext(ctx).Infof("Deleting %s from %s, it has no timestamp branch", b.Name, mirror.Name)
			if err := s.wd.DeleteRemoteBranch(ctx, mirror.Name, b.Name); err != nil {
				clog.FromContext(ctx).Warnf("Unable to delete %s from %s: %v", b.Name, mirror.Name, err)
				pushFailureCounter.WithLabelValues(mirror.Name).Inc()
			}
			continue
		}
		cache = append(cache, b)
	}
	return cache, nil
}
