package localgit

import (
	"context"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/localgit/fanout"
)

// SweepReport summarizes one mirror's sweep.
type SweepReport struct {
	// Found is the number of timestamp branches seen.
	Found int
	// Deleted is the number of expired entries removed.
	Deleted int
	// Oldest is the age of the oldest timestamp branch left in place.
	Oldest time.Duration
	// Err is set when the mirror could not be listed.
	Err error
}

// Remaining returns the number of entries left on the mirror.
func (r SweepReport) Remaining() int {
	return r.Found - r.Deleted
}

// SweepExpired deletes every cache entry whose timestamp branch is older
// than the expire age, on every mirror in parallel. A failure on one
// mirror is reported and does not affect the others; only the fan-out
// deadline fails the sweep.
func (s *Syncer) SweepExpired(ctx context.Context, mirrors []MirrorNode) (map[MirrorNode]SweepReport, error) {
	now := s.now()

	results, err := fanout.Collect(ctx, s.pool, mirrors, s.cfg.DeleteTimeout, func(ctx context.Context, m MirrorNode) (SweepReport, error) {
		return s.sweepMirror(ctx, m, now)
	})
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeTimeout, "failed to sweep expired cache branches")
	}

	reports := make(map[MirrorNode]SweepReport, len(results))
	for m, r := range results {
		report := r.Value
		report.Err = r.Err
		reports[m] = report

		log := clog.FromContext(ctx).With("mirror", m.Name)
		if r.Err != nil {
			log.Warnf("Unable to sweep %s: %v", m.URL, r.Err)
			continue
		}
		expiredCounter.WithLabelValues(m.Name).Add(float64(report.Deleted))
		oldestAgeGauge.WithLabelValues(m.Name).Set(report.Oldest.Seconds())
		log.Infof("Found %d cache branches on %s, %d were deleted, %d remain, the oldest is %s old",
			report.Found, m.URL, report.Deleted, report.Remaining(), report.Oldest.Truncate(time.Second))
	}
	return reports, nil
}

func (s *Syncer) sweepMirror(ctx context.Context, m MirrorNode, now time.Time) (SweepReport, error) {
	var report SweepReport

	branches, err := s.wd.RemoteBranches(ctx, m.Name)
	if err != nil {
		return report, err
	}

	present := make(map[string]bool, len(branches))
	for _, b := range branches {
		present[b.Name] = true
	}

	for _, b := range branches {
		ts, ok := ParseTimestampBranch(b.Name)
		if !ok {
			continue
		}
		report.Found++

		age := ts.Age(now)
		if age <= s.cfg.ExpireAge {
			report.Oldest = max(report.Oldest, age)
			continue
		}

		if present[ts.CacheBranch] {
			if err := s.wd.DeleteRemoteBranch(ctx, m.Name, ts.CacheBranch); err != nil {
				clog.FromContext(ctx).Warnf("Unable to delete %s from %s: %v", ts.CacheBranch, m.Name, err)
				pushFailureCounter.WithLabelValues(m.Name).Inc()
				continue
			}
		}
		if err := s.wd.DeleteRemoteBranch(ctx, m.Name, ts.Name); err != nil {
			clog.FromContext(ctx).Warnf("Unable to delete %s from %s: %v", ts.Name, m.Name, err)
			pushFailureCounter.WithLabelValues(m.Name).Inc()
			continue
		}
		report.Deleted++
	}
	return report, nil
}

// StartSweeper runs Sweep every interval until stop is called or ctx is
// cancelled.
//
// The returned stop function is safe to call multiple times and blocks
// until the sweeper goroutine has exited.
//
//	stop := syncer.StartSweeper(ctx, time.Hour)
//	defer stop()
func (s *Syncer) StartSweeper(ctx context.Context, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Sweep(ctx); err != nil {
					clog.FromContext(ctx).Errorf("Sweep failed: %v", err)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

// Sweep registers the mirrors, sweeps them once and removes the remotes.
func (s *Syncer) Sweep(ctx context.Context) error {
	mirrors, err := s.ResolveMirrors(ctx)
	defer s.RemoveMirrors(ctx, mirrors)
	if err != nil {
		return err
	}

	_, err = s.SweepExpired(ctx, mirrors)
	return err
}
