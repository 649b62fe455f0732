package localgit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTimestamp(t *testing.T) {
	ctx := context.Background()
	branch := testKey(senderSHA).BranchName()

	t.Run("young timestamp is left alone", func(t *testing.T) {
		wd := newFakeWorkdir()
		ts := TimestampBranchName(branch, testNow.Add(-23*time.Hour))
		wd.seed(branch, sha(7))
		wd.seed(ts, sha(7))
		s := newTestSyncer(t, wd)
		mirrors, err := s.ResolveMirrors(ctx)
		require.NoError(t, err)

		require.NoError(t, s.RefreshTimestamp(ctx, branch, mirrors))

		assert.Empty(t, wd.pushes)
		for _, host := range testHosts {
			assert.Equal(t, []string{ts}, wd.timestampsFor(host, branch))
		}
	})

	t.Run("old timestamp is moved to now", func(t *testing.T) {
		wd := newFakeWorkdir()
		old := TimestampBranchName(branch, testNow.Add(-25*time.Hour))
		wd.seed(branch, sha(7))
		wd.seed(old, sha(7))
		s := newTestSyncer(t, wd)
		mirrors, err := s.ResolveMirrors(ctx)
		require.NoError(t, err)

		require.NoError(t, s.RefreshTimestamp(ctx, branch, mirrors))

		next := TimestampBranchName(branch, testNow)
		for _, host := range testHosts {
			assert.Equal(t, []string{next}, wd.timestampsFor(host, branch))
			assert.Equal(t, sha(7), wd.server(host)[next])
		}
		assert.NotContains(t, wd.local, next, "temporary local branch should be deleted")
		assert.Equal(t, testUpstream, wd.current)
	})

	t.Run("exactly one timestamp survives", func(t *testing.T) {
		for _, tc := range []struct {
			name    string
			ages    []time.Duration
			reverse bool
			want    time.Time
		}{
			{
				name: "fresh newest ascending",
				ages: []time.Duration{30 * time.Hour, 2 * time.Hour, time.Hour},
				want: testNow.Add(-time.Hour),
			},
			{
				name:    "fresh newest descending",
				ages:    []time.Duration{30 * time.Hour, 2 * time.Hour, time.Hour},
				reverse: true,
				want:    testNow.Add(-time.Hour),
			},
			{
				name:    "stale newest is moved",
				ages:    []time.Duration{40 * time.Hour, 30 * time.Hour},
				reverse: true,
				want:    testNow,
			},
		} {
			t.Run(tc.name, func(t *testing.T) {
				wd := newFakeWorkdir()
				wd.reverse = tc.reverse
				wd.seed(branch, sha(7))
				for _, age := range tc.ages {
					wd.seed(TimestampBranchName(branch, testNow.Add(-age)), sha(7))
				}
				s := newTestSyncer(t, wd)
				mirrors, err := s.ResolveMirrors(ctx)
				require.NoError(t, err)

				require.NoError(t, s.RefreshTimestamp(ctx, branch, mirrors))

				for _, host := range testHosts {
					assert.Equal(t, []string{TimestampBranchName(branch, tc.want)}, wd.timestampsFor(host, branch), host)
					assert.Contains(t, wd.serverBranches(host), branch)
				}
			})
		}
	})

	t.Run("orphaned base branches are removed", func(t *testing.T) {
		wd := newFakeWorkdir()
		orphan := CacheBranchName("liferay", "bob", sha(5), sha(6))
		ts := TimestampBranchName(branch, testNow.Add(-time.Hour))
		wd.seed(branch, sha(7))
		wd.seed(ts, sha(7))
		wd.seed(orphan, sha(8))
		s := newTestSyncer(t, wd)
		mirrors, err := s.ResolveMirrors(ctx)
		require.NoError(t, err)

		require.NoError(t, s.RefreshTimestamp(ctx, branch, mirrors))

		// Only the mirror used as the source is cleaned.
		assert.NotContains(t, wd.serverBranches(testHosts[0]), orphan)
		assert.Contains(t, wd.serverBranches(testHosts[1]), orphan)
		assert.Contains(t, wd.serverBranches(testHosts[0]), branch)
	})

	t.Run("missing timestamp is not an error", func(t *testing.T) {
		wd := newFakeWorkdir()
		s := newTestSyncer(t, wd)
		mirrors, err := s.ResolveMirrors(ctx)
		require.NoError(t, err)

		assert.NoError(t, s.RefreshTimestamp(ctx, branch, mirrors))
	})
}
