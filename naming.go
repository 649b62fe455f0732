package localgit

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
)

var (
	// cacheBranchPattern matches any branch shaped like a cache branch,
	// including timestamp branches and names carrying a remote prefix.
	cacheBranchPattern = regexp.MustCompile(`^.*cache-.+-.+-.+-[^-]+$`)

	// timestampBranchPattern captures the cache branch name and the epoch
	// milliseconds of a timestamp branch.
	timestampBranchPattern = regexp.MustCompile(`^(cache-[^-]+-[^-]+-[^-]+-[^-]+)-(\d+)$`)

	commitPattern = regexp.MustCompile(`^[0-9a-fA-F]+$`)
)

// CacheKey identifies one materialized sender/upstream combination.
type CacheKey struct {
	Receiver    string
	Sender      string
	SenderSHA   string
	UpstreamSHA string
}

// Validate checks that every field is set and that the key maps to a
// unique branch name. Identities may not contain the "-" separator and
// both commits must be hexadecimal. Failures carry code INVALID_INPUT.
func (k CacheKey) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"receiver", k.Receiver},
		{"sender", k.Sender},
		{"sender SHA", k.SenderSHA},
		{"upstream SHA", k.UpstreamSHA},
	} {
		if f.value == "" {
			return platformerrors.Newf(platformerrors.CodeInvalidInput, "%s is required", f.name)
		}
	}

	for _, f := range []struct{ name, value string }{
		{"receiver", k.Receiver},
		{"sender", k.Sender},
	} {
		if strings.Contains(f.value, "-") {
			return platformerrors.Newf(platformerrors.CodeInvalidInput, "%s %q must not contain %q", f.name, f.value, "-")
		}
	}

	for _, f := range []struct{ name, value string }{
		{"sender SHA", k.SenderSHA},
		{"upstream SHA", k.UpstreamSHA},
	} {
		if !commitPattern.MatchString(f.value) {
			return platformerrors.Newf(platformerrors.CodeInvalidInput, "%s %q is not a hexadecimal commit", f.name, f.value)
		}
	}
	return nil
}

// BranchName returns the cache branch name for the key.
func (k CacheKey) BranchName() string {
	return CacheBranchName(k.Receiver, k.Sender, k.SenderSHA, k.UpstreamSHA)
}

// IsPullRequest reports whether the sender commit differs from the upstream
// commit, in which case the cached branch is rebased onto upstream.
func (k CacheKey) IsPullRequest() bool {
	return k.SenderSHA != k.UpstreamSHA
}

// CacheBranchName builds the deterministic branch name for a cache entry.
//
// Example:
//
//	CacheBranchName("liferay", "jane", "abc123", "def456")
//	// "cache-liferay-def456-jane-abc123"
func CacheBranchName(receiver, sender, senderSHA, upstreamSHA string) string {
	return "cache-" + receiver + "-" + upstreamSHA + "-" + sender + "-" + senderSHA
}

// TimestampBranchName builds the liveness marker for a cache branch at t.
func TimestampBranchName(cacheBranch string, t time.Time) string {
	return cacheBranch + "-" + strconv.FormatInt(t.UnixMilli(), 10)
}

// IsCacheBranch reports whether name has the shape of a cache branch.
// Timestamp branches also satisfy this check.
func IsCacheBranch(name string) bool {
	return cacheBranchPattern.MatchString(name)
}

// TimestampBranch is a parsed timestamp branch name.
type TimestampBranch struct {
	// Name is the full timestamp branch name.
	Name string

	// CacheBranch is the cache branch the marker belongs to.
	CacheBranch string

	// Timestamp is the time embedded in the name.
	Timestamp time.Time
}

// Age returns how old the marker is relative to now.
func (b TimestampBranch) Age(now time.Time) time.Duration {
	return now.Sub(b.Timestamp)
}

// ParseTimestampBranch parses a timestamp branch name. The second return
// value is false when name is not a timestamp branch.
func ParseTimestampBranch(name string) (TimestampBranch, bool) {
	m := timestampBranchPattern.FindStringSubmatch(name)
	if m == nil {
		return TimestampBranch{}, false
	}

	millis, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return TimestampBranch{}, false
	}

	return TimestampBranch{
		Name:        name,
		CacheBranch: m[1],
		Timestamp:   time.UnixMilli(millis),
	}, true
}
