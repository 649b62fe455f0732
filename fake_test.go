package localgit

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/localgit/fanout"
	"github.com/jmgilman/go/localgit/git"
	"github.com/stretchr/testify/require"
)

const (
	testUsername    = "liferay"
	testRepository  = "liferay-portal"
	testUpstream    = "master"
	testUpstreamURL = "git@github.com:liferay/liferay-portal.git"
	testSender      = "jane"
	testSenderURL   = "git@github.com:jane/liferay-portal.git"
	testFeature     = "LPS-12345"
)

var (
	testNow = time.UnixMilli(1_700_000_000_000)

	testHosts = []string{"file:///srv/mirror-0", "file:///srv/mirror-1", "file:///srv/mirror-2"}

	upstreamSHA = sha(1)
	senderSHA   = sha(2)
)

func sha(n int) string {
	return fmt.Sprintf("%040x", n)
}

// fakeWorkdir is an in-memory WorkingDirectory. Remote state is keyed by
// URL so it survives remotes being removed and added again.
type fakeWorkdir struct {
	mu sync.Mutex

	remotes map[string]string
	local   map[string]string
	current string
	servers map[string]map[string]string
	objects map[string]bool
	nextSHA int

	// reverse lists remote branches in descending name order.
	reverse bool
	// pushErr, when set, is consulted before every push or remote delete.
	pushErr func(url, branch string) error
	// addRemoteErr, when set, is consulted before every remote registration.
	addRemoteErr func(name string) error
	// checkoutErr, when set, is consulted before every checkout.
	checkoutErr func(name string) error

	addRemotes   []string
	checkouts    []string
	rebases      [][2]string
	rebaseAborts int
	resets       int
	fetches      [][3]string
	pushes       [][3]string
}

func newFakeWorkdir() *fakeWorkdir {
	w := &fakeWorkdir{
		remotes: map[string]string{"upstream": testUpstreamURL},
		local:   map[string]string{testUpstream: upstreamSHA},
		current: testUpstream,
		servers: map[string]map[string]string{
			testUpstreamURL: {testUpstream: upstreamSHA},
			testSenderURL:   {testFeature: senderSHA},
		},
		objects: map[string]bool{upstreamSHA: true, senderSHA: true},
		nextSHA: 100,
	}
	for _, h := range testHosts {
		w.servers[h] = map[string]string{}
	}
	return w
}

// server returns the branches stored behind url, creating the map.
func (w *fakeWorkdir) server(url string) map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.servers[url] == nil {
		w.servers[url] = map[string]string{}
	}
	return w.servers[url]
}

// serverBranches returns the sorted branch names stored behind url.
func (w *fakeWorkdir) serverBranches(url string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.servers[url]))
	for name := range w.servers[url] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (w *fakeWorkdir) RepositoryUsername() string { return testUsername }
func (w *fakeWorkdir) RepositoryName() string     { return testRepository }
func (w *fakeWorkdir) UpstreamBranchName() string { return testUpstream }

func (w *fakeWorkdir) Remote(name string) (git.Remote, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	url, ok := w.remotes[name]
	if !ok {
		return git.Remote{}, platformerrors.Newf(platformerrors.CodeNotFound, "remote %s not found", name)
	}
	return git.Remote{Name: name, URLs: []string{url}}, nil
}

func (w *fakeWorkdir) AddRemote(opts git.RemoteOptions) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.addRemoteErr != nil {
		if err := w.addRemoteErr(opts.Name); err != nil {
			return err
		}
	}
	if _, ok := w.remotes[opts.Name]; ok && !opts.Replace {
		return platformerrors.Newf(platformerrors.CodeAlreadyExists, "remote %s already exists", opts.Name)
	}
	w.remotes[opts.Name] = opts.URL
	w.addRemotes = append(w.addRemotes, opts.Name)
	return nil
}

func (w *fakeWorkdir) RemoveRemote(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.remotes[name]; !ok {
		return platformerrors.Newf(platformerrors.CodeNotFound, "remote %s not found", name)
	}
	delete(w.remotes, name)
	return nil
}

func (w *fakeWorkdir) LocalBranchNames() ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.local))
	for name := range w.local {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (w *fakeWorkdir) LocalBranch(name string) (git.Branch, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	h, ok := w.local[name]
	if !ok {
		return git.Branch{}, platformerrors.Newf(platformerrors.CodeNotFound, "branch %s not found", name)
	}
	return git.Branch{Name: name, Hash: plumbing.NewHash(h)}, nil
}

func (w *fakeWorkdir) BranchExists(name string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.local[name]
	return ok, nil
}

func (w *fakeWorkdir) CurrentBranch() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current, nil
}

func (w *fakeWorkdir) CreateBranch(name, ref string, force bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.local[name]; ok && !force {
		return platformerrors.Newf(platformerrors.CodeAlreadyExists, "branch %s already exists", name)
	}
	target, ok := w.local[ref]
	if !ok {
		if !w.objects[ref] {
			return platformerrors.Newf(platformerrors.CodeNotFound, "revision %s not found", ref)
		}
		target = ref
	}
	w.local[name] = target
	return nil
}

func (w *fakeWorkdir) DeleteBranch(name string, _ bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if name == w.current {
		return platformerrors.Newf(platformerrors.CodeConflict, "cannot delete current branch %s", name)
	}
	if _, ok := w.local[name]; !ok {
		return platformerrors.Newf(platformerrors.CodeNotFound, "branch %s not found", name)
	}
	delete(w.local, name)
	return nil
}

func (w *fakeWorkdir) CheckoutBranch(name string, _ bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.checkoutErr != nil {
		if err := w.checkoutErr(name); err != nil {
			return err
		}
	}
	if _, ok := w.local[name]; !ok {
		return platformerrors.Newf(platformerrors.CodeNotFound, "branch %s not found", name)
	}
	w.current = name
	w.checkouts = append(w.checkouts, name)
	return nil
}

func (w *fakeWorkdir) url(remote string) (string, error) {
	url, ok := w.remotes[remote]
	if !ok {
		return "", platformerrors.Newf(platformerrors.CodeNotFound, "remote %s not found", remote)
	}
	return url, nil
}

func (w *fakeWorkdir) RemoteBranches(_ context.Context, remote string) ([]git.Branch, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	url, err := w.url(remote)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(w.servers[url]))
	for name := range w.servers[url] {
		names = append(names, name)
	}
	sort.Strings(names)
	if w.reverse {
		slices.Reverse(names)
	}

	branches := make([]git.Branch, len(names))
	for i, name := range names {
		branches[i] = git.Branch{Name: name, Hash: plumbing.NewHash(w.servers[url][name]), Remote: remote}
	}
	return branches, nil
}

func (w *fakeWorkdir) FetchBranch(_ context.Context, remote, src, dst string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	url, err := w.url(remote)
	if err != nil {
		return err
	}
	h, ok := w.servers[url][src]
	if !ok {
		return platformerrors.Newf(platformerrors.CodeNotFound, "couldn't find remote ref %s", src)
	}
	w.local[dst] = h
	w.objects[h] = true
	w.fetches = append(w.fetches, [3]string{remote, src, dst})
	return nil
}

func (w *fakeWorkdir) PushBranch(_ context.Context, remote, local, remoteBranch string, _ bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	url, err := w.url(remote)
	if err != nil {
		return err
	}
	if w.pushErr != nil {
		if err := w.pushErr(url, remoteBranch); err != nil {
			return err
		}
	}
	h, ok := w.local[local]
	if !ok {
		return platformerrors.Newf(platformerrors.CodeNotFound, "src refspec %s does not match any", local)
	}
	if w.servers[url] == nil {
		w.servers[url] = map[string]string{}
	}
	w.servers[url][remoteBranch] = h
	w.pushes = append(w.pushes, [3]string{remote, local, remoteBranch})
	return nil
}

func (w *fakeWorkdir) DeleteRemoteBranch(_ context.Context, remote, branch string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	url, err := w.url(remote)
	if err != nil {
		return err
	}
	if w.pushErr != nil {
		if err := w.pushErr(url, branch); err != nil {
			return err
		}
	}
	delete(w.servers[url], branch)
	return nil
}

func (w *fakeWorkdir) Rebase(_ context.Context, onto, branch string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rebases = append(w.rebases, [2]string{onto, branch})
	w.nextSHA++
	rebased := sha(w.nextSHA)
	w.objects[rebased] = true
	w.local[branch] = rebased
	return nil
}

func (w *fakeWorkdir) RebaseAbort(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rebaseAborts++
	return nil
}

func (w *fakeWorkdir) ResetHard() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resets++
	return nil
}

func (w *fakeWorkdir) Clean() error { return nil }

func (w *fakeWorkdir) checkoutCount(name string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, c := range w.checkouts {
		if c == name {
			n++
		}
	}
	return n
}

// seed stores branch at h on every mirror.
func (w *fakeWorkdir) seed(branch, h string, hosts ...string) {
	if len(hosts) == 0 {
		hosts = testHosts
	}
	for _, host := range hosts {
		w.server(host)[branch] = h
	}
	w.mu.Lock()
	w.objects[h] = true
	w.mu.Unlock()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CacheHostnames = slices.Clone(testHosts)
	return cfg
}

func newTestSyncer(t *testing.T, wd WorkingDirectory, opts ...Option) *Syncer {
	t.Helper()

	opts = append([]Option{
		WithPool(fanout.Immediate()),
		WithClock(func() time.Time { return testNow }),
		WithPicker(func(int) int { return 0 }),
	}, opts...)

	s, err := New(wd, testConfig(), opts...)
	require.NoError(t, err)
	return s
}

func testKey(senderSHA string) CacheKey {
	return CacheKey{
		Receiver:    testUsername,
		Sender:      testSender,
		SenderSHA:   senderSHA,
		UpstreamSHA: upstreamSHA,
	}
}

// timestampsFor returns the timestamp branches of cacheBranch on url.
func (w *fakeWorkdir) timestampsFor(url, cacheBranch string) []string {
	var out []string
	for _, name := range w.serverBranches(url) {
		if ts, ok := ParseTimestampBranch(name); ok && ts.CacheBranch == cacheBranch {
			out = append(out, name)
		}
	}
	return out
}
