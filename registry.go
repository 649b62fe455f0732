package localgit

import (
	"context"
	"strconv"
	"strings"

	"github.com/chainguard-dev/clog"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/localgit/git"
)

const (
	mirrorRemotePrefix = "local-git-remote-"
	senderRemoteName   = "sender-temp"
)

// MirrorNode is a mirror registered as a remote of the working directory.
type MirrorNode struct {
	Name string
	URL  string
}

// ExpandURL substitutes ${username} and ${repository-name} in template.
func ExpandURL(template, username, repository string) string {
	return strings.NewReplacer(
		"${username}", username,
		"${repository-name}", repository,
	).Replace(template)
}

// MirrorURL returns the URL template for a configured hostname entry.
func MirrorURL(hostname string) string {
	for _, scheme := range []string{"file:", "http:", "https:"} {
		if strings.HasPrefix(hostname, scheme) {
			return hostname
		}
	}
	return "git@" + hostname + ":${username}/${repository-name}.git"
}

// MirrorURLs returns the expanded mirror URLs for the working directory, in
// configuration order.
func (s *Syncer) MirrorURLs() []string {
	urls := make([]string, len(s.cfg.CacheHostnames))
	for i, host := range s.cfg.CacheHostnames {
		urls[i] = ExpandURL(MirrorURL(host), s.wd.RepositoryUsername(), s.wd.RepositoryName())
	}
	return urls
}

// ResolveMirrors registers one remote per configured mirror, named
// local-git-remote-{i}. A remote that already exists with the same URL is
// reused; one with a different URL is replaced.
//
// ResolveMirrors never removes remotes. On error the mirrors registered so
// far are returned alongside it so the caller can pass them to
// RemoveMirrors.
func (s *Syncer) ResolveMirrors(_ context.Context) ([]MirrorNode, error) {
	if len(s.cfg.CacheHostnames) == 0 {
		return nil, ErrNoMirrors
	}

	urls := s.MirrorURLs()
	mirrors := make([]MirrorNode, 0, len(urls))
	for i, url := range urls {
		node := MirrorNode{Name: mirrorRemotePrefix + strconv.Itoa(i), URL: url}
		if err := s.ensureRemote(node.Name, node.URL); err != nil {
			return mirrors, err
		}
		mirrors = append(mirrors, node)
	}
	return mirrors, nil
}

// RemoveMirrors removes the mirror remotes. Failures are logged and
// swallowed.
func (s *Syncer) RemoveMirrors(ctx context.Context, mirrors []MirrorNode) {
	for _, m := range mirrors {
		s.removeRemote(ctx, m.Name)
	}
}

func (s *Syncer) ensureRemote(name, url string) error {
	existing, err := s.wd.Remote(name)
	switch {
	case err == nil && existing.URL() == url:
		return nil
	case err != nil && platformerrors.GetCode(err) != platformerrors.CodeNotFound:
		return platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to inspect remote %s", name)
	}

	if err := s.wd.AddRemote(git.RemoteOptions{Name: name, URL: url, Replace: true}); err != nil {
		return platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to add remote %s", name)
	}
	return nil
}

// addSenderRemote points the sender remote at the sender's fork.
func (s *Syncer) addSenderRemote(sender string) (string, error) {
	url := ExpandURL(s.cfg.SenderURLTemplate, sender, s.wd.RepositoryName())
	if err := s.wd.AddRemote(git.RemoteOptions{Name: senderRemoteName, URL: url, Replace: true}); err != nil {
		return "", platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to add sender remote for %s", sender)
	}
	return senderRemoteName, nil
}

func (s *Syncer) removeRemote(ctx context.Context, name string) {
	if err := s.wd.RemoveRemote(name); err != nil {
		clog.FromContext(ctx).Warnf("Unable to remove remote %s: %v", name, err)
	}
}
