package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/localgit"
	"github.com/jmgilman/go/localgit/git"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	Repo           string
	ConfigPath     string
	Username       string
	Repository     string
	UpstreamBranch string
	SSHKey         string
	HTTPUsername   string
	HTTPPassword   string
	LogLevel       string
	MetricsAddr    string
}

// NewRootCommand creates the localgit command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "localgit",
		Short: "Branch cache backed by git mirrors",
		Long: `localgit materializes sender branches, rebased onto upstream, as cache
branches replicated to every configured git mirror, and expires them once
they go unused.

Mirrors are read from GITHUB_CACHE_HOSTNAMES or the cacheHostnames key of
the --config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(opts.LogLevel)); err != nil {
				return platformerrors.Wrapf(err, platformerrors.CodeInvalidInput, "invalid log level %q", opts.LogLevel)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
			cmd.SetContext(clog.WithLogger(ctx, clog.New(handler)))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Repo, "repo", ".", "path to the working directory")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Username, "username", localgit.CanonicalUpstream, "owner of the hosted repository")
	cmd.PersistentFlags().StringVar(&opts.Repository, "repository", "liferay-portal", "name of the hosted repository")
	cmd.PersistentFlags().StringVar(&opts.UpstreamBranch, "upstream-branch", "master", "upstream branch senders are based on")
	cmd.PersistentFlags().StringVar(&opts.SSHKey, "ssh-key", "", "private key for mirror and sender remotes")
	cmd.PersistentFlags().StringVar(&opts.HTTPUsername, "http-username", "", "username for http: and https: mirrors")
	cmd.PersistentFlags().StringVar(&opts.HTTPPassword, "http-password-file", "", "file holding the password or token for --http-username")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	cmd.MarkFlagsMutuallyExclusive("ssh-key", "http-username")
	cmd.MarkFlagsRequiredTogether("http-username", "http-password-file")

	cmd.AddCommand(newSyncCommand(opts))
	cmd.AddCommand(newDeleteCommand(opts))
	cmd.AddCommand(newSweepCommand(opts))
	cmd.AddCommand(newNamesCommand())

	return cmd
}

// newSyncer opens the working directory and builds a Syncer for it. The
// returned cleanup stops the metrics server, if one was started.
func (o *rootOptions) newSyncer(ctx context.Context) (*localgit.Syncer, func(), error) {
	cfg, err := localgit.LoadConfig(ctx, o.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	var repoOpts []git.RepositoryOption
	auth, err := o.auth()
	if err != nil {
		return nil, nil, err
	}
	if auth != nil {
		repoOpts = append(repoOpts, git.WithAuth(auth))
	}

	repo, err := git.Open(o.Repo, repoOpts...)
	if err != nil {
		return nil, nil, err
	}
	wd, err := git.NewWorkingDirectory(repo, git.Identity{
		Username:       o.Username,
		Repository:     o.Repository,
		UpstreamBranch: o.UpstreamBranch,
	})
	if err != nil {
		return nil, nil, err
	}

	syncer, err := localgit.New(wd, cfg)
	if err != nil {
		return nil, nil, err
	}
	return syncer, o.serveMetrics(ctx), nil
}

// auth returns the credentials for mirror and sender remotes, or nil when
// none were given.
func (o *rootOptions) auth() (git.Auth, error) {
	switch {
	case o.SSHKey != "":
		return git.SSHKeyFile("git", o.SSHKey, "")
	case o.HTTPUsername != "":
		password, err := os.ReadFile(o.HTTPPassword)
		if err != nil {
			return nil, platformerrors.Wrapf(err, platformerrors.CodeInvalidInput, "failed to read HTTP password file %q", o.HTTPPassword)
		}
		return git.BasicAuth(o.HTTPUsername, strings.TrimSpace(string(password))), nil
	default:
		return nil, nil
	}
}

func (o *rootOptions) serveMetrics(ctx context.Context) func() {
	if o.MetricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: o.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			clog.FromContext(ctx).Errorf("Metrics server failed: %v", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
