package main

import (
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/jmgilman/go/localgit"
	"github.com/spf13/cobra"
)

// keyFlags binds the flags identifying a cache entry.
type keyFlags struct {
	Key          localgit.CacheKey
	SenderBranch string
}

func (k *keyFlags) register(cmd *cobra.Command, withSenderBranch bool) {
	cmd.Flags().StringVar(&k.Key.Receiver, "receiver", localgit.CanonicalUpstream, "owner of the receiving repository")
	cmd.Flags().StringVar(&k.Key.Sender, "sender", "", "owner of the sender fork")
	cmd.Flags().StringVar(&k.Key.SenderSHA, "sender-sha", "", "commit of the sender branch")
	cmd.Flags().StringVar(&k.Key.UpstreamSHA, "upstream-sha", "", "commit of the upstream branch")
	_ = cmd.MarkFlagRequired("sender")
	_ = cmd.MarkFlagRequired("sender-sha")
	_ = cmd.MarkFlagRequired("upstream-sha")

	if withSenderBranch {
		cmd.Flags().StringVar(&k.SenderBranch, "sender-branch", "", "branch on the sender fork")
		_ = cmd.MarkFlagRequired("sender-branch")
	}
}

func newSyncCommand(opts *rootOptions) *cobra.Command {
	flags := &keyFlags{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch or build the cache branch for a sender commit",
		Long: `Fetch the cache branch for the sender commit from the mirrors, or build it
from the sender branch and replicate it to every mirror. The cache branch
name is printed on success.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			syncer, cleanup, err := opts.newSyncer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			branch, err := syncer.Sync(ctx, localgit.SyncRequest{Key: flags.Key, SenderBranch: flags.SenderBranch})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), branch)
			return err
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	flags := &keyFlags{}

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a cache branch from every mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			syncer, cleanup, err := opts.newSyncer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			_, err = syncer.DeleteCacheBranch(ctx, flags.Key)
			return err
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newSweepCommand(opts *rootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired cache branches from every mirror",
		Long: `Delete cache branches whose timestamp branch is older than the expire age.
With --interval the sweep repeats until the process is interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			syncer, cleanup, err := opts.newSyncer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if interval <= 0 {
				return syncer.Sweep(ctx)
			}

			clog.FromContext(ctx).Infof("Sweeping every %s", interval)
			stop := syncer.StartSweeper(ctx, interval)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "repeat the sweep at this interval")
	return cmd
}

func newNamesCommand() *cobra.Command {
	flags := &keyFlags{}
	var timestamp int64

	cmd := &cobra.Command{
		Use:   "names",
		Short: "Print the cache and timestamp branch names for a key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			branch := flags.Key.BranchName()
			at := time.Now()
			if timestamp > 0 {
				at = time.UnixMilli(timestamp)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", branch, localgit.TimestampBranchName(branch, at))
			return err
		},
	}
	flags.register(cmd, false)
	cmd.Flags().Int64Var(&timestamp, "timestamp", 0, "epoch milliseconds for the timestamp branch (default now)")
	return cmd
}
