// Package localgit replicates build branches across a fleet of git mirrors
// and uses those mirrors as a cache.
//
// A cache entry is a branch named after the sender and upstream commits it
// was built from:
//
//	cache-{receiver}-{upstreamSHA}-{sender}-{senderSHA}
//
// Every copy of a cache branch on a mirror is accompanied by one timestamp
// branch, the cache branch name followed by a dash and epoch milliseconds.
// The timestamp records when the entry was last used and drives garbage
// collection: a Syncer deletes entries whose timestamp is older than the
// configured expiry, and refreshes the timestamp of entries it serves once
// they are older than the refresh age.
//
// # Usage
//
//	cfg, err := localgit.LoadConfig(ctx, "")
//	if err != nil {
//	    return err
//	}
//	syncer, err := localgit.New(wd, cfg)
//	if err != nil {
//	    return err
//	}
//	branch, err := syncer.Sync(ctx, localgit.SyncRequest{
//	    Key: localgit.CacheKey{
//	        Receiver:    "liferay",
//	        Sender:      "jane",
//	        SenderSHA:   senderSHA,
//	        UpstreamSHA: upstreamSHA,
//	    },
//	    SenderBranch: "LPS-12345",
//	})
//
// Sync leaves the working directory on the branch it started on.
//
// # Concurrency
//
// Mirror operations are dispatched through a fanout.Pool, five at a time by
// default. Pushes and replication give up after thirty minutes, deletes
// after fifteen. A Syncer is not safe for concurrent use on the same
// working directory.
package localgit
