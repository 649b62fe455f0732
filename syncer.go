package localgit

import (
	"math/rand/v2"
	"time"

	"github.com/jmgilman/go/localgit/fanout"
)

// Syncer maintains the branch cache for one working directory.
type Syncer struct {
	wd   WorkingDirectory
	cfg  Config
	pool fanout.Pool
	now  func() time.Time
	pick func(n int) int
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithPool replaces the bounded pool built from Config.PoolWidth.
func WithPool(pool fanout.Pool) Option {
	return func(s *Syncer) {
		s.pool = pool
	}
}

// WithClock sets the time source used for timestamp branches and ages.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		s.now = now
	}
}

// WithPicker sets how a mirror is chosen when one is enough. pick is called
// with the number of mirrors and returns an index in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(s *Syncer) {
		s.pick = pick
	}
}

// New returns a Syncer for wd. It fails with INVALID_CONFIGURATION if cfg
// does not validate.
func New(wd WorkingDirectory, cfg Config, opts ...Option) (*Syncer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Syncer{
		wd:   wd,
		cfg:  cfg,
		pool: fanout.NewBounded(cfg.PoolWidth),
		now:  time.Now,
		pick: rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the configuration the Syncer was built with.
func (s *Syncer) Config() Config {
	return s.cfg
}

func (s *Syncer) randomMirror(mirrors []MirrorNode) MirrorNode {
	return mirrors[s.pick(len(mirrors))]
}
