package localgit

import (
	"context"
	"os"
	"strings"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/localgit/fanout"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultSenderURL is the remote URL template for sender repositories.
	DefaultSenderURL = "git@github.com:${username}/${repository-name}.git"

	// CanonicalUpstream is the owner whose upstream branch is replicated
	// alongside every new cache branch.
	CanonicalUpstream = "liferay"

	DefaultReplicateTimeout = 30 * time.Minute
	DefaultDeleteTimeout    = 15 * time.Minute
	DefaultExpireAge        = 48 * time.Hour
	DefaultRefreshAge       = 24 * time.Hour
)

// Config controls mirror discovery, fan-out and retention.
//
// Defaults are overridden by an optional YAML file, which is in turn
// overridden by environment variables.
type Config struct {
	// CacheHostnames lists the mirrors. Entries starting with file:, http:
	// or https: are used as URLs verbatim; any other entry is a hostname
	// reached over SSH.
	CacheHostnames []string `env:"GITHUB_CACHE_HOSTNAMES, overwrite" yaml:"cacheHostnames"`

	// SenderURLTemplate is the URL of a sender's fork. ${username} and
	// ${repository-name} are substituted.
	SenderURLTemplate string `env:"LOCALGIT_SENDER_URL, overwrite" yaml:"senderURL"`

	// UpstreamRemote is the remote holding the canonical upstream branch.
	UpstreamRemote string `env:"LOCALGIT_UPSTREAM_REMOTE, overwrite" yaml:"upstreamRemote"`

	// UpstreamUsername is compared against CanonicalUpstream to decide
	// whether the upstream branch is replicated with new cache branches.
	UpstreamUsername string `env:"LOCALGIT_UPSTREAM_USERNAME, overwrite" yaml:"upstreamUsername"`

	PoolWidth        int           `env:"LOCALGIT_POOL_WIDTH, overwrite" yaml:"poolWidth"`
	ReplicateTimeout time.Duration `env:"LOCALGIT_REPLICATE_TIMEOUT, overwrite" yaml:"replicateTimeout"`
	DeleteTimeout    time.Duration `env:"LOCALGIT_DELETE_TIMEOUT, overwrite" yaml:"deleteTimeout"`
	ExpireAge        time.Duration `env:"LOCALGIT_EXPIRE_AGE, overwrite" yaml:"expireAge"`
	RefreshAge       time.Duration `env:"LOCALGIT_REFRESH_AGE, overwrite" yaml:"refreshAge"`
}

// DefaultConfig returns a Config with every default applied and no mirrors.
func DefaultConfig() Config {
	return Config{
		SenderURLTemplate: DefaultSenderURL,
		UpstreamRemote:    "upstream",
		UpstreamUsername:  CanonicalUpstream,
		PoolWidth:         fanout.DefaultWidth,
		ReplicateTimeout:  DefaultReplicateTimeout,
		DeleteTimeout:     DefaultDeleteTimeout,
		ExpireAge:         DefaultExpireAge,
		RefreshAge:        DefaultRefreshAge,
	}
}

// LoadConfig reads the YAML file at path, if any, then the environment.
func LoadConfig(ctx context.Context, path string) (Config, error) {
	return loadConfig(ctx, path, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, path string, lookuper envconfig.Lookuper) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, platformerrors.Wrapf(err, platformerrors.CodeInvalidConfig, "failed to read config file %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, platformerrors.Wrapf(err, platformerrors.CodeInvalidConfig, "failed to parse config file %s", path)
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "failed to process environment")
	}

	cfg.CacheHostnames = ParseHostnames(strings.Join(cfg.CacheHostnames, ","))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseHostnames splits a comma separated hostname list, dropping blanks.
func ParseHostnames(list string) []string {
	var hosts []string
	for _, h := range strings.Split(list, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// Validate reports configuration that cannot work. The returned error has
// code INVALID_CONFIGURATION.
func (c Config) Validate() error {
	switch {
	case len(c.CacheHostnames) == 0:
		return ErrNoMirrors
	case c.SenderURLTemplate == "":
		return invalidConfig("sender URL template is required")
	case c.UpstreamRemote == "":
		return invalidConfig("upstream remote is required")
	case c.PoolWidth <= 0:
		return invalidConfig("pool width must be positive, got %d", c.PoolWidth)
	case c.ReplicateTimeout <= 0:
		return invalidConfig("replicate timeout must be positive, got %s", c.ReplicateTimeout)
	case c.DeleteTimeout <= 0:
		return invalidConfig("delete timeout must be positive, got %s", c.DeleteTimeout)
	case c.ExpireAge <= 0:
		return invalidConfig("expire age must be positive, got %s", c.ExpireAge)
	case c.RefreshAge <= 0 || c.RefreshAge >= c.ExpireAge:
		return invalidConfig("refresh age must be positive and below the expire age, got %s", c.RefreshAge)
	}
	return nil
}
