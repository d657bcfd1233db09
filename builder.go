package tokengate

import (
	"context"
	"errors"
	"strconv"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/pixelvault/tokengate/internal/rate"
	"github.com/pixelvault/tokengate/quota"
	"github.com/pixelvault/tokengate/revocation"
	"github.com/pixelvault/tokengate/token"
)

// Builder defines a public type used by tokengate APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	clock  clockwork.Clock

	quotaStore      quota.Store
	revocationStore revocation.Store

	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret describes the withsecret operation and its observable behavior.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.Secret = cloneBytes(secret)
	return b
}

// WithBaseURL describes the withbaseurl operation and its observable behavior.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithRedis wires shared Redis-backed quota and revocation stores so counters
// and revocations hold across every server instance. Without it the engine
// falls back to in-process stores, which are invisible to other instances.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithClock injects the time source used for issuance, expiry checks, and the
// quota sweeper. Tests pass a fake clock; production uses the default real one.
func (b *Builder) WithClock(clock clockwork.Clock) *Builder {
	b.clock = clock
	return b
}

// WithQuotaStore overrides the quota backing entirely. Takes precedence over
// WithRedis for quota state.
func (b *Builder) WithQuotaStore(store quota.Store) *Builder {
	b.quotaStore = store
	return b
}

// WithRevocationStore overrides the revocation backing entirely. Takes
// precedence over WithRedis for revocation state.
func (b *Builder) WithRevocationStore(store revocation.Store) *Builder {
	b.revocationStore = store
	return b
}

// WithAuditSink enables auditing and routes events to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithRateLimit enables fixed-window issue throttling with the given limits.
// Throttling counters live in Redis, so [Builder.WithRedis] is required.
func (b *Builder) WithRateLimit(cfg RateLimitConfig) *Builder {
	b.config.RateLimit = cfg
	b.config.RateLimit.Enabled = true
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build validates the configuration, wires stores (injected > Redis > memory),
// starts the quota sweeper, and returns a ready Engine. A Builder can build
// only once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(cfg.Secret)
	if err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	quotaStore := b.quotaStore
	if quotaStore == nil {
		if b.redis != nil {
			quotaStore = quota.NewRedisStore(b.redis, cfg.Quota.RedisPrefix, clock)
		} else {
			quotaStore = quota.NewMemoryStore()
		}
	}

	revocationStore := b.revocationStore
	if revocationStore == nil {
		if b.redis != nil {
			revocationStore = revocation.NewRedisStore(b.redis, cfg.Revocation.RedisPrefix)
		} else {
			revocationStore = revocation.NewMemoryStore(clock)
		}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit.Enabled {
		if b.redis == nil {
			return nil, ErrRateLimitRequiresRedis
		}
		limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: cfg.RateLimit.EnableIPThrottle,
			MaxIssueAttempts: cfg.RateLimit.MaxIssueAttempts,
			IssueCooldown:    cfg.RateLimit.IssueCooldown,
		})
	}

	engine := &Engine{
		config:      cfg,
		codec:       codec,
		quotas:      quotaStore,
		revocations: revocationStore,
		limiter:     limiter,
		clock:       clock,
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	engine.sweeper = quota.NewSweeper(quotaStore, clock, cfg.Quota.SweepInterval, func(removed int) {
		engine.metrics.Add(MetricQuotaSweepEvictions, uint64(removed))
		engine.emitAudit(context.Background(), auditEventQuotaSwept, true, "", "", "", ReasonNone, func() map[string]string {
			return map[string]string{
				"removed": strconv.Itoa(removed),
			}
		})
	})
	engine.sweeper.Start()

	b.built = true

	return engine, nil
}
