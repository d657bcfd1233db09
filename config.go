package tokengate

import (
	"errors"
	"net/url"
	"time"
)

// Config defines a public type used by tokengate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// Secret signs every issued token. It must be supplied externally at
	// startup; an empty secret fails Build. No default is ever substituted.
	Secret []byte

	// BaseURL is the public base under which the grant helpers compose
	// resource URLs, e.g. "https://cdn.example.com".
	BaseURL string

	Token      TokenConfig
	Quota      QuotaConfig
	Revocation RevocationConfig
	Validation ValidationConfig
	RateLimit  RateLimitConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by tokengate APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	// QueryParam is the query-string key carrying the token on resource URLs.
	QueryParam string
}

/*
====================================
QUOTA CONFIG
====================================
*/

// QuotaConfig defines a public type used by tokengate APIs.
//
// QuotaConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type QuotaConfig struct {
	RedisPrefix   string
	SweepInterval time.Duration
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig defines a public type used by tokengate APIs.
//
// RevocationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RevocationConfig struct {
	RedisPrefix string
}

/*
====================================
VALIDATION CONFIG
====================================
*/

// ValidationConfig defines a public type used by tokengate APIs.
//
// ValidationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ValidationConfig struct {
	// AllowMissingClientIP relaxes the IP allow-list check when no client IP
	// was supplied to Validate. The default is fail-closed: an IP-restricted
	// token presented without a client IP is denied.
	AllowMissingClientIP bool
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig defines a public type used by tokengate APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	// Enabled turns on fixed-window issue throttling. Requires a Redis client;
	// Build fails when enabled without one.
	Enabled          bool
	EnableIPThrottle bool
	MaxIssueAttempts int
	IssueCooldown    time.Duration
}

// AuditConfig defines a public type used by tokengate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by tokengate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. The signing secret and
// base URL are deliberately left unset; both come from the deployment.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			QueryParam: "token",
		},
		Quota: QuotaConfig{
			RedisPrefix:   "tgq",
			SweepInterval: time.Minute,
		},
		Revocation: RevocationConfig{
			RedisPrefix: "tgr",
		},
		Validation: ValidationConfig{
			AllowMissingClientIP: false,
		},
		RateLimit: RateLimitConfig{
			Enabled:          false,
			EnableIPThrottle: true,
			MaxIssueAttempts: 100,
			IssueCooldown:    time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Secret = cloneBytes(cfg.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if len(c.Secret) == 0 {
		return ErrSecretMissing
	}

	if c.BaseURL != "" {
		parsed, err := url.Parse(c.BaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return errors.New("BaseURL must be an absolute URL")
		}
	}

	if c.Token.QueryParam == "" {
		return errors.New("Token QueryParam must not be empty")
	}

	if c.Quota.SweepInterval <= 0 {
		return errors.New("Quota SweepInterval must be > 0")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.MaxIssueAttempts <= 0 {
			return errors.New("RateLimit MaxIssueAttempts must be > 0 when rate limiting is enabled")
		}
		if c.RateLimit.IssueCooldown <= 0 {
			return errors.New("RateLimit IssueCooldown must be > 0 when rate limiting is enabled")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
