package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	EnableIPThrottle bool
	MaxIssueAttempts int
	IssueCooldown    time.Duration
}

// Limiter enforces per-user and per-IP budgets for token issue
// operations using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckIssue checks whether the user+IP pair is within the issue
// budget without consuming an attempt. Returns an error if rate-limited.
func (l *Limiter) CheckIssue(ctx context.Context, userID, ip string) error {
	if userID != "" {
		if err := l.checkCounter(ctx, issueUserKey(userID), l.config.MaxIssueAttempts); err != nil {
			return err
		}
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, issueIPKey(ip), l.config.MaxIssueAttempts); err != nil {
			return err
		}
	}

	return nil
}

// IncrementIssue consumes one issue attempt for the user+IP pair.
// Returns [ErrRateLimited] once the fixed-window budget is exceeded.
func (l *Limiter) IncrementIssue(ctx context.Context, userID, ip string) error {
	if userID != "" {
		count, err := l.incrementWithTTL(ctx, issueUserKey(userID), l.config.IssueCooldown)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxIssueAttempts) {
			return ErrRateLimited
		}
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err := l.incrementWithTTL(ctx, issueIPKey(ip), l.config.IssueCooldown)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxIssueAttempts) {
			return ErrRateLimited
		}
	}

	return nil
}

// ResetIssue clears the issue counters for the user+IP pair.
func (l *Limiter) ResetIssue(ctx context.Context, userID, ip string) error {
	keys := make([]string, 0, 2)
	if userID != "" {
		keys = append(keys, issueUserKey(userID))
	}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, issueIPKey(ip))
	}
	if len(keys) == 0 {
		return nil
	}

	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// GetIssueAttempts returns the current attempt counter for a user.
// Missing keys return zero.
func (l *Limiter) GetIssueAttempts(ctx context.Context, userID string) (int, error) {
	count, err := l.redis.Get(ctx, issueUserKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count > int64(maxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func issueUserKey(userID string) string { return "tgri:u:" + userID }

func issueIPKey(ip string) string { return "tgri:ip:" + ip }
