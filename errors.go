package tokengate

import "errors"

var (
	// ErrTokenMissing is an exported constant or variable used by the token engine.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenMalformed is an exported constant or variable used by the token engine.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrSignatureInvalid is an exported constant or variable used by the token engine.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenRevoked is an exported constant or variable used by the token engine.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenExpired is an exported constant or variable used by the token engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrIPRestricted is an exported constant or variable used by the token engine.
	ErrIPRestricted = errors.New("client ip not allowed")
	// ErrQuotaExceeded is an exported constant or variable used by the token engine.
	ErrQuotaExceeded = errors.New("download quota exceeded")
	// ErrBackendUnavailable is an exported constant or variable used by the token engine.
	ErrBackendUnavailable = errors.New("state backend unavailable")

	// ErrSecretMissing is returned when an Engine is built without a signing secret.
	ErrSecretMissing = errors.New("signing secret missing")
	// ErrInvalidTTL is returned when issuance is requested with a non-positive lifetime.
	ErrInvalidTTL = errors.New("token lifetime must be > 0")
	// ErrInvalidResourceURL is returned when the resource URL cannot be parsed.
	ErrInvalidResourceURL = errors.New("invalid resource url")
	// ErrBaseURLMissing is returned by the grant helpers when no base URL is configured.
	ErrBaseURLMissing = errors.New("base url not configured")
	// ErrIssueRateLimited is returned when issuance exceeds the configured fixed-window budget.
	ErrIssueRateLimited = errors.New("issue rate limited")
	// ErrRateLimitRequiresRedis is returned by Build when rate limiting is enabled without a Redis client.
	ErrRateLimitRequiresRedis = errors.New("rate limiting requires a redis client")
	// ErrEngineNotReady is an exported constant or variable used by the token engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
