package tokengate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pixelvault/tokengate/internal/rate"
	"github.com/pixelvault/tokengate/quota"
	"github.com/pixelvault/tokengate/revocation"
	"github.com/pixelvault/tokengate/token"
)

// Engine defines a public type used by tokengate APIs.
//
// Engine instances are intended to be configured during initialization through
// [Builder.Build] and then treated as immutable. All methods are safe for
// concurrent use.
type Engine struct {
	config      Config
	codec       *token.Codec
	quotas      quota.Store
	revocations revocation.Store
	sweeper     *quota.Sweeper
	limiter     *rate.Limiter
	audit       *auditDispatcher
	metrics     *Metrics
	clock       clockwork.Clock
}

// Close describes the close operation and its observable behavior.
//
// Close stops the quota sweeper and drains the audit dispatcher. It must be
// called at process shutdown; the sweeper goroutine leaks otherwise.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.sweeper != nil {
		e.sweeper.Stop()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

/*
====================================
ISSUANCE
====================================
*/

// Issue mints a signed access token for resourceURL and returns the composed
// URL carrying it as a query parameter.
//
// Issue may return an error when input validation fails: a non-positive
// ExpiresIn and an unparsable resource URL are programmer errors, reported as
// [ErrInvalidTTL] and [ErrInvalidResourceURL] rather than coerced into a
// zero-lifetime token. Registering the download quota (when MaxDownloads is
// set) is the method's only side effect.
func (e *Engine) Issue(ctx context.Context, resourceURL string, opts IssueOptions) (*IssuedToken, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}
	if opts.ExpiresIn <= 0 {
		e.metricInc(MetricIssueFailure)
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTTL, opts.ExpiresIn)
	}

	parsed, err := url.Parse(resourceURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		e.metricInc(MetricIssueFailure)
		return nil, fmt.Errorf("%w: %q", ErrInvalidResourceURL, resourceURL)
	}

	if e.limiter != nil {
		err := e.limiter.IncrementIssue(ctx, opts.UserID, clientIPFromContext(ctx))
		switch {
		case errors.Is(err, rate.ErrRateLimited):
			e.metricInc(MetricIssueFailure)
			e.emitAudit(ctx, auditEventTokenIssued, false, "", opts.UserID, resourceURL, ReasonNone, func() map[string]string {
				return map[string]string{"error": "rate limited"}
			})
			return nil, ErrIssueRateLimited
		case err != nil:
			e.metricInc(MetricIssueFailure)
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}

	permissions := opts.Permissions
	if len(permissions) == 0 {
		permissions = []string{PermissionRead}
	}

	now := e.clock.Now()
	expiresAt := now.Add(opts.ExpiresIn)

	claims := &token.Claims{
		URL:           resourceURL,
		Exp:           expiresAt.Unix(),
		Iat:           now.Unix(),
		Permissions:   permissions,
		UserID:        opts.UserID,
		IPRestriction: opts.IPRestriction,
		MaxDownloads:  opts.MaxDownloads,
		JTI:           uuid.NewString(),
	}

	if opts.MaxDownloads > 0 {
		if err := e.quotas.Register(ctx, claims.JTI, uint32(opts.MaxDownloads), claims.Exp); err != nil {
			e.metricInc(MetricIssueFailure)
			return nil, err
		}
	}

	tok, err := e.codec.Encode(claims)
	if err != nil {
		e.metricInc(MetricIssueFailure)
		return nil, err
	}

	query := parsed.Query()
	query.Set(e.config.Token.QueryParam, tok)
	parsed.RawQuery = query.Encode()

	e.metricInc(MetricIssueSuccess)
	e.emitAudit(ctx, auditEventTokenIssued, true, claims.JTI, opts.UserID, resourceURL, ReasonNone, func() map[string]string {
		meta := map[string]string{
			"expires_at": expiresAt.UTC().Format(time.RFC3339),
		}
		if opts.MaxDownloads > 0 {
			meta["max_downloads"] = strconv.Itoa(opts.MaxDownloads)
		}
		return meta
	})

	return &IssuedToken{
		URL:       parsed.String(),
		Token:     tok,
		ExpiresAt: expiresAt,
		JTI:       claims.JTI,
	}, nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate runs the full validation pipeline over a raw token: parse,
// signature, revocation, expiry, IP allow-list, download quota. The client IP
// is taken from ctx when attached via [WithClientIP].
//
// Validate never returns an error for a bad token; the outcome is a
// discriminated [ValidationResult]. Signature verification runs before any
// state-store lookup so garbage input cannot consume revocation or quota
// backend resources.
func (e *Engine) Validate(ctx context.Context, tok string) ValidationResult {
	if e == nil || e.codec == nil {
		return deny(ReasonBackendUnavailable)
	}

	start := e.clock.Now()
	result := e.validate(ctx, tok)

	e.observeValidation(start, result)
	e.emitValidation(ctx, result)
	return result
}

// ValidateURL extracts the token query parameter from rawURL and delegates to
// [Engine.Validate]. A missing or empty parameter is its own terminal
// condition, checked before any parsing.
func (e *Engine) ValidateURL(ctx context.Context, rawURL string) ValidationResult {
	if e == nil || e.codec == nil {
		return deny(ReasonBackendUnavailable)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		result := deny(ReasonTokenMissing)
		e.metricInc(MetricValidateMissing)
		e.emitValidation(ctx, result)
		return result
	}

	tok := parsed.Query().Get(e.config.Token.QueryParam)
	if tok == "" {
		result := deny(ReasonTokenMissing)
		e.metricInc(MetricValidateMissing)
		e.emitValidation(ctx, result)
		return result
	}

	return e.Validate(ctx, tok)
}

func (e *Engine) validate(ctx context.Context, tok string) ValidationResult {
	if tok == "" {
		return deny(ReasonTokenMissing)
	}

	claims, payload, sig, err := e.codec.Decode(tok)
	if err != nil {
		return deny(ReasonMalformed)
	}

	if !e.codec.Verify(payload, sig) {
		return deny(ReasonSignatureInvalid)
	}

	// Revocation is checked before expiry so a revoked-but-unexpired token
	// fails for the right reason.
	revoked, err := e.revocations.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return denyWithClaims(ReasonBackendUnavailable, claims)
	}
	if revoked {
		return denyWithClaims(ReasonRevoked, claims)
	}

	if claims.Exp < e.clock.Now().Unix() {
		return denyWithClaims(ReasonExpired, claims)
	}

	if len(claims.IPRestriction) > 0 {
		clientIP := clientIPFromContext(ctx)
		if clientIP == "" {
			if !e.config.Validation.AllowMissingClientIP {
				return denyWithClaims(ReasonIPRestricted, claims)
			}
		} else if !containsString(claims.IPRestriction, clientIP) {
			return denyWithClaims(ReasonIPRestricted, claims)
		}
	}

	remaining := UnlimitedDownloads
	if claims.MaxDownloads > 0 {
		record, err := e.quotas.Get(ctx, claims.JTI)
		switch {
		case errors.Is(err, quota.ErrNotFound):
			// Record evicted or never registered on this instance; the claim
			// itself still bounds what RecordDownload will grant elsewhere.
			remaining = claims.MaxDownloads
		case err != nil:
			return denyWithClaims(ReasonBackendUnavailable, claims)
		default:
			remaining = record.Remaining()
			if remaining <= 0 {
				result := denyWithClaims(ReasonQuotaExceeded, claims)
				result.RemainingDownloads = 0
				return result
			}
		}
	}

	return ValidationResult{
		Valid:              true,
		Reason:             ReasonNone,
		Claims:             claims,
		Permissions:        claims.Permissions,
		UserID:             claims.UserID,
		RemainingDownloads: remaining,
	}
}

func (e *Engine) observeValidation(start time.Time, result ValidationResult) {
	if e == nil || e.metrics == nil {
		return
	}

	e.metrics.Observe(MetricValidateLatency, e.clock.Since(start))

	switch result.Reason {
	case ReasonNone:
		e.metrics.Inc(MetricValidateSuccess)
	case ReasonTokenMissing:
		e.metrics.Inc(MetricValidateMissing)
	case ReasonMalformed:
		e.metrics.Inc(MetricValidateMalformed)
	case ReasonSignatureInvalid:
		e.metrics.Inc(MetricValidateBadSignature)
	case ReasonRevoked:
		e.metrics.Inc(MetricValidateRevoked)
	case ReasonExpired:
		e.metrics.Inc(MetricValidateExpired)
	case ReasonIPRestricted:
		e.metrics.Inc(MetricValidateIPRestricted)
	case ReasonQuotaExceeded:
		e.metrics.Inc(MetricValidateQuotaExceeded)
	case ReasonBackendUnavailable:
		e.metrics.Inc(MetricValidateBackendError)
	}
}

/*
====================================
QUOTA + REVOCATION
====================================
*/

// RecordDownload atomically consumes one use of the token identified by jti.
// It reports true when this use is accepted, false when the quota was already
// exhausted. Tokens issued without MaxDownloads are unlimited and always
// accepted. Call it only after the resource was actually served.
func (e *Engine) RecordDownload(ctx context.Context, jti string) (bool, error) {
	if e == nil || e.quotas == nil {
		return false, ErrEngineNotReady
	}

	accepted, err := e.quotas.RecordDownload(ctx, jti)
	if err != nil {
		return false, err
	}

	if accepted {
		e.metricInc(MetricDownloadAccepted)
	} else {
		e.metricInc(MetricDownloadRejected)
	}
	e.emitAudit(ctx, auditEventDownloadRecorded, accepted, jti, "", "", ReasonNone, nil)

	return accepted, nil
}

// Revoke marks the token identified by jti as revoked until expiresAt, after
// which the entry is pruned because expiry alone denies the token. Revoking
// an already revoked jti is a no-op.
func (e *Engine) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if e == nil || e.revocations == nil {
		return ErrEngineNotReady
	}

	ttl := expiresAt.Sub(e.clock.Now())
	if err := e.revocations.Revoke(ctx, jti, ttl); err != nil {
		return err
	}

	e.metricInc(MetricRevocations)
	e.emitAudit(ctx, auditEventTokenRevoked, true, jti, "", "", ReasonNone, nil)
	return nil
}

// RevokeToken decodes and verifies a raw token, then revokes its jti for the
// token's remaining lifetime. Malformed or forged tokens are rejected with
// [ErrTokenMalformed] or [ErrSignatureInvalid]; nothing is stored for them.
func (e *Engine) RevokeToken(ctx context.Context, tok string) error {
	if e == nil || e.codec == nil {
		return ErrEngineNotReady
	}

	claims, payload, sig, err := e.codec.Decode(tok)
	if err != nil {
		return ErrTokenMalformed
	}
	if !e.codec.Verify(payload, sig) {
		return ErrSignatureInvalid
	}

	return e.Revoke(ctx, claims.JTI, time.Unix(claims.Exp, 0))
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
