package tokengate

import (
	"net/http"
	"time"

	"github.com/pixelvault/tokengate/token"
)

const (
	// PermissionRead grants read access to the resource named in the claims.
	PermissionRead = "read"
	// PermissionWrite grants write (upload) access to the resource named in the claims.
	PermissionWrite = "write"
)

// UnlimitedDownloads is the RemainingDownloads value for tokens issued
// without a download quota.
const UnlimitedDownloads = -1

// IssueOptions controls a single token issuance.
//
// ExpiresIn is required and must be positive. Permissions defaults to
// {"read"} when empty. The remaining fields are optional claims.
type IssueOptions struct {
	ExpiresIn     time.Duration
	Permissions   []string
	UserID        string
	IPRestriction []string
	MaxDownloads  int
}

// IssuedToken is returned by [Engine.Issue] and the grant helpers.
// It carries the composed resource URL with the token attached, the raw
// token, and bookkeeping identifiers.
type IssuedToken struct {
	URL       string
	Token     string
	ExpiresAt time.Time
	JTI       string
}

// Reason identifies why validation denied a token. ReasonNone means valid.
type Reason uint8

const (
	// ReasonNone is an exported constant or variable used by the token engine.
	ReasonNone Reason = iota
	// ReasonTokenMissing is an exported constant or variable used by the token engine.
	ReasonTokenMissing
	// ReasonMalformed is an exported constant or variable used by the token engine.
	ReasonMalformed
	// ReasonSignatureInvalid is an exported constant or variable used by the token engine.
	ReasonSignatureInvalid
	// ReasonRevoked is an exported constant or variable used by the token engine.
	ReasonRevoked
	// ReasonExpired is an exported constant or variable used by the token engine.
	ReasonExpired
	// ReasonIPRestricted is an exported constant or variable used by the token engine.
	ReasonIPRestricted
	// ReasonQuotaExceeded is an exported constant or variable used by the token engine.
	ReasonQuotaExceeded
	// ReasonBackendUnavailable is an exported constant or variable used by the token engine.
	ReasonBackendUnavailable
)

// String describes the string operation and its observable behavior.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "valid"
	case ReasonTokenMissing:
		return "token_missing"
	case ReasonMalformed:
		return "malformed"
	case ReasonSignatureInvalid:
		return "signature_invalid"
	case ReasonRevoked:
		return "revoked"
	case ReasonExpired:
		return "expired"
	case ReasonIPRestricted:
		return "ip_restricted"
	case ReasonQuotaExceeded:
		return "quota_exceeded"
	case ReasonBackendUnavailable:
		return "backend_unavailable"
	default:
		return "unknown"
	}
}

// Err maps the reason to its sentinel error, or nil for ReasonNone.
func (r Reason) Err() error {
	switch r {
	case ReasonNone:
		return nil
	case ReasonTokenMissing:
		return ErrTokenMissing
	case ReasonMalformed:
		return ErrTokenMalformed
	case ReasonSignatureInvalid:
		return ErrSignatureInvalid
	case ReasonRevoked:
		return ErrTokenRevoked
	case ReasonExpired:
		return ErrTokenExpired
	case ReasonIPRestricted:
		return ErrIPRestricted
	case ReasonQuotaExceeded:
		return ErrQuotaExceeded
	case ReasonBackendUnavailable:
		return ErrBackendUnavailable
	default:
		return ErrTokenMalformed
	}
}

// HTTPStatus collapses deny reasons into coarse status buckets for anonymous
// callers. Detailed reasons stay in internal results and audit events; leaking
// them verbatim across a trust boundary helps an attacker iterate.
func (r Reason) HTTPStatus() int {
	switch r {
	case ReasonNone:
		return http.StatusOK
	case ReasonTokenMissing, ReasonMalformed, ReasonSignatureInvalid:
		return http.StatusUnauthorized
	case ReasonRevoked, ReasonExpired, ReasonIPRestricted, ReasonQuotaExceeded:
		return http.StatusForbidden
	case ReasonBackendUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}

// ValidationResult is returned by [Engine.Validate] and [Engine.ValidateURL].
// Valid distinguishes grant from deny; Reason carries the deny category.
// Claims is populated once parse and signature verification succeed, even for
// tokens later denied by revocation, expiry, IP, or quota.
type ValidationResult struct {
	Valid  bool
	Reason Reason

	Claims *token.Claims

	Permissions []string
	UserID      string

	// RemainingDownloads reports the quota left before this download, or
	// UnlimitedDownloads for tokens issued without MaxDownloads.
	RemainingDownloads int
}

func deny(reason Reason) ValidationResult {
	return ValidationResult{
		Valid:              false,
		Reason:             reason,
		RemainingDownloads: UnlimitedDownloads,
	}
}

func denyWithClaims(reason Reason, claims *token.Claims) ValidationResult {
	result := deny(reason)
	result.Claims = claims
	return result
}
