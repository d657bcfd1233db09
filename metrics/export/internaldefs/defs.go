package internaldefs

import (
	"github.com/pixelvault/tokengate"
)

// CounterDef defines a public type used by tokengate APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   tokengate.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by tokengate APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   tokengate.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the token engine.
var CounterDefs = []CounterDef{
	{ID: tokengate.MetricIssueSuccess, Name: "tokengate_issue_success_total", Help: "Successfully issued tokens."},
	{ID: tokengate.MetricIssueFailure, Name: "tokengate_issue_failure_total", Help: "Failed token issue operations."},
	{ID: tokengate.MetricValidateSuccess, Name: "tokengate_validate_success_total", Help: "Validations that produced a valid result."},
	{ID: tokengate.MetricValidateMissing, Name: "tokengate_validate_missing_total", Help: "Validations rejected because the token was absent."},
	{ID: tokengate.MetricValidateMalformed, Name: "tokengate_validate_malformed_total", Help: "Validations rejected because the token could not be parsed."},
	{ID: tokengate.MetricValidateBadSignature, Name: "tokengate_validate_bad_signature_total", Help: "Validations rejected for signature mismatch."},
	{ID: tokengate.MetricValidateRevoked, Name: "tokengate_validate_revoked_total", Help: "Validations rejected because the token was revoked."},
	{ID: tokengate.MetricValidateExpired, Name: "tokengate_validate_expired_total", Help: "Validations rejected because the token was expired."},
	{ID: tokengate.MetricValidateIPRestricted, Name: "tokengate_validate_ip_restricted_total", Help: "Validations rejected by IP restriction."},
	{ID: tokengate.MetricValidateQuotaExceeded, Name: "tokengate_validate_quota_exceeded_total", Help: "Validations rejected because the download quota was exhausted."},
	{ID: tokengate.MetricValidateBackendError, Name: "tokengate_validate_backend_error_total", Help: "Validations rejected because a backing store was unavailable."},
	{ID: tokengate.MetricDownloadAccepted, Name: "tokengate_download_accepted_total", Help: "Download recordings accepted within quota."},
	{ID: tokengate.MetricDownloadRejected, Name: "tokengate_download_rejected_total", Help: "Download recordings rejected over quota."},
	{ID: tokengate.MetricRevocations, Name: "tokengate_revocations_total", Help: "Token revocation operations."},
	{ID: tokengate.MetricQuotaSweepEvictions, Name: "tokengate_quota_sweep_evictions_total", Help: "Quota records evicted by background sweeps."},
}

// HistogramDefs is an exported constant or variable used by the token engine.
var HistogramDefs = []HistogramDef{
	{ID: tokengate.MetricValidateLatency, Name: "tokengate_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the token engine.
var HistogramBounds = []string{
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"0.025",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the token engine.
var HistogramBoundSuffix = []string{
	"0_00005",
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_005",
	"0_025",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
