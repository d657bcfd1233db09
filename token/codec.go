package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

// ErrMalformed is returned when a token cannot be split, decoded, or parsed.
var ErrMalformed = errors.New("malformed token")

// ErrEmptySecret is returned when a Codec is constructed without a signing secret.
var ErrEmptySecret = errors.New("empty signing secret")

// Claims defines a public type used by the token engine APIs.
//
// Claims instances are immutable once signed; re-issuing is the only way to change them.
type Claims struct {
	URL           string   `json:"url"`
	Exp           int64    `json:"exp"`
	Iat           int64    `json:"iat"`
	Permissions   []string `json:"permissions"`
	UserID        string   `json:"userId,omitempty"`
	IPRestriction []string `json:"ipRestriction,omitempty"`
	MaxDownloads  int      `json:"maxDownloads,omitempty"`
	JTI           string   `json:"jti"`
}

// HasPermission reports whether the claims grant the named permission.
func (c *Claims) HasPermission(perm string) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Codec defines a public type used by the token engine APIs.
//
// Codec instances are intended to be configured during initialization and then treated as immutable.
type Codec struct {
	secret []byte
}

// NewCodec describes the newcodec operation and its observable behavior.
//
// NewCodec returns an error when the secret is empty; a signing secret is never defaulted.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	own := make([]byte, len(secret))
	copy(own, secret)
	return &Codec{secret: own}, nil
}

// Encode describes the encode operation and its observable behavior.
//
// Encode serializes claims to canonical JSON, base64url-encodes the payload, and
// appends the hex HMAC-SHA256 signature computed over the payload text.
// Encode does not mutate shared state and is safe for concurrent use.
func (c *Codec) Encode(claims *Claims) (string, error) {
	raw, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + c.Sign(payload), nil
}

// Decode describes the decode operation and its observable behavior.
//
// Decode splits on the first dot, base64url-decodes and JSON-parses the payload
// segment, and returns the claims together with the raw payload and signature
// segments. Any structural failure yields [ErrMalformed]. Decode performs NO
// signature verification; callers must pass the returned segments to [Codec.Verify]
// before trusting the claims.
func (c *Codec) Decode(tok string) (*Claims, string, string, error) {
	payload, sig, ok := strings.Cut(tok, ".")
	if !ok || payload == "" || sig == "" {
		return nil, "", "", ErrMalformed
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", "", ErrMalformed
	}

	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, "", "", ErrMalformed
	}

	return &claims, payload, sig, nil
}

// Sign describes the sign operation and its observable behavior.
//
// Sign computes the hex-encoded HMAC-SHA256 of the base64url payload text using the
// configured secret. Sign does not mutate shared state and is safe for concurrent use.
func (c *Codec) Sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify describes the verify operation and its observable behavior.
//
// Verify recomputes the signature for payload and compares it against sig in
// constant time, so timing never reveals where the first mismatching byte occurs.
func (c *Codec) Verify(payload, sig string) bool {
	return hmac.Equal([]byte(c.Sign(payload)), []byte(sig))
}
