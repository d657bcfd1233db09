package tokengate

import (
	"context"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultPhotoAccessTTL is the lifetime of a single-photo access grant.
	DefaultPhotoAccessTTL = time.Hour
	// DefaultBatchAccessTTL is the lifetime of a batch download grant.
	DefaultBatchAccessTTL = 30 * time.Minute
	// DefaultUploadGrantTTL is the lifetime of an upload grant.
	DefaultUploadGrantTTL = time.Hour

	// DefaultBatchMaxDownloads bounds how often a batch link can be used.
	// Three uses tolerate client retries without leaving the link open-ended.
	DefaultBatchMaxDownloads = 3
)

// GrantOptions tunes the grant helpers. Zero values keep each helper's
// default; helpers never require it to be filled in.
type GrantOptions struct {
	ExpiresIn     time.Duration
	IPRestriction []string
	MaxDownloads  int
}

// IssuePhotoAccess mints a read token for a single photo, valid for one hour
// by default. The resource URL is composed under [Config.BaseURL].
func (e *Engine) IssuePhotoAccess(ctx context.Context, photoID, userID string, opts GrantOptions) (*IssuedToken, error) {
	resourceURL, err := e.resourceURL("photos", photoID, "download")
	if err != nil {
		return nil, err
	}

	expiresIn := opts.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = DefaultPhotoAccessTTL
	}

	return e.Issue(ctx, resourceURL, IssueOptions{
		ExpiresIn:     expiresIn,
		Permissions:   []string{PermissionRead},
		UserID:        userID,
		IPRestriction: opts.IPRestriction,
		MaxDownloads:  opts.MaxDownloads,
	})
}

// IssueBatchAccess mints a read token covering several photos at once, valid
// for thirty minutes and three downloads by default. The photo list travels in
// the URL itself; the signature covers the whole URL including that list, so
// the set cannot be altered after issuance.
func (e *Engine) IssueBatchAccess(ctx context.Context, photoIDs []string, userID string, opts GrantOptions) (*IssuedToken, error) {
	if len(photoIDs) == 0 {
		return nil, ErrInvalidResourceURL
	}

	resourceURL, err := e.resourceURL("photos", "batch", "download")
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(resourceURL)
	if err != nil {
		return nil, ErrInvalidResourceURL
	}
	query := parsed.Query()
	query.Set("ids", strings.Join(photoIDs, ","))
	parsed.RawQuery = query.Encode()

	expiresIn := opts.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = DefaultBatchAccessTTL
	}
	maxDownloads := opts.MaxDownloads
	if maxDownloads <= 0 {
		maxDownloads = DefaultBatchMaxDownloads
	}

	return e.Issue(ctx, parsed.String(), IssueOptions{
		ExpiresIn:     expiresIn,
		Permissions:   []string{PermissionRead},
		UserID:        userID,
		IPRestriction: opts.IPRestriction,
		MaxDownloads:  maxDownloads,
	})
}

// IssueUploadGrant mints a write token for uploading into an album, valid for
// one hour by default.
func (e *Engine) IssueUploadGrant(ctx context.Context, albumID, userID string, opts GrantOptions) (*IssuedToken, error) {
	resourceURL, err := e.resourceURL("albums", albumID, "upload")
	if err != nil {
		return nil, err
	}

	expiresIn := opts.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = DefaultUploadGrantTTL
	}

	return e.Issue(ctx, resourceURL, IssueOptions{
		ExpiresIn:     expiresIn,
		Permissions:   []string{PermissionWrite},
		UserID:        userID,
		IPRestriction: opts.IPRestriction,
		MaxDownloads:  opts.MaxDownloads,
	})
}

func (e *Engine) resourceURL(segments ...string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	base := strings.TrimRight(e.config.BaseURL, "/")
	if base == "" {
		return "", ErrBaseURLMissing
	}

	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			return "", ErrInvalidResourceURL
		}
		escaped = append(escaped, url.PathEscape(segment))
	}

	return base + "/" + strings.Join(escaped, "/"), nil
}
