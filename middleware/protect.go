package middleware

import (
	"context"
	"net"
	"net/http"
	"net/url"

	tokengate "github.com/pixelvault/tokengate"
)

type validationResultContextKey struct{}

// ResultFromContext returns the validation result injected by [Protect].
func ResultFromContext(ctx context.Context) (*tokengate.ValidationResult, bool) {
	res, ok := ctx.Value(validationResultContextKey{}).(*tokengate.ValidationResult)
	return res, ok
}

// Protect wraps a resource handler with full token enforcement.
//
// The signed url claim authorizes exactly one resource. Before the handler
// runs, the requested path is compared against the claim (ignoring query
// strings); without that check a token minted for one photo could be replayed
// against any other endpoint that also reads the token parameter.
//
// For quota-bearing tokens one download is recorded after the wrapped handler
// completes with a non-error status, so a failed transfer does not consume a
// use.
func Protect(engine *tokengate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			ctx := tokengate.WithClientIP(r.Context(), clientIP(r))

			result := engine.ValidateURL(ctx, r.URL.String())
			if !result.Valid {
				status := result.Reason.HTTPStatus()
				http.Error(w, http.StatusText(status), status)
				return
			}

			if !boundToRequest(result, r) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			if !result.Claims.HasPermission(requiredPermission(r.Method)) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			ctx = context.WithValue(ctx, validationResultContextKey{}, &result)

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))

			if result.Claims.MaxDownloads > 0 && recorder.status < http.StatusBadRequest {
				_, _ = engine.RecordDownload(ctx, result.Claims.JTI)
			}
		})
	}
}

// boundToRequest enforces the binding invariant: the resource being served
// must be the resource the claims were signed for, ignoring the query string.
func boundToRequest(result tokengate.ValidationResult, r *http.Request) bool {
	if result.Claims == nil {
		return false
	}

	claimed, err := url.Parse(result.Claims.URL)
	if err != nil {
		return false
	}

	if claimed.EscapedPath() != r.URL.EscapedPath() {
		return false
	}
	if claimed.Host != "" && r.Host != "" && claimed.Host != r.Host {
		return false
	}
	return true
}

func requiredPermission(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return tokengate.PermissionRead
	default:
		return tokengate.PermissionWrite
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
