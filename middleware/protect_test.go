package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tokengate "github.com/pixelvault/tokengate"
)

const testSecret = "middleware-test-signing-secret-0123"

func newTestEngine(t *testing.T) *tokengate.Engine {
	t.Helper()

	engine, err := tokengate.New().
		WithSecret([]byte(testSecret)).
		WithBaseURL("https://cdn.example.com").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func okHandler(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ResultFromContext(r.Context()); !ok {
			t.Error("expected validation result in handler context")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("photo-bytes"))
	})
}

func protectedRequest(t *testing.T, engine *tokengate.Engine, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "10.0.0.1:52000"
	rec := httptest.NewRecorder()
	Protect(engine)(handler).ServeHTTP(rec, req)
	return rec
}

func TestProtectAllowsValidToken(t *testing.T) {
	engine := newTestEngine(t)

	issued, err := engine.IssuePhotoAccess(context.Background(), "p1", "u1", tokengate.GrantOptions{})
	if err != nil {
		t.Fatalf("IssuePhotoAccess failed: %v", err)
	}

	rec := protectedRequest(t, engine, okHandler(t), issued.URL)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProtectRejectsMissingToken(t *testing.T) {
	engine := newTestEngine(t)

	rec := protectedRequest(t, engine, okHandler(t), "https://cdn.example.com/photos/p1/download")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestProtectRejectsTamperedToken(t *testing.T) {
	engine := newTestEngine(t)

	issued, err := engine.IssuePhotoAccess(context.Background(), "p1", "u1", tokengate.GrantOptions{})
	if err != nil {
		t.Fatalf("IssuePhotoAccess failed: %v", err)
	}

	rec := protectedRequest(t, engine, okHandler(t), issued.URL+"ff")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for tampered token, got %d", rec.Code)
	}
}

func TestProtectRejectsReplayAgainstOtherResource(t *testing.T) {
	engine := newTestEngine(t)

	issued, err := engine.IssuePhotoAccess(context.Background(), "p1", "u1", tokengate.GrantOptions{})
	if err != nil {
		t.Fatalf("IssuePhotoAccess failed: %v", err)
	}

	// Same valid token presented on a different path must be refused.
	replayed := "https://cdn.example.com/photos/p2/download?token=" + issued.Token
	rec := protectedRequest(t, engine, okHandler(t), replayed)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for replayed token, got %d", rec.Code)
	}
}

func TestProtectEnforcesPermissionByMethod(t *testing.T) {
	engine := newTestEngine(t)

	issued, err := engine.IssuePhotoAccess(context.Background(), "p1", "u1", tokengate.GrantOptions{})
	if err != nil {
		t.Fatalf("IssuePhotoAccess failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, issued.URL, nil)
	req.RemoteAddr = "10.0.0.1:52000"
	rec := httptest.NewRecorder()
	Protect(engine)(okHandler(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for write with a read token, got %d", rec.Code)
	}
}

func TestProtectAllowsUploadGrantForPost(t *testing.T) {
	engine := newTestEngine(t)

	issued, err := engine.IssueUploadGrant(context.Background(), "album1", "u1", tokengate.GrantOptions{})
	if err != nil {
		t.Fatalf("IssueUploadGrant failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, issued.URL, nil)
	req.RemoteAddr = "10.0.0.1:52000"
	rec := httptest.NewRecorder()
	Protect(engine)(okHandler(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for upload grant, got %d", rec.Code)
	}
}

func TestProtectEnforcesIPRestriction(t *testing.T) {
	engine := newTestEngine(t)

	issued, err := engine.IssuePhotoAccess(context.Background(), "p1", "u1", tokengate.GrantOptions{
		IPRestriction: []string{"10.0.0.1"},
	})
	if err != nil {
		t.Fatalf("IssuePhotoAccess failed: %v", err)
	}

	allowed := protectedRequest(t, engine, okHandler(t), issued.URL)
	if allowed.Code != http.StatusOK {
		t.Fatalf("expected 200 from allow-listed IP, got %d", allowed.Code)
	}

	req := httptest.NewRequest(http.MethodGet, issued.URL, nil)
	req.RemoteAddr = "192.168.1.1:52000"
	rec := httptest.NewRecorder()
	Protect(engine)(okHandler(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 from foreign IP, got %d", rec.Code)
	}
}

func TestProtectRecordsQuotaOnSuccess(t *testing.T) {
	engine := newTestEngine(t)

	issued, err := engine.IssuePhotoAccess(context.Background(), "p1", "u1", tokengate.GrantOptions{MaxDownloads: 2})
	if err != nil {
		t.Fatalf("IssuePhotoAccess failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		rec := protectedRequest(t, engine, okHandler(t), issued.URL)
		if rec.Code != http.StatusOK {
			t.Fatalf("download %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec := protectedRequest(t, engine, okHandler(t), issued.URL)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 once quota is exhausted, got %d", rec.Code)
	}
}

func TestProtectDoesNotChargeQuotaOnHandlerError(t *testing.T) {
	engine := newTestEngine(t)

	issued, err := engine.IssuePhotoAccess(context.Background(), "p1", "u1", tokengate.GrantOptions{MaxDownloads: 1})
	if err != nil {
		t.Fatalf("IssuePhotoAccess failed: %v", err)
	}

	failing := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "storage error", http.StatusInternalServerError)
	})

	rec := protectedRequest(t, engine, failing, issued.URL)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected handler error to pass through, got %d", rec.Code)
	}

	// The failed transfer must not consume the single allowed download.
	rec = protectedRequest(t, engine, okHandler(t), issued.URL)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected quota to survive the failed transfer, got %d", rec.Code)
	}
}

func TestProtectRejectsExpiredToken(t *testing.T) {
	engine := newTestEngine(t)

	issued, err := engine.IssuePhotoAccess(context.Background(), "p1", "u1", tokengate.GrantOptions{
		ExpiresIn: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("IssuePhotoAccess failed: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)

	rec := protectedRequest(t, engine, okHandler(t), issued.URL)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for expired token, got %d", rec.Code)
	}
}

func TestProtectNilEngine(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "https://cdn.example.com/photos/p1/download", nil)
	Protect(nil)(http.NotFoundHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with nil engine, got %d", rec.Code)
	}
}
