package tokengate

import (
	"context"
	"testing"
	"time"
)

func newBenchEngine(b *testing.B) *Engine {
	b.Helper()

	engine, err := New().
		WithSecret([]byte(testSecret)).
		WithBaseURL("https://cdn.example.com").
		Build()
	if err != nil {
		b.Fatalf("Build failed: %v", err)
	}
	b.Cleanup(engine.Close)

	return engine
}

func BenchmarkIssue(b *testing.B) {
	engine := newBenchEngine(b)
	ctx := context.Background()
	opts := IssueOptions{ExpiresIn: time.Hour, UserID: "bench"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Issue(ctx, "https://cdn.example.com/photos/p1/download", opts); err != nil {
			b.Fatalf("Issue failed: %v", err)
		}
	}
}

func BenchmarkValidate(b *testing.B) {
	engine := newBenchEngine(b)
	ctx := context.Background()

	issued, err := engine.Issue(ctx, "https://cdn.example.com/photos/p1/download", IssueOptions{ExpiresIn: time.Hour})
	if err != nil {
		b.Fatalf("Issue failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if result := engine.Validate(ctx, issued.Token); !result.Valid {
			b.Fatalf("unexpected deny: %s", result.Reason)
		}
	}
}

func BenchmarkValidateParallel(b *testing.B) {
	engine := newBenchEngine(b)
	ctx := context.Background()

	issued, err := engine.Issue(ctx, "https://cdn.example.com/photos/p1/download", IssueOptions{ExpiresIn: time.Hour})
	if err != nil {
		b.Fatalf("Issue failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if result := engine.Validate(ctx, issued.Token); !result.Valid {
				b.Fatalf("unexpected deny: %s", result.Reason)
			}
		}
	})
}

func BenchmarkRecordDownloadUnlimited(b *testing.B) {
	engine := newBenchEngine(b)
	ctx := context.Background()

	issued, err := engine.Issue(ctx, "https://cdn.example.com/photos/p1/download", IssueOptions{ExpiresIn: time.Hour})
	if err != nil {
		b.Fatalf("Issue failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.RecordDownload(ctx, issued.JTI); err != nil {
			b.Fatalf("RecordDownload failed: %v", err)
		}
	}
}
