package test

import (
	"context"
	"time"

	tokengate "github.com/pixelvault/tokengate"
	"github.com/redis/go-redis/v9"
)

// ExampleNew demonstrates engine construction with production-style dependencies.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	secret := loadSecretFromEnvironment()

	engine, _ := tokengate.New().
		WithSecret(secret).
		WithBaseURL("https://cdn.example.com").
		WithRedis(rdb).
		Build()
	_ = engine
}

// ExampleEngine_Issue shows a typical token issuance call and structured error handling.
func ExampleEngine_Issue() {
	var engine *tokengate.Engine
	issued, err := engine.Issue(context.Background(), "https://cdn.example.com/photos/p1/download", tokengate.IssueOptions{
		ExpiresIn:    time.Hour,
		Permissions:  []string{"read"},
		UserID:       "u1",
		MaxDownloads: 3,
	})
	if err != nil {
		_ = err
	}
	_ = issued
}

// ExampleEngine_MetricsSnapshot shows how to read in-process metrics counters.
func ExampleEngine_MetricsSnapshot() {
	var engine *tokengate.Engine
	snapshot := engine.MetricsSnapshot()
	_ = snapshot
}

// loadSecretFromEnvironment stands in for however a deployment sources its
// signing secret. The library never ships one.
func loadSecretFromEnvironment() []byte {
	return []byte("replace-with-a-real-secret-from-your-environment")
}
