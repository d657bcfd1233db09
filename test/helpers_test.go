//go:build integration
// +build integration

package test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	tokengate "github.com/pixelvault/tokengate"
	"github.com/redis/go-redis/v9"
)

const integrationSecret = "integration-test-signing-secret-0123"

func newMiniredisClient(t *testing.T) (redis.UniversalClient, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rdb, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func newIntegrationEngine(t *testing.T, client redis.UniversalClient) *tokengate.Engine {
	t.Helper()

	engine, err := tokengate.New().
		WithSecret([]byte(integrationSecret)).
		WithBaseURL("https://cdn.example.com").
		WithRedis(client).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}
