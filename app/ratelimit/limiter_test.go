package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestLimiterBlocksOn10SecondWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(NewRedisStore(client), "create-pix", 100, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		retryAfter, allowed, err := limiter.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("allow #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("allow #3: %v", err)
	}
	if allowed {
		t.Fatal("expected third request in 10s window to be blocked")
	}
	if retryAfter <= 0 || retryAfter > 10 {
		t.Fatalf("expected retry_after within window, got %d", retryAfter)
	}

	if _, allowed, _ := limiter.Allow(ctx, "10.0.0.2"); !allowed {
		t.Fatal("expected a different client to be allowed")
	}

	mr.FastForward(11 * time.Second)

	retryAfter, allowed, err = limiter.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterBlocksOnMinuteWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(NewRedisStore(client), "create-pix", 3, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, allowed, err := limiter.Allow(ctx, "10.0.0.9"); err != nil || !allowed {
			t.Fatalf("allow #%d: allowed=%v err=%v", i+1, allowed, err)
		}
	}

	retryAfter, allowed, err := limiter.Allow(ctx, "10.0.0.9")
	if err != nil {
		t.Fatalf("allow #4: %v", err)
	}
	if allowed || retryAfter <= 10 {
		t.Fatalf("expected minute window block, got allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterRejectsEmptyKey(t *testing.T) {
	limiter := NewLimiter(nil, "create-pix", 1, 1)
	if _, _, err := limiter.Allow(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty client key")
	}
}
