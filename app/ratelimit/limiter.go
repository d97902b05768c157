package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	minuteWindow = time.Minute
	tenSecWindow = 10 * time.Second
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter enforces two fixed windows per client key: one per minute and one per ten seconds.
// A zero quota disables that window.
type Limiter struct {
	store     WindowStore
	scope     string
	perMinute int
	per10Sec  int
}

func NewLimiter(store WindowStore, scope string, perMinute, per10Sec int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}
	if per10Sec < 0 {
		per10Sec = 0
	}

	return &Limiter{
		store:     store,
		scope:     strings.TrimSpace(scope),
		perMinute: perMinute,
		per10Sec:  per10Sec,
	}
}

// Allow counts one hit for clientKey. When blocked it returns the seconds until the tightest window resets.
func (l *Limiter) Allow(ctx context.Context, clientKey string) (int64, bool, error) {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		return 0, false, fmt.Errorf("client key is required")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)

	if l.perMinute > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, l.key("min", clientKey), minuteWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.perMinute) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if l.per10Sec > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, l.key("10s", clientKey), tenSecWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.per10Sec) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}
	return 0, true, nil
}

func (l *Limiter) key(window, clientKey string) string {
	return "rate:" + l.scope + ":" + window + ":" + clientKey
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 1
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
