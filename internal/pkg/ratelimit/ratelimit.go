// Package ratelimit counts attempts per key in fixed redis windows.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one counted attempt.
type Decision struct {
	Allowed   bool
	Count     int64
	Remaining int64
	RetryIn   time.Duration
}

// Limiter counts attempts for a key.
type Limiter interface {
	// Allow counts one attempt and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (Decision, error)
	// Reset clears the counter for key.
	Reset(ctx context.Context, key string) error
}

// FixedWindow allows Limit attempts per key within Window. The window starts
// at the first attempt and is not extended by later ones.
type FixedWindow struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewFixedWindow builds a limiter. A non-positive limit disables limiting.
func NewFixedWindow(client *redis.Client, prefix string, limit int64, window time.Duration) *FixedWindow {
	return &FixedWindow{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow increments the counter and sets the expiry on the first hit.
func (l *FixedWindow) Allow(ctx context.Context, key string) (Decision, error) {
	if l.limit <= 0 {
		return Decision{Allowed: true}, nil
	}

	fk := l.prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fk)
		ttl = pipe.PTTL(ctx, fk)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	count := incr.Val()
	retryIn := ttl.Val()
	if retryIn < 0 {
		// first hit, or a key that lost its expiry
		if err := l.client.PExpire(ctx, fk, l.window).Err(); err != nil {
			return Decision{}, err
		}
		retryIn = l.window
	}

	return Decision{
		Allowed:   count <= l.limit,
		Count:     count,
		Remaining: max(l.limit-count, 0),
		RetryIn:   retryIn,
	}, nil
}

// Reset deletes the counter.
func (l *FixedWindow) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
