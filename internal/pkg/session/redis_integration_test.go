package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisContainerStore(t *testing.T) *RedisStore {
	t.Helper()

	if testing.Short() {
		t.Skip("redis integration test skipped in -short mode")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisStore(rdb)
}

func TestRedisStore_Integration_TakeOnce(t *testing.T) {
	store := newRedisContainerStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "jti-1", "alice", time.Minute); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(ctx, "jti-1", "mallory", time.Minute); err == nil {
		t.Fatal("Save() overwrote an existing id")
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		found int
	)
	for range 8 {
		wg.Go(func() {
			username, ok, err := store.Take(ctx, "jti-1")
			if err != nil || !ok {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if username == "alice" {
				found++
			}
		})
	}
	wg.Wait()

	if found != 1 {
		t.Fatalf("entry taken %d times, want 1", found)
	}
}
