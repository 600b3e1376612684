package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "recovery:handoff:"

// RedisStore keeps the ledger in redis with per-key expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore returns a ledger using the default key prefix.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: defaultPrefix}
}

// Save stores the entry with SET NX so an ID can never be overwritten.
func (s *RedisStore) Save(ctx context.Context, id, username string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, s.prefix+id, username, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("session: duplicate handoff id")
	}

	return nil
}

// Take removes the entry with GETDEL; concurrent callers see it at most once.
func (s *RedisStore) Take(ctx context.Context, id string) (string, bool, error) {
	username, err := s.client.GetDel(ctx, s.prefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return username, true, nil
}
