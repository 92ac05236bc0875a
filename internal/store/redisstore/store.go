package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps the redis client for the gateway's per-user send limiter.
type Store struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func New(addr, password string, db, limit int, window time.Duration) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		limit:  limit,
		window: window,
	}
}

// AllowMessage counts a send against the user's window and reports whether
// it is within the limit. Redis errors are returned so the caller can fail
// open.
func (s *Store) AllowMessage(ctx context.Context, userID uint64) (bool, error) {
	key := fmt.Sprintf("ratelimit:msg:%d", userID)

	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if n == 1 {
		if err := s.rdb.Expire(ctx, key, s.window).Err(); err != nil {
			return true, err
		}
	}
	return n <= int64(s.limit), nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
