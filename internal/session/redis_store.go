package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore keeps sessions in Redis under one JSON blob per requester.
// The TTL doubles as the abandonment cutoff for half-finished flows.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	return &redisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(requester string) string { return fmt.Sprintf("chat:sess:%s", requester) }

func (s *redisStore) Get(ctx context.Context, requester string) (*Session, error) {
	b, err := s.rdb.Get(ctx, sessionKey(requester)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *redisStore) Set(ctx context.Context, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(sess.Requester), b, s.ttl).Err()
}

func (s *redisStore) Clear(ctx context.Context, requester string) error {
	return s.rdb.Del(ctx, sessionKey(requester)).Err()
}
