package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldToken = "adminToken"
	fieldUser  = "adminUser"
)

// RedisStore keeps the record in a hash with one field per key. Both fields are
// written in a single MULTI so the hash is never half populated.
type RedisStore struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisStore returns the store for the browser session sid.
func NewRedisStore(client redis.Cmdable, sid string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, key: RedisKey(sid), ttl: ttl}
}

// RedisKey is the hash key holding the record for sid.
func RedisKey(sid string) string {
	return "admin:session:" + sid
}

func (s *RedisStore) Load(ctx context.Context) (*Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	token, user := fields[fieldToken], fields[fieldUser]
	if token == "" || user == "" {
		// A lone field can only come from outside writers; drop it.
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	rec := Record{Token: token}
	if err := json.Unmarshal([]byte(user), &rec.User); err != nil {
		return nil, fmt.Errorf("decode session user: %w", err)
	}
	if !rec.Complete() {
		return nil, nil
	}
	return &rec, nil
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	user, err := json.Marshal(rec.User)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key, fieldToken, rec.Token, fieldUser, string(user))
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
