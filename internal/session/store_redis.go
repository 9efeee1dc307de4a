package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "bookshelf:session:"

// RedisStore keeps each session as a JSON string under prefix+id, plus a set
// prefix+"user:"+userID listing the ids of that user.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	p := strings.TrimSpace(prefix)
	if p == "" {
		p = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: p}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + "user:" + userID
}

// SessionPattern matches session keys only, for SCAN based counting.
func (s *RedisStore) SessionPattern() string {
	return s.prefix + idPrefix + "*"
}

func (s *RedisStore) Set(ctx context.Context, id string, sess Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(id), payload, ttl)
		if sess.UserID != "" {
			pipe.SAdd(ctx, s.userKey(sess.UserID), id)
			if ttl > 0 {
				// The index lives as long as its longest lived member.
				pipe.ExpireNX(ctx, s.userKey(sess.UserID), ttl)
				pipe.ExpireGT(ctx, s.userKey(sess.UserID), ttl)
			}
		}
		return nil
	})
	return err
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return nil, err
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = s.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	var sess Session
	if len(val) > 0 && json.Unmarshal(val, &sess) == nil && sess.UserID != "" {
		_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, s.key(id))
			pipe.SRem(ctx, s.userKey(sess.UserID), id)
			return nil
		})
		return err
	}
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *RedisStore) DeleteByUser(ctx context.Context, userID string) (int, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, err
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}

	var deleted *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			deleted = pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, s.userKey(userID))
		return nil
	})
	if err != nil {
		return 0, err
	}
	if deleted == nil {
		return 0, nil
	}
	return int(deleted.Val()), nil
}
