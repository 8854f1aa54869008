package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// RedisStore keeps each session as a JSON value under session:<id> with a
// TTL, plus an index key session:user:<uid>:show:<sid> holding the id so a
// user reopening the seat screen gets the same session back.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore returns a Redis-backed store.  An empty prefix defaults to
// "session".
func NewRedisStore(rdb *redis.Client, ttl time.Duration, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (r *RedisStore) key(id string) string { return r.prefix + ":" + id }

func (r *RedisStore) pairKey(userID, showID uint64) string {
	return r.prefix + ":user:" + strconv.FormatUint(userID, 10) + ":show:" + strconv.FormatUint(showID, 10)
}

func (r *RedisStore) Get(ctx context.Context, id string) (*model.Selection, error) {
	bs, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: session get: %v", model.ErrStorageFailure, err)
	}
	var s model.Selection
	if err := json.Unmarshal(bs, &s); err != nil {
		return nil, fmt.Errorf("%w: session decode: %v", model.ErrStorageFailure, err)
	}
	return &s, nil
}

func (r *RedisStore) FindByUserShow(ctx context.Context, userID, showID uint64) (*model.Selection, error) {
	id, err := r.rdb.Get(ctx, r.pairKey(userID, showID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: session index get: %v", model.ErrStorageFailure, err)
	}
	return r.Get(ctx, id)
}

func (r *RedisStore) Save(ctx context.Context, s *model.Selection) error {
	bs, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.key(s.ID), bs, r.ttl)
		p.Set(ctx, r.pairKey(s.UserID, s.ShowID), s.ID, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: session save: %v", model.ErrStorageFailure, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pair := r.pairKey(s.UserID, s.ShowID)
	if err := r.rdb.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: session delete: %v", model.ErrStorageFailure, err)
	}
	// Only drop the index if it still points at this session.
	if cur, err := r.rdb.Get(ctx, pair).Result(); err == nil && cur == id {
		_ = r.rdb.Del(ctx, pair).Err()
	}
	return nil
}
