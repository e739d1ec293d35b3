package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists snapshots through a native redis connection.
type RedisStore struct {
	rdb       redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(rdb redis.Cmdable, opts ...StoreOption) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	o, err := applyStoreOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RedisStore{rdb: rdb, keyPrefix: o.keyPrefix, ttl: o.ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, conversationID string) (*Snapshot, error) {
	key, err := snapshotKey(s.keyPrefix, conversationID)
	if err != nil {
		return nil, err
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, ErrSnapshotNotFound
	}
	return decodeSnapshot(raw)
}

func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	key, err := snapshotKey(s.keyPrefix, snap.ConversationID)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, conversationID string) error {
	key, err := snapshotKey(s.keyPrefix, conversationID)
	if err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
