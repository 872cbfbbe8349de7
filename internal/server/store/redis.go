package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/secureclip/internal/common"
	rel "github.com/dmitrijs2005/secureclip/internal/relay"
)

// keyPrefix namespaces relay records in a shared Redis instance.
const keyPrefix = "secureclip:"

// RedisStore keeps records in Redis. TTL is native (SET ... EX) and the
// destructive read uses GETDEL, which is atomic server-side, so single
// delivery holds even with multiple relay processes sharing the instance.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *RedisStore) Put(ctx context.Context, code string, rec *Record, ttl time.Duration) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+code, val, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}
	return nil
}

func (s *RedisStore) GetAndDelete(ctx context.Context, code string) (*Record, error) {
	val, err := s.rdb.GetDel(ctx, keyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}

	rec, err := decodeRecord(val)
	if err != nil {
		// GETDEL already destroyed the value, nothing left to clean up.
		return nil, err
	}
	return rec, nil
}

func (s *RedisStore) Peek(ctx context.Context, code string) (*rel.Metadata, error) {
	val, err := s.rdb.Get(ctx, keyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}

	rec, err := decodeRecord(val)
	if err != nil {
		// Corrupted value: destroy it so later consumers see a clean
		// NotFound instead of tripping over it again.
		s.rdb.Del(ctx, keyPrefix+code)
		return nil, err
	}

	meta := rec.Meta
	return &meta, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// decodeRecord parses a stored value, mapping any parse failure or shape
// violation to common.ErrCorruptedRecord.
func decodeRecord(val []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptedRecord, err)
	}
	if rec.Payload == "" || !rec.Meta.Valid() {
		return nil, fmt.Errorf("%w: missing payload or metadata", common.ErrCorruptedRecord)
	}
	return &rec, nil
}
