package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tubegrab/tubegrab/internal/types"
)

// redisKey is the single slot holding the serialized entry list, the same
// shape the web client keeps in local storage.
const redisKey = "tubegrab:history"

// RedisStore persists history across restarts. Writes are read-modify-write
// on one key; the store assumes the single-writer usage the service gives it.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, logger: logger}
}

func (s *RedisStore) Add(ctx context.Context, entry types.HistoryEntry) error {
	entries, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.save(ctx, prepend(entries, entry))
}

func (s *RedisStore) Remove(ctx context.Context, id string) error {
	entries, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return s.save(ctx, kept)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]types.HistoryEntry, error) {
	return s.load(ctx)
}

func (s *RedisStore) load(ctx context.Context) ([]types.HistoryEntry, error) {
	raw, err := s.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	entries, err := decodeEntries(raw)
	if err != nil {
		// a corrupt slot is dropped rather than wedging every operation
		s.logger.Warn("discarding corrupt history blob", zap.Error(err))
		return nil, nil
	}
	return entries, nil
}

func (s *RedisStore) save(ctx context.Context, entries []types.HistoryEntry) error {
	raw, err := encodeEntries(entries)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func encodeEntries(entries []types.HistoryEntry) ([]byte, error) {
	raw, err := sonic.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return raw, nil
}

func decodeEntries(raw []byte) ([]types.HistoryEntry, error) {
	var entries []types.HistoryEntry
	if err := sonic.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}
