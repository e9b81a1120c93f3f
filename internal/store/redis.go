package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/hweber/particletrack/internal/domain"
)

// RedisConfig holds connection settings for the redis-backed list store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisStore keeps the prediction list in a single redis list key. LPUSH of
// one JSON document per record gives the append-at-head ordering and
// per-record atomicity the gateway contract requires.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a redis-backed gateway.
func NewRedisStore(cfg *RedisConfig) *RedisStore {
	key := cfg.Key
	if key == "" {
		key = "predictions"
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		key: key,
	}
}

// Ping verifies the connection. Called at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Append(ctx context.Context, rec *domain.PredictionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.client.LPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("%w: lpush: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) ListAll(ctx context.Context) ([]domain.PredictionRecord, error) {
	vals, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: lrange: %v", domain.ErrStoreUnavailable, err)
	}

	records := make([]domain.PredictionRecord, 0, len(vals))
	for _, v := range vals {
		var rec domain.PredictionRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("%w: corrupt record in list: %v", domain.ErrStoreUnavailable, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RedisStore) ClearAll(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: llen: %v", domain.ErrStoreUnavailable, err)
	}
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return 0, fmt.Errorf("%w: del: %v", domain.ErrStoreUnavailable, err)
	}
	return n, nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
