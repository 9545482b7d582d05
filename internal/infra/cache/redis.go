package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Prefix   string `yaml:"prefix"`
}

// RedisStore keeps entries in Redis so several processes share one cache.
// Values are JSON encoded; reads return json.RawMessage values.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

type redisRecord struct {
	Value    json.RawMessage `json:"value"`
	StoredAt time.Time       `json:"storedAt"`
	TTL      time.Duration   `json:"ttl"`
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(rdb, cfg.Prefix), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "dexagg"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return fmt.Sprintf("%s:cache:%s", s.prefix, k)
}

// Get fetches the record for key. Expiry is enforced by Redis.
func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	data, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get failed: %w", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Entry{}, false, fmt.Errorf("failed to unmarshal cache record: %w", err)
	}

	return Entry{
		Key:      key,
		Value:    rec.Value,
		StoredAt: rec.StoredAt,
		TTL:      rec.TTL,
	}, true, nil
}

// Put replaces the record for entry.Key with a Redis expiry of entry.TTL.
func (s *RedisStore) Put(ctx context.Context, entry Entry) error {
	value, err := json.Marshal(entry.Value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	data, err := json.Marshal(redisRecord{
		Value:    value,
		StoredAt: entry.StoredAt,
		TTL:      entry.TTL,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache record: %w", err)
	}

	if err := s.rdb.Set(ctx, s.key(entry.Key), data, entry.TTL).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
