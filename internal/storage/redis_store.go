package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisOpTimeout = 2 * time.Second

// RedisStore implements Store over Redis, letting a session roam across
// shells and hosts sharing the same Redis instance. Keys are namespaced by
// a client-supplied prefix (typically the user's login or machine name).
//
// Like every Store, it is fail-safe: an unreachable backend degrades to
// "no data" instead of surfacing errors.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(addr, password string, db int, prefix string, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: prefix, logger: logger}, nil
}

func (s *RedisStore) key(domain Domain) string {
	return fmt.Sprintf("eshop:%s:%s", s.prefix, domain)
}

func (s *RedisStore) Save(domain Domain, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("failed to serialize value for storage",
			zap.String("domain", string(domain)),
			zap.Error(err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key(domain), data, 0).Err(); err != nil {
		s.logger.Warn("failed to write to redis",
			zap.String("domain", string(domain)),
			zap.Error(err),
		)
	}
}

func (s *RedisStore) Load(domain Domain, out any) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key(domain)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("failed to read from redis",
				zap.String("domain", string(domain)),
				zap.Error(err),
			)
		}
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn("corrupt data in redis, treating as empty",
			zap.String("domain", string(domain)),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (s *RedisStore) Clear(domain Domain) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key(domain)).Err(); err != nil {
		s.logger.Warn("failed to clear redis key",
			zap.String("domain", string(domain)),
			zap.Error(err),
		)
	}
}

// Ping checks whether the Redis backend is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
