package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/core"
)

// RedisConfig configures Redis access for history persistence.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore persists the address IP history as one Redis set per sender,
// keyed "<prefix>:<address>".
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisStore constructs a Redis-backed history store.
func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "queue_guard:address_ips"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis state store: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: strings.TrimSpace(cfg.KeyPrefix),
		logger: logger,
	}, nil
}

func (s *RedisStore) key(address string) string {
	return s.prefix + ":" + address
}

// Load scans every history key and reads its member set.
func (s *RedisStore) Load(ctx context.Context) (core.IPHistory, error) {
	history := core.IPHistory{}

	iter := s.client.Scan(ctx, 0, s.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		address := strings.TrimPrefix(key, s.prefix+":")

		ips, err := s.client.SMembers(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("read history set %s: %w", key, err)
		}
		for _, ip := range ips {
			history.Add(address, ip)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan history keys: %w", err)
	}
	return history, nil
}

// Save adds every recorded IP to its sender's set. SADD is idempotent, so
// re-saving known pairs is harmless and history only grows.
func (s *RedisStore) Save(ctx context.Context, history core.IPHistory) error {
	if len(history) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for address, ips := range history {
		if len(ips) == 0 {
			continue
		}
		members := make([]interface{}, len(ips))
		for i, ip := range ips {
			members[i] = ip
		}
		pipe.SAdd(ctx, s.key(address), members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write history sets: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
