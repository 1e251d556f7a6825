package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/envutil"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

type Config struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		Addr:        envutil.String("REDIS_ADDR", ""),
		Password:    envutil.String("REDIS_PASSWORD", ""),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: envutil.Duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
	}
}

// KVStore is the TTL-bearing key-value backend.
type KVStore struct {
	log *logger.Logger
	rdb *goredis.Client
}

// NewKVStore dials and pings before returning.
func NewKVStore(log *logger.Logger, cfg Config) (*KVStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &KVStore{log: log.With("service", "RedisKVStore"), rdb: rdb}, nil
}

// NewKVStoreFromClient wraps an existing client without pinging.
func NewKVStoreFromClient(log *logger.Logger, rdb *goredis.Client) *KVStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &KVStore{log: log.With("service", "RedisKVStore"), rdb: rdb}
}

// Get reports found=false for a missing key rather than an error.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

// Set stores value; ttl <= 0 means no expiry.
func (s *KVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// IncrWindow increments key and starts its expiry on the first hit. It returns
// the count and the time left in the window.
func (s *KVStore) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	if n == 1 && window > 0 {
		if err := s.rdb.Expire(ctx, key, window).Err(); err != nil {
			return n, 0, fmt.Errorf("redis expire %s: %w", key, err)
		}
		return n, window, nil
	}
	ttl, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return n, 0, fmt.Errorf("redis ttl %s: %w", key, err)
	}
	if ttl < 0 && window > 0 {
		// A counter without expiry would never reset.
		_ = s.rdb.Expire(ctx, key, window).Err()
		ttl = window
	}
	return n, ttl, nil
}

// PushCapped appends value to the list at key, keeps only the newest max
// entries and refreshes the ttl, all in one transaction.
func (s *KVStore) PushCapped(ctx context.Context, key string, value []byte, max int, ttl time.Duration) error {
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.RPush(ctx, key, value)
		if max > 0 {
			p.LTrim(ctx, key, int64(-max), -1)
		}
		if ttl > 0 {
			p.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis push %s: %w", key, err)
	}
	return nil
}

// Range returns the list at key, oldest first.
func (s *KVStore) Range(ctx context.Context, key string) ([][]byte, error) {
	vals, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", key, err)
	}
	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		out = append(out, []byte(v))
	}
	return out, nil
}

func (s *KVStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.rdb.TTL(ctx, key).Result()
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *KVStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
