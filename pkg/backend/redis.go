package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores entries in a Redis server. TTL enforcement and
// eviction are delegated entirely to Redis.
type RedisBackend struct {
	client redis.UniversalClient
}

// RedisConfig holds configuration for the Redis backend
type RedisConfig struct {
	Addr         string        // host:port of the Redis server
	Password     string        // Optional AUTH password
	DB           int           // Logical database number
	DialTimeout  time.Duration // Connection establishment timeout
	ReadTimeout  time.Duration // Per-command read timeout
	WriteTimeout time.Duration // Per-command write timeout
}

// DefaultRedisConfig returns default Redis backend configuration
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
}

// NewRedisBackend creates a new Redis backend
func NewRedisBackend(config *RedisConfig) *RedisBackend {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	return &RedisBackend{client: client}
}

// NewRedisBackendFromClient wraps an existing Redis client. The caller
// retains ownership of the client's lifecycle when constructed this way.
func NewRedisBackendFromClient(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{client: client}
}

// Get retrieves a value from Redis
func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, wrapUnavailable("get", err)
	}
	return val, true, nil
}

// Set stores a value in Redis with a TTL
func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return wrapUnavailable("set", err)
	}
	return nil
}

// Delete removes a value from Redis
func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return wrapUnavailable("del", err)
	}
	return nil
}

// Exists reports whether a key is present in Redis
func (r *RedisBackend) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, wrapUnavailable("exists", err)
	}
	return n > 0, nil
}

// Increment atomically increments the counter stored at key
func (r *RedisBackend) Increment(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, wrapUnavailable("incr", err)
	}
	return n, nil
}

// Expire refreshes the TTL on an existing key
func (r *RedisBackend) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := r.client.PExpire(ctx, key, ttl).Err(); err != nil {
		return wrapUnavailable("pexpire", err)
	}
	return nil
}

// Ping issues a Redis PING
func (r *RedisBackend) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return wrapUnavailable("ping", err)
	}
	return nil
}

// Close closes the underlying Redis client
func (r *RedisBackend) Close() error {
	return r.client.Close()
}

// wrapUnavailable tags transport failures as ErrUnavailable so callers
// can collapse them to a miss without inspecting driver error types.
// Command rejections (wrong type, bad arguments) come back as
// redis.Error and pass through untagged: the server is reachable and
// retrying the same command cannot succeed.
func wrapUnavailable(op string, err error) error {
	var cmdErr redis.Error
	if errors.As(err, &cmdErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
