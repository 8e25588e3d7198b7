package locker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultLockTTL       = 30 * time.Second
	defaultRetryInterval = 50 * time.Millisecond
	defaultKeyPrefix     = "lock:"
)

// releaseScript deletes the lock only when it is still held by the caller.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process using the same Redis database.
// The lock expires after its TTL so a crashed holder cannot block others
// forever. While Redis cannot be reached, locking degrades to an in-process
// Local lock on the same key.
type Redis struct {
	rdb           redis.UniversalClient
	ttl           time.Duration
	retryInterval time.Duration
	prefix        string
	logger        zerolog.Logger
	fallback      *Local
}

var _ Locker = (*Redis)(nil)

type RedisOption func(*Redis)

func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

func WithRetryInterval(interval time.Duration) RedisOption {
	return func(r *Redis) {
		r.retryInterval = interval
	}
}

func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

func WithLogger(logger zerolog.Logger) RedisOption {
	return func(r *Redis) {
		r.logger = logger
	}
}

func NewRedis(rdb redis.UniversalClient, options ...RedisOption) *Redis {
	r := &Redis{
		rdb:           rdb,
		ttl:           defaultLockTTL,
		retryInterval: defaultRetryInterval,
		prefix:        defaultKeyPrefix,
		logger:        log.Logger,
		fallback:      NewLocal(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *Redis) WithLock(ctx context.Context, key string, fn func() error) error {
	lockKey := r.prefix + key
	owner := uuid.NewString()

	if err := r.acquire(ctx, lockKey, owner); err != nil {
		if ctx.Err() != nil {
			return err
		}
		r.logger.Warn().Err(err).Str("lock", lockKey).Msg("redis lock unavailable, using in-process lock")
		return r.fallback.WithLock(ctx, key, fn)
	}
	defer r.release(ctx, lockKey, owner)

	return fn()
}

func (r *Redis) acquire(ctx context.Context, lockKey, owner string) error {
	for {
		ok, err := r.rdb.SetNX(ctx, lockKey, owner, r.ttl).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
		}
		if ok {
			return nil
		}

		r.logger.Debug().Str("lock", lockKey).Msg("lock busy, retrying")
		timer := time.NewTimer(r.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *Redis) release(ctx context.Context, lockKey, owner string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := releaseScript.Run(releaseCtx, r.rdb, []string{lockKey}, owner).Err(); err != nil && err != redis.Nil {
		r.logger.Error().Err(err).Str("lock", lockKey).Msg("failed to release lock")
	}
}

// RedisConfig holds the connection settings used by DialRedis.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

// DialRedis connects to Redis and verifies the connection with a ping.
func DialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		cfg.Address = "localhost:6379"
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}
