package redisstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/phrazzld/taskman-api/internal/config"
	"github.com/phrazzld/taskman-api/internal/redact"
	"github.com/phrazzld/taskman-api/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultKeyPrefix        = "taskman:revoked:"
	defaultFailureThreshold = 5
	defaultBreakerTimeout   = 30 * time.Second
	indexKeySuffix          = "index"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("revocation store unavailable")

// RevocationStore implements store.RevocationStore on Redis.
type RevocationStore struct {
	rdb     *redis.Client
	prefix  string
	breaker *gobreaker.CircuitBreaker[bool]
	logger  *slog.Logger
	now     func() time.Time
}

// NewClient creates a Redis client for cfg.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRevocationStore creates a RevocationStore on rdb. If logger is nil, the
// default logger is used.
func NewRevocationStore(rdb *redis.Client, cfg config.RedisConfig, logger *slog.Logger) *RevocationStore {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "redis_revocation_store"))

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = defaultFailureThreshold
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = defaultBreakerTimeout
	}

	breaker := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        "redis-revocation",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &RevocationStore{
		rdb:     rdb,
		prefix:  prefix,
		breaker: breaker,
		logger:  logger,
		now:     time.Now,
	}
}

var _ store.RevocationStore = (*RevocationStore)(nil)

// key derives the Redis key for token. Tokens are hashed so that credentials
// are never stored or logged verbatim.
func (s *RevocationStore) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + hex.EncodeToString(sum[:])
}

func (s *RevocationStore) indexKey() string {
	return s.prefix + indexKeySuffix
}

// Revoke implements store.RevocationStore.Revoke. The key lives until
// expiresAt; revoking again can only extend it.
func (s *RevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	key := s.key(token)

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, "1", ttl)
		pipe.ExpireGT(ctx, key, ttl)
		pipe.ZAddGT(ctx, s.indexKey(), redis.Z{
			Score:  float64(expiresAt.UnixMilli()),
			Member: key,
		})
		return nil
	})
	if err != nil {
		s.logger.Error("failed to revoke token", slog.String("error", redact.Error(err)))
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked implements store.RevocationStore.IsRevoked. While the breaker is
// open it returns ErrUnavailable without contacting Redis.
func (s *RevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	revoked, err := s.breaker.Execute(func() (bool, error) {
		n, err := s.rdb.Exists(ctx, s.key(token)).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		s.logger.Error("failed to check token revocation", slog.String("error", redact.Error(err)))
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return revoked, nil
}

// PurgeExpired implements store.RevocationStore.PurgeExpired. Keys expire in
// Redis on their own; this deletes any that remain and trims the index.
func (s *RevocationStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	upper := strconv.FormatInt(now.UnixMilli(), 10)
	keys, err := s.rdb.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{Min: "-inf", Max: upper}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read revocation index: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Unlink(ctx, keys...)
		pipe.ZRemRangeByScore(ctx, s.indexKey(), "-inf", upper)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to purge revoked tokens", slog.String("error", redact.Error(err)))
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", err)
	}
	return int64(len(keys)), nil
}
