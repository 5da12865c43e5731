package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/gymcache/codec"
)

// DefaultRedisKey is the key used when RedisConfig.Key is empty.
const DefaultRedisKey = "gymcache:session"

// RedisConfig configures RedisStorage.
type RedisConfig struct {
	Client redis.UniversalClient
	Key    string
	Codec  codec.Codec[Session]

	// TTL expires the stored session; zero keeps it until cleared.
	TTL time.Duration

	// CloseClient is set only when the storage exclusively owns Client.
	CloseClient bool
}

// RedisStorage keeps the session under one redis key, which lets several
// dashboard processes on one machine share a login.
type RedisStorage struct {
	rdb         redis.UniversalClient
	key         string
	codec       codec.Codec[Session]
	ttl         time.Duration
	closeClient bool
}

// ErrNilClient is returned by NewRedisStorage without a client.
var ErrNilClient = errors.New("auth: redis client is nil")

// NewRedisStorage creates a RedisStorage.
func NewRedisStorage(cfg RedisConfig) (*RedisStorage, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.Key == "" {
		cfg.Key = DefaultRedisKey
	}
	return &RedisStorage{
		rdb:         cfg.Client,
		key:         cfg.Key,
		codec:       sessionCodec(cfg.Codec),
		ttl:         cfg.TTL,
		closeClient: cfg.CloseClient,
	}, nil
}

func (r *RedisStorage) Load(ctx context.Context) (Session, error) {
	b, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("auth: redis get: %w", err)
	}
	s, err := r.codec.Decode(b)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return s, nil
}

func (r *RedisStorage) Save(ctx context.Context, s Session) error {
	b, err := r.codec.Encode(s)
	if err != nil {
		return fmt.Errorf("auth: encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("auth: redis set: %w", err)
	}
	return nil
}

func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("auth: redis del: %w", err)
	}
	return nil
}

// Ping checks connectivity; health checks call it.
func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the client when the storage owns it.
func (r *RedisStorage) Close() error {
	if !r.closeClient {
		return nil
	}
	if err := r.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
