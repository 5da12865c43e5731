package dashboard

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/gymcache/auth"
	"github.com/jonwraymond/gymcache/codec"
	"github.com/jonwraymond/gymcache/config"
)

// openStorage builds the configured session storage. closer is nil when
// nothing needs closing.
func openStorage(cfg config.SessionConfig) (s auth.Storage, closer func() error, err error) {
	switch cfg.Backend {
	case "memory":
		return auth.NewMemoryStorage(), nil, nil
	}

	c, err := codec.ByName[auth.Session](cfg.Codec)
	if err != nil {
		return nil, nil, fmt.Errorf("dashboard: session codec: %w", err)
	}

	switch cfg.Backend {
	case "file":
		return auth.NewFileStorage(cfg.Path, c), nil, nil
	case "redis":
		rs, err := auth.NewRedisStorage(auth.RedisConfig{
			Client: redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			}),
			Key:         cfg.Redis.Key,
			Codec:       c,
			TTL:         cfg.Redis.TTL,
			CloseClient: true,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, rs.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.Backend)
}
