package cache

import (
	"fmt"

	"github.com/catalogsync/indexer/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewRateCache picks the rate cache backend. Redis is used when enabled and
// reachable. Otherwise rates are cached per process, unless cfg.Required
// makes an unusable Redis an error.
func NewRateCache(cfg config.RedisConfig, log *zap.Logger) (RateCache, error) {
	log = log.With(zap.String("cache", "currency_rates"))
	if !cfg.Enabled {
		if cfg.Required {
			return nil, fmt.Errorf("rate cache: redis.required is set but redis.enabled is false")
		}
		log.Debug("redis disabled, caching rates in memory")
		return NewInMemoryRateCache(), nil
	}

	redisCache, err := NewRedisRateCache(cfg.Addr(), cfg.Password, cfg.DB)
	switch {
	case err == nil:
		log.Info("caching rates in redis", zap.String("addr", cfg.Addr()))
		return redisCache, nil
	case cfg.Required:
		return nil, fmt.Errorf("rate cache: redis at %s: %w", cfg.Addr(), err)
	default:
		log.Warn("redis unreachable, caching rates in memory", zap.String("addr", cfg.Addr()), zap.Error(err))
		return NewInMemoryRateCache(), nil
	}
}
