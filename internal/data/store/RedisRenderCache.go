package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/data/redisStore"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/pkg/logger_i"
)

type RedisRenderCache struct {
	store  *redisStore.Store
	ttl    time.Duration
	logger *logger_i.Logger
}

// GetRenderCache returns a Redis backed cache, or the in-memory one when Redis
// is disabled or unreachable.
func GetRenderCache(ctx context.Context, cfg config.RedisConfig) extractionModel.RenderCache {
	if cfg.Enabled {
		if s := redisStore.GetRedisStore(ctx, cfg); s != nil {
			return &RedisRenderCache{
				store:  s,
				ttl:    cfg.TTL.Duration,
				logger: logger_i.NewLogger("RenderCache"),
			}
		}
	}
	logger_i.NewLogger("RenderCache").Info("using in-memory render cache")
	return InitInMemoryRenderCache()
}

func (s *RedisRenderCache) Put(ctx context.Context, key string, result extractionModel.RenderResult) error {
	log := logger_i.FromContext(ctx, "RenderCache").With("key", key)
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	err = s.store.Set(ctx, config.RedisKeyPrefix+key, data, s.ttl)
	if err == nil {
		log.Debug("render cached in Redis")
	}
	return err
}

func (s *RedisRenderCache) Get(ctx context.Context, key string) (extractionModel.RenderResult, bool, error) {
	var result extractionModel.RenderResult
	val, err := s.store.Get(ctx, config.RedisKeyPrefix+key)
	if s.store.IsNil(err) {
		return result, false, nil
	} else if err != nil {
		return result, false, err
	}

	if err = json.Unmarshal([]byte(val), &result); err != nil {
		s.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
		_ = s.store.Del(ctx, config.RedisKeyPrefix+key)
		return result, false, nil
	}
	return result, true, nil
}

func TestRenderCache(store *redisStore.Store, ttl time.Duration) *RedisRenderCache {
	return &RedisRenderCache{
		store:  store,
		ttl:    ttl,
		logger: logger_i.NewLogger("test redis"),
	}
}
