// internal/admission/sessions/cache.go
package sessions

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"training-admissions/internal/common/database"
	"training-admissions/internal/common/logger"
	"training-admissions/internal/common/metrics"
	"training-admissions/internal/models"
)

// CachedLoader keeps session projections in Redis in front of a Loader.
// Cache failures are logged and fall through to the backing loader.
type CachedLoader struct {
	next   Loader
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedLoader(next Loader, rdb *redis.Client, prefix string, ttl time.Duration, log logger.Logger) *CachedLoader {
	return &CachedLoader{
		next:   next,
		redis:  rdb,
		prefix: prefix,
		ttl:    ttl,
		logger: log,
	}
}

func (c *CachedLoader) key(sessionID string) string {
	return database.Key(c.prefix, "session", sessionID)
}

func (c *CachedLoader) Get(ctx context.Context, sessionID string) (*models.TrainingSessionView, error) {
	cacheKey := c.key(sessionID)
	if val, err := c.redis.Get(ctx, cacheKey).Bytes(); err == nil {
		var v models.TrainingSessionView
		if err := json.Unmarshal(val, &v); err == nil {
			metrics.SessionCacheLookups.WithLabelValues("hit").Inc()
			return &v, nil
		}
		c.logger.Warn("discarding unreadable cached session", map[string]interface{}{
			logger.FieldTrainingSessionID: sessionID,
		})
	} else if !stderrors.Is(err, redis.Nil) {
		c.logger.Warn("session cache read failed", map[string]interface{}{
			logger.FieldTrainingSessionID: sessionID,
			"error":                       err,
		})
	}
	metrics.SessionCacheLookups.WithLabelValues("miss").Inc()

	v, err := c.next.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := c.redis.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
			c.logger.Warn("session cache write failed", map[string]interface{}{
				logger.FieldTrainingSessionID: sessionID,
				"error":                       err,
			})
		}
	}
	return v, nil
}

// Invalidate drops the cached projection, e.g. after capacity changes.
func (c *CachedLoader) Invalidate(ctx context.Context, sessionID string) error {
	return c.redis.Del(ctx, c.key(sessionID)).Err()
}
