package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"property-evaluation-service/internal/domain"
)

// PropertyTypeLoader fetches question trees from a backing store (e.g., Postgres).
type PropertyTypeLoader interface {
	LoadPropertyType(ctx context.Context, propertyTypeID string) (domain.PropertyType, error)
}

// PropertyTypeRepository caches question trees in Redis as JSON and falls back to a loader on cache miss.
// Trees are stored as: SET property-type:{id} {json} EX ttl
type PropertyTypeRepository struct {
	client *redis.Client
	loader PropertyTypeLoader
	ttl    time.Duration
	logger *zap.Logger
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewPropertyTypeRepository(client *redis.Client, loader PropertyTypeLoader, ttl time.Duration, logger *zap.Logger) *PropertyTypeRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyTypeRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *PropertyTypeRepository) GetPropertyType(ctx context.Context, propertyTypeID string) (domain.PropertyType, error) {
	if pt, ok := r.cached(ctx, propertyTypeID); ok {
		return pt, nil
	}

	result, err, _ := r.sf.Do(propertyTypeID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pt, ok := r.cached(ctx, propertyTypeID); ok {
			return pt, nil
		}

		pt, err := r.loader.LoadPropertyType(ctx, propertyTypeID)
		if err != nil {
			return domain.PropertyType{}, err
		}

		data, err := json.Marshal(pt)
		if err != nil {
			return domain.PropertyType{}, err
		}
		if err := r.client.Set(ctx, r.key(propertyTypeID), data, r.ttlWithJitter()).Err(); err != nil {
			r.logger.Warn("cache property type", zap.String("propertyTypeId", propertyTypeID), zap.Error(err))
		}
		return pt, nil
	})
	if err != nil {
		return domain.PropertyType{}, err
	}
	return result.(domain.PropertyType), nil
}

func (r *PropertyTypeRepository) cached(ctx context.Context, propertyTypeID string) (domain.PropertyType, bool) {
	raw, err := r.client.Get(ctx, r.key(propertyTypeID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("read cached property type", zap.String("propertyTypeId", propertyTypeID), zap.Error(err))
		}
		return domain.PropertyType{}, false
	}
	var pt domain.PropertyType
	if err := json.Unmarshal(raw, &pt); err != nil {
		return domain.PropertyType{}, false
	}
	return pt, true
}

func (r *PropertyTypeRepository) key(propertyTypeID string) string {
	return "property-type:" + propertyTypeID
}

func (r *PropertyTypeRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
