package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"property-evaluation-service/internal/domain"
)

// PropertyTypeLoader fetches question trees from a backing store (e.g., Postgres).
type PropertyTypeLoader interface {
	LoadPropertyType(ctx context.Context, propertyTypeID string) (domain.PropertyType, error)
}

// PropertyTypeRepository keeps question trees in process memory and falls back to a loader when
// an entry is missing or expired. Concurrent misses for one tree share a single load.
// A non-positive ttl disables caching.
type PropertyTypeRepository struct {
	loader PropertyTypeLoader
	ttl    time.Duration
	clock  func() time.Time
	logger *zap.Logger
	sf     singleflight.Group

	mu      sync.Mutex
	entries map[string]propertyTypeEntry
	rnd     *rand.Rand
}

type propertyTypeEntry struct {
	propertyType domain.PropertyType
	expiresAt    time.Time
}

func NewPropertyTypeRepository(loader PropertyTypeLoader, ttl time.Duration, logger *zap.Logger) *PropertyTypeRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyTypeRepository{
		loader:  loader,
		ttl:     ttl,
		clock:   time.Now,
		logger:  logger,
		entries: make(map[string]propertyTypeEntry),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *PropertyTypeRepository) GetPropertyType(ctx context.Context, propertyTypeID string) (domain.PropertyType, error) {
	if pt, ok := r.cached(propertyTypeID); ok {
		return pt, nil
	}
	result, err, _ := r.sf.Do(propertyTypeID, func() (interface{}, error) {
		return r.load(ctx, propertyTypeID)
	})
	if err != nil {
		return domain.PropertyType{}, err
	}
	return result.(domain.PropertyType), nil
}

func (r *PropertyTypeRepository) load(ctx context.Context, propertyTypeID string) (domain.PropertyType, error) {
	// Another caller may have filled the entry while this one waited.
	if pt, ok := r.cached(propertyTypeID); ok {
		return pt, nil
	}
	pt, err := r.loader.LoadPropertyType(ctx, propertyTypeID)
	if err != nil {
		return domain.PropertyType{}, err
	}
	r.store(propertyTypeID, pt)
	r.logger.Debug("property type loaded", zap.String("propertyTypeId", propertyTypeID), zap.Int("questions", pt.QuestionCount()))
	return pt, nil
}

func (r *PropertyTypeRepository) cached(propertyTypeID string) (domain.PropertyType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[propertyTypeID]
	if !ok {
		return domain.PropertyType{}, false
	}
	if !entry.expiresAt.After(r.clock()) {
		delete(r.entries, propertyTypeID)
		return domain.PropertyType{}, false
	}
	return entry.propertyType, true
}

func (r *PropertyTypeRepository) store(propertyTypeID string, pt domain.PropertyType) {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// up to 10% jitter spreads reloads of trees cached together
	jitter := time.Duration(r.rnd.Int63n(int64(r.ttl)/10 + 1))
	r.entries[propertyTypeID] = propertyTypeEntry{
		propertyType: pt,
		expiresAt:    r.clock().Add(r.ttl + jitter),
	}
}

// Len returns the number of cached trees, expired ones included.
func (r *PropertyTypeRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
