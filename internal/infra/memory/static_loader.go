package memory

import (
	"context"
	"fmt"

	"property-evaluation-service/internal/domain"
)

// StaticPropertyTypeLoader serves a fixed set of trees, used when no database is configured.
type StaticPropertyTypeLoader struct {
	types map[string]domain.PropertyType
}

func NewStaticPropertyTypeLoader(types map[string]domain.PropertyType) *StaticPropertyTypeLoader {
	return &StaticPropertyTypeLoader{types: types}
}

func (l *StaticPropertyTypeLoader) LoadPropertyType(_ context.Context, propertyTypeID string) (domain.PropertyType, error) {
	if pt, ok := l.types[propertyTypeID]; ok {
		return pt, nil
	}
	return domain.PropertyType{}, fmt.Errorf("property type %q: %w", propertyTypeID, domain.ErrPropertyTypeNotFound)
}
