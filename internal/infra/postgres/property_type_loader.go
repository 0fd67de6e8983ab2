package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"property-evaluation-service/internal/domain"
)

// PropertyTypeLoader loads question trees stored as JSONB in Postgres.
type PropertyTypeLoader struct {
	pool *pgxpool.Pool
}

func NewPropertyTypeLoader(pool *pgxpool.Pool) *PropertyTypeLoader {
	return &PropertyTypeLoader{pool: pool}
}

func (l *PropertyTypeLoader) LoadPropertyType(ctx context.Context, propertyTypeID string) (domain.PropertyType, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM property_types WHERE id=$1`, propertyTypeID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PropertyType{}, fmt.Errorf("load property type %q: %w", propertyTypeID, domain.ErrPropertyTypeNotFound)
	}
	if err != nil {
		return domain.PropertyType{}, fmt.Errorf("load property type: %w", err)
	}
	var pt domain.PropertyType
	if err := json.Unmarshal(raw, &pt); err != nil {
		return domain.PropertyType{}, fmt.Errorf("unmarshal property type: %w", err)
	}
	return pt, nil
}

// UpsertPropertyType stores pt under its ID, replacing any previous tree.
func (l *PropertyTypeLoader) UpsertPropertyType(ctx context.Context, pt domain.PropertyType) error {
	data, err := json.Marshal(pt)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO property_types (id, name, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, data = EXCLUDED.data, updated_at = now()`,
		pt.ID, pt.Name, data)
	if err != nil {
		return fmt.Errorf("upsert property type: %w", err)
	}
	return nil
}
