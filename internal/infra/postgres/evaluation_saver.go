package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"property-evaluation-service/internal/domain"
)

// EvaluationSaver durably stores completed evaluations.
type EvaluationSaver struct {
	pool *pgxpool.Pool
}

func NewEvaluationSaver(pool *pgxpool.Pool) *EvaluationSaver {
	return &EvaluationSaver{pool: pool}
}

func (s *EvaluationSaver) SaveEvaluation(ctx context.Context, record domain.EvaluationRecord) error {
	answers, err := json.Marshal(record.Answers)
	if err != nil {
		return err
	}
	result, err := json.Marshal(record.Result)
	if err != nil {
		return err
	}
	info, err := json.Marshal(record.PropertyInfo)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO evaluations
			(id, scope, property_id, property_type_id, answers, result, property_info, percentage, level, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.Scope, record.PropertyID, record.PropertyType.ID,
		answers, result, info, record.Result.Percentage, string(record.Result.Level), record.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// CountEvaluations returns how many evaluations were saved for propertyID within scope.
func (s *EvaluationSaver) CountEvaluations(ctx context.Context, scope, propertyID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM evaluations WHERE scope=$1 AND property_id=$2`, scope, propertyID).Scan(&n)
	return n, err
}
