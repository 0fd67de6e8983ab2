package memory

import (
	"context"
	"sync"

	"property-evaluation-service/internal/domain"
)

// EvaluationSaver keeps completed evaluations in memory. Used when no database is configured.
type EvaluationSaver struct {
	mu      sync.RWMutex
	records []domain.EvaluationRecord
	err     error
}

func NewEvaluationSaver() *EvaluationSaver {
	return &EvaluationSaver{}
}

// FailWith makes subsequent saves return err. A nil err restores normal behaviour.
func (s *EvaluationSaver) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *EvaluationSaver) SaveEvaluation(ctx context.Context, record domain.EvaluationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

// Records returns the saved evaluations in save order.
func (s *EvaluationSaver) Records() []domain.EvaluationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.EvaluationRecord(nil), s.records...)
}
