package memory

import (
	"context"
	"errors"
	"testing"

	"property-evaluation-service/internal/domain"
)

func TestEvaluationSaverRecordsAndFails(t *testing.T) {
	saver := NewEvaluationSaver()
	ctx := context.Background()

	if err := saver.SaveEvaluation(ctx, domain.EvaluationRecord{ID: "e1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	boom := errors.New("db down")
	saver.FailWith(boom)
	if err := saver.SaveEvaluation(ctx, domain.EvaluationRecord{ID: "e2"}); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}

	records := saver.Records()
	if len(records) != 1 || records[0].ID != "e1" {
		t.Fatalf("unexpected records: %+v", records)
	}
}
