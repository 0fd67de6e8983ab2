package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"property-evaluation-service/internal/domain"
)

func TestPropertyTypeRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		PropertyTypeLoader: NewStaticPropertyTypeLoader(map[string]domain.PropertyType{
			"house": samplePropertyType(),
		}),
	}
	repo := NewPropertyTypeRepository(loader, time.Minute, nil)

	if _, err := repo.GetPropertyType(context.Background(), "house"); err != nil {
		t.Fatalf("get property type: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	pt, err := repo.GetPropertyType(context.Background(), "house")
	if err != nil {
		t.Fatalf("get property type 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if pt.QuestionCount() != 1 {
		t.Fatalf("expected cached tree, got %+v", pt)
	}
}

func TestPropertyTypeRepositoryReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{
		PropertyTypeLoader: NewStaticPropertyTypeLoader(map[string]domain.PropertyType{
			"house": samplePropertyType(),
		}),
	}
	repo := NewPropertyTypeRepository(loader, time.Minute, nil)
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetPropertyType(context.Background(), "house")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetPropertyType(context.Background(), "house")
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected the expired entry replaced, got %d entries", repo.Len())
	}
}

func TestPropertyTypeRepositoryZeroTTLDisablesCaching(t *testing.T) {
	loader := &countingLoader{
		PropertyTypeLoader: NewStaticPropertyTypeLoader(map[string]domain.PropertyType{
			"house": samplePropertyType(),
		}),
	}
	repo := NewPropertyTypeRepository(loader, 0, nil)

	_, _ = repo.GetPropertyType(context.Background(), "house")
	_, _ = repo.GetPropertyType(context.Background(), "house")
	if loader.calls != 2 {
		t.Fatalf("expected every call to load, loader calls %d", loader.calls)
	}
	if repo.Len() != 0 {
		t.Fatalf("expected nothing cached, got %d entries", repo.Len())
	}
}

func TestPropertyTypeRepositoryUnknown(t *testing.T) {
	repo := NewPropertyTypeRepository(NewStaticPropertyTypeLoader(nil), time.Minute, nil)
	if _, err := repo.GetPropertyType(context.Background(), "castle"); !errors.Is(err, domain.ErrPropertyTypeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	PropertyTypeLoader
	calls int
}

func (l *countingLoader) LoadPropertyType(ctx context.Context, propertyTypeID string) (domain.PropertyType, error) {
	l.calls++
	return l.PropertyTypeLoader.LoadPropertyType(ctx, propertyTypeID)
}

func samplePropertyType() domain.PropertyType {
	return domain.PropertyType{
		ID:   "house",
		Name: "House",
		Categories: []domain.Category{
			{
				ID:   "structure",
				Name: "Structure",
				Questions: []domain.Question{
					{
						ID:     "roof",
						Text:   "What condition is the roof in?",
						Weight: 1,
						Answers: []domain.Answer{
							{ID: "poor", Text: "Poor", Weight: 1},
							{ID: "good", Text: "Good", Weight: 5},
						},
					},
				},
			},
		},
	}
}
