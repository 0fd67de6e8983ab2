package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"property-evaluation-service/internal/app"
	"property-evaluation-service/internal/domain"
	"property-evaluation-service/internal/infra/memory"
)

func TestServiceOpenScopesStorage(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	tracker := &recordingTracker{}
	clock := newFakeClock()
	service := newTestService(kv, syncDispatcher{saver: memory.NewEvaluationSaver()}, tracker, clock)

	alice, offer, err := service.Open(ctx, "alice", "house")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if offer != nil {
		t.Fatalf("expected no offer on first open")
	}
	_ = alice.Start(ctx)
	_ = alice.SavePropertyInfo(ctx, domain.PropertyInfo{Name: "Lake house"})
	_ = alice.Answer(ctx, "roof-mid")

	_, bobOffer, err := service.Open(ctx, "bob", "house")
	if err != nil {
		t.Fatalf("open bob: %v", err)
	}
	if bobOffer != nil {
		t.Fatalf("bob must not see alice's session")
	}

	clock.Advance(time.Minute)
	_, aliceOffer, err := service.Open(ctx, "alice", "house")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if aliceOffer == nil || len(aliceOffer.Answers) != 1 {
		t.Fatalf("expected alice's session offered, got %+v", aliceOffer)
	}
	if tracker.props[0]["scope"] != "alice" {
		t.Fatalf("expected scope on telemetry, got %v", tracker.props[0])
	}
}

func TestServiceOpenUnknownPropertyType(t *testing.T) {
	service := newTestService(memory.NewKV(), nil, nil, newFakeClock())
	if _, _, err := service.Open(context.Background(), "alice", "castle"); !errors.Is(err, domain.ErrPropertyTypeNotFound) {
		t.Fatalf("expected ErrPropertyTypeNotFound, got %v", err)
	}
}

func TestServiceWithSaveQueue(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	saver := memory.NewEvaluationSaver()
	queue := app.NewSaveQueue(saver, 4, 1, time.Second, nil)
	queue.Start(ctx)
	service := newTestService(kv, queue, nil, newFakeClock())

	eval, _, err := service.Open(ctx, "alice", "house")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = eval.Start(ctx)
	_ = eval.SavePropertyInfo(ctx, domain.PropertyInfo{Name: "Lake house"})
	_ = eval.Answer(ctx, "roof-high")
	_ = eval.Next(ctx)
	_ = eval.Skip(ctx)
	_ = eval.Answer(ctx, "insulation-high")
	if err := eval.Next(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := queue.Close(); err != nil {
		t.Fatalf("close queue: %v", err)
	}
	records := saver.Records()
	if len(records) != 1 || records[0].Scope != "alice" || records[0].PropertyID != "house" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if records[0].Result.TotalScore != 10 {
		t.Fatalf("expected total 10, got %v", records[0].Result.TotalScore)
	}
	if kv.Len() != 0 {
		t.Fatalf("expected alice's records cleared after save, %d keys left", kv.Len())
	}
}

func newTestService(kv *memory.KV, saves app.Dispatcher, tracker app.Tracker, clock *fakeClock) *app.EvaluationService {
	repo := memory.NewPropertyTypeRepository(memory.NewStaticPropertyTypeLoader(map[string]domain.PropertyType{
		"house": sampleType(),
	}), 5*time.Minute, nil)
	return app.NewEvaluationService(repo, kv, saves, tracker, nil, app.WithClock(clock.Now))
}
