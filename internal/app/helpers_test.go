package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"property-evaluation-service/internal/app"
	"property-evaluation-service/internal/domain"
	"property-evaluation-service/internal/infra/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingTracker struct {
	mu     sync.Mutex
	events []string
	props  []map[string]any
}

func (r *recordingTracker) Track(event string, props map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.props = append(r.props, props)
}

func (r *recordingTracker) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

// syncDispatcher saves inline so tests observe the outcome immediately.
type syncDispatcher struct {
	saver app.ResultSaver
}

func (d syncDispatcher) Dispatch(record domain.EvaluationRecord, done func(error)) {
	done(d.saver.SaveEvaluation(context.Background(), record))
}

type fixture struct {
	kv        *memory.KV
	store     *app.SessionStore
	saver     *memory.EvaluationSaver
	tracker   *recordingTracker
	clock     *fakeClock
	eval      *app.Evaluation
	dispatch  app.Dispatcher
	propertyT domain.PropertyType
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		kv:        memory.NewKV(),
		saver:     memory.NewEvaluationSaver(),
		tracker:   &recordingTracker{},
		clock:     newFakeClock(),
		propertyT: sampleType(),
	}
	f.store = app.NewSessionStore(f.kv, nil)
	f.dispatch = syncDispatcher{saver: f.saver}
	f.eval = f.newEvaluation(t)
	return f
}

func (f *fixture) newEvaluation(t *testing.T) *app.Evaluation {
	t.Helper()
	eval, err := app.NewEvaluation("house", f.propertyT, app.Deps{
		Store:      f.store,
		Dispatcher: f.dispatch,
		Tracker:    f.tracker,
		Clock:      f.clock.Now,
	})
	if err != nil {
		t.Fatalf("new evaluation: %v", err)
	}
	return eval
}

// toQuestions drives a fresh evaluation to the first question.
func (f *fixture) toQuestions(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if err := f.eval.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.eval.SavePropertyInfo(ctx, domain.PropertyInfo{Name: "Lake house"}); err != nil {
		t.Fatalf("save info: %v", err)
	}
}

func sampleType() domain.PropertyType {
	choices := func(prefix string) []domain.Answer {
		return []domain.Answer{
			{ID: prefix + "-low", Text: "Poor", Weight: 1},
			{ID: prefix + "-mid", Text: "Fair", Weight: 3},
			{ID: prefix + "-high", Text: "Great", Weight: 5},
		}
	}
	return domain.PropertyType{
		ID:   "house",
		Name: "House",
		Categories: []domain.Category{
			{ID: "structure", Name: "Structure", Questions: []domain.Question{
				{ID: "roof", Text: "Roof condition", Weight: 1, Answers: choices("roof")},
				{ID: "walls", Text: "Wall condition", Weight: 2, Answers: choices("walls")},
			}},
			{ID: "energy", Name: "Energy", Questions: []domain.Question{
				{ID: "insulation", Text: "Insulation", Weight: 1, Answers: choices("insulation")},
			}},
		},
	}
}
