package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"property-evaluation-service/internal/domain"
)

// PropertyTypeRepository loads question trees (from cache/backing store).
type PropertyTypeRepository interface {
	GetPropertyType(ctx context.Context, propertyTypeID string) (domain.PropertyType, error)
}

// EvaluationService opens evaluations wired to the shared storage, save queue and telemetry.
type EvaluationService struct {
	types   PropertyTypeRepository
	storage Storage
	saves   Dispatcher
	tracker Tracker
	logger  *zap.Logger
	clock   Clock
	maxAge  time.Duration
}

// Option customizes an EvaluationService.
type Option func(*EvaluationService)

// WithClock overrides the clock, for deterministic timestamps in tests.
func WithClock(clock Clock) Option {
	return func(s *EvaluationService) { s.clock = clock }
}

// WithMaxSessionAge changes how long in-progress evaluations stay resumable.
func WithMaxSessionAge(maxAge time.Duration) Option {
	return func(s *EvaluationService) { s.maxAge = maxAge }
}

func NewEvaluationService(types PropertyTypeRepository, storage Storage, saves Dispatcher, tracker Tracker, logger *zap.Logger, opts ...Option) *EvaluationService {
	s := &EvaluationService{
		types:   types,
		storage: storage,
		saves:   saves,
		tracker: tracker,
		logger:  logger,
		clock:   time.Now,
		maxAge:  DefaultMaxSessionAge,
	}
	if s.tracker == nil {
		s.tracker = nopTracker{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the question tree of propertyID and mounts an evaluation whose records are
// scoped to scope. The returned session is a resume offer, or nil.
func (s *EvaluationService) Open(ctx context.Context, scope, propertyID string) (*Evaluation, *domain.EvaluationSession, error) {
	pt, err := s.types.GetPropertyType(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}

	logger := s.logger
	if scope != "" {
		logger = logger.With(zap.String("scope", scope))
	}
	evaluation, err := NewEvaluation(propertyID, pt, Deps{
		Scope:         scope,
		Store:         NewSessionStore(Scoped(s.storage, scope), logger),
		Dispatcher:    s.saves,
		Tracker:       scopedTracker{inner: s.tracker, scope: scope},
		Logger:        logger,
		Clock:         s.clock,
		MaxSessionAge: s.maxAge,
	})
	if err != nil {
		return nil, nil, err
	}
	return evaluation, evaluation.Mount(ctx), nil
}

type scopedTracker struct {
	inner Tracker
	scope string
}

func (t scopedTracker) Track(event string, props map[string]any) {
	if t.scope != "" {
		if props == nil {
			props = map[string]any{}
		}
		props["scope"] = t.scope
	}
	t.inner.Track(event, props)
}
