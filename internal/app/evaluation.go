package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"property-evaluation-service/internal/domain"
	"property-evaluation-service/internal/report"
	"property-evaluation-service/internal/scoring"
)

// Deps are the collaborators of an Evaluation.
type Deps struct {
	Scope         string
	Store         *SessionStore
	Dispatcher    Dispatcher
	Tracker       Tracker
	Logger        *zap.Logger
	Clock         Clock
	MaxSessionAge time.Duration
}

// State is an immutable snapshot of an evaluation for rendering.
type State struct {
	PropertyID       string                    `json:"propertyId"`
	Screen           domain.Screen             `json:"screen"`
	QuestionIndex    int                       `json:"questionIndex"`
	TotalQuestions   int                       `json:"totalQuestions"`
	Question         *domain.Question          `json:"question,omitempty"`
	SelectedAnswerID string                    `json:"selectedAnswerId,omitempty"`
	Answers          []domain.UserAnswer       `json:"answers"`
	PropertyInfo     domain.PropertyInfo       `json:"propertyInfo"`
	CanAdvance       bool                      `json:"canAdvance"`
	Result           *domain.EvaluationResult  `json:"result,omitempty"`
	ResumeOffer      *domain.EvaluationSession `json:"resumeOffer,omitempty"`
}

// Evaluation drives one user through the start -> property-info -> questions -> final flow.
// It is not safe for concurrent use; a single goroutine owns it. Every transition is applied
// in full or not at all.
type Evaluation struct {
	propertyID   string
	propertyType domain.PropertyType
	questions    []domain.Question
	engine       *scoring.Engine

	scope   string
	store   *SessionStore
	saves   Dispatcher
	tracker Tracker
	logger  *zap.Logger
	clock   Clock
	maxAge  time.Duration

	screen  domain.Screen
	index   int
	answers []domain.UserAnswer
	info    domain.PropertyInfo
	result  *domain.EvaluationResult
	pending *domain.EvaluationSession
}

// NewEvaluation prepares an evaluation of propertyID against the given question tree.
func NewEvaluation(propertyID string, pt domain.PropertyType, deps Deps) (*Evaluation, error) {
	engine, err := scoring.NewEngine(pt)
	if err != nil {
		return nil, err
	}
	if engine.TotalQuestions() == 0 {
		return nil, fmt.Errorf("property type %q has no questions: %w", pt.ID, domain.ErrQuestionNotFound)
	}

	e := &Evaluation{
		propertyID:   propertyID,
		propertyType: pt,
		questions:    pt.Questions(),
		engine:       engine,
		scope:        deps.Scope,
		store:        deps.Store,
		saves:        deps.Dispatcher,
		tracker:      deps.Tracker,
		logger:       deps.Logger,
		clock:        deps.Clock,
		maxAge:       deps.MaxSessionAge,
		screen:       domain.ScreenStart,
		answers:      []domain.UserAnswer{},
	}
	if e.tracker == nil {
		e.tracker = nopTracker{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.maxAge <= 0 {
		e.maxAge = DefaultMaxSessionAge
	}
	e.logger = e.logger.With(zap.String("propertyId", propertyID))
	return e, nil
}

// Mount inspects the stored session. An eligible session is returned as a resume offer and
// nothing changes until Resume or StartFresh. Anything else is discarded silently.
func (e *Evaluation) Mount(ctx context.Context) *domain.EvaluationSession {
	e.reset()
	session, present := e.store.load(ctx, e.propertyID)
	if !present {
		return nil
	}
	if session != nil && Resumable(*session, e.clock(), e.maxAge) && session.QuestionIndex >= 0 && session.QuestionIndex < len(e.questions) {
		e.pending = session
		offer := *session
		return &offer
	}
	e.StartFresh(ctx)
	return nil
}

// Resume continues the offered session at its stored question.
func (e *Evaluation) Resume(ctx context.Context) error {
	if e.pending == nil {
		return e.invalid("resume")
	}
	session := e.pending
	e.pending = nil

	known := make(map[string]struct{}, len(e.questions))
	for _, q := range e.questions {
		known[q.ID] = struct{}{}
	}
	answers := make([]domain.UserAnswer, 0, len(session.Answers))
	for _, a := range session.Answers {
		if _, ok := known[a.QuestionID]; ok {
			answers = append(answers, a)
		}
	}

	e.screen = domain.ScreenQuestions
	e.index = session.QuestionIndex
	e.answers = answers
	e.result = nil
	if info := e.store.LoadInfo(ctx, e.propertyID); info != nil {
		e.info = *info
	}
	e.track(EventResumed, map[string]any{"questionIndex": e.index, "answers": len(e.answers)})
	return nil
}

// StartFresh drops any stored session and property info and returns to the start screen.
func (e *Evaluation) StartFresh(ctx context.Context) {
	e.clearStored(ctx)
	e.reset()
	e.track(EventStartFresh, nil)
}

// Start leaves the start screen. Whatever was stored for this property is cleared first.
func (e *Evaluation) Start(ctx context.Context) error {
	if e.screen != domain.ScreenStart {
		return e.invalid("start")
	}
	e.clearStored(ctx)
	e.reset()
	e.screen = domain.ScreenPropertyInfo
	e.track(EventStarted, nil)
	return nil
}

// SavePropertyInfo validates the form and moves to the first question. Validation failures
// are returned as domain.ValidationErrors and leave the evaluation untouched.
func (e *Evaluation) SavePropertyInfo(ctx context.Context, info domain.PropertyInfo) error {
	if e.screen != domain.ScreenPropertyInfo {
		return e.invalid("save property info")
	}
	if err := domain.ValidatePropertyInfo(info, e.clock()); err != nil {
		return err
	}

	e.info = info
	e.screen = domain.ScreenQuestions
	e.index = 0
	if err := e.store.SaveInfo(ctx, e.propertyID, info); err != nil {
		e.logger.Warn("persist property info", zap.Error(err))
	}
	e.persist(ctx)
	e.track(EventPropertyInfoSaved, map[string]any{"name": info.Name})
	return nil
}

// Back returns to the start screen from the property info form or the first question.
// An in-progress session is left in storage.
func (e *Evaluation) Back(ctx context.Context) error {
	switch {
	case e.screen == domain.ScreenPropertyInfo:
	case e.screen == domain.ScreenQuestions && e.index == 0:
	default:
		return e.invalid("back")
	}
	from := e.screen
	e.screen = domain.ScreenStart
	e.track(EventBack, map[string]any{"from": string(from)})
	return nil
}

// Answer selects a choice for the current question, replacing any earlier selection.
func (e *Evaluation) Answer(ctx context.Context, answerID string) error {
	if e.screen != domain.ScreenQuestions {
		return e.invalid("answer")
	}
	q := e.questions[e.index]
	choice, ok := q.FindAnswer(answerID)
	if !ok {
		return fmt.Errorf("question %q, answer %q: %w", q.ID, answerID, domain.ErrAnswerNotFound)
	}

	selected := domain.UserAnswer{
		QuestionID:     q.ID,
		AnswerID:       choice.ID,
		AnswerWeight:   choice.Weight,
		QuestionWeight: q.Weight,
	}
	if i := e.answerIndex(q.ID); i >= 0 {
		e.answers[i] = selected
	} else {
		e.answers = append(e.answers, selected)
	}

	e.persist(ctx)
	e.track(EventAnswered, map[string]any{"questionId": q.ID, "answerId": choice.ID, "weight": choice.Weight})
	return nil
}

// CanAdvance reports whether Next is allowed. Only finishing requires an answer.
func (e *Evaluation) CanAdvance() bool {
	if e.screen != domain.ScreenQuestions {
		return false
	}
	return e.index < len(e.questions)-1 || e.answerIndex(e.questions[e.index].ID) >= 0
}

// Next moves to the following question, or completes the evaluation on the last one.
func (e *Evaluation) Next(ctx context.Context) error {
	if e.screen != domain.ScreenQuestions {
		return e.invalid("next")
	}
	if !e.CanAdvance() {
		return domain.ErrAnswerRequired
	}
	return e.advance(ctx, EventNext)
}

// Skip discards any answer to the current question and advances. Skipping the last
// question completes the evaluation.
func (e *Evaluation) Skip(ctx context.Context) error {
	if e.screen != domain.ScreenQuestions {
		return e.invalid("skip")
	}
	if i := e.answerIndex(e.questions[e.index].ID); i >= 0 {
		e.answers = append(e.answers[:i], e.answers[i+1:]...)
	}
	return e.advance(ctx, EventSkipped)
}

func (e *Evaluation) Previous(ctx context.Context) error {
	if e.screen != domain.ScreenQuestions || e.index == 0 {
		return e.invalid("previous")
	}
	e.index--
	e.persist(ctx)
	e.track(EventPrevious, map[string]any{"questionIndex": e.index})
	return nil
}

// Restart discards a completed evaluation and returns to the start screen.
func (e *Evaluation) Restart(ctx context.Context) error {
	if e.screen != domain.ScreenFinal {
		return e.invalid("restart")
	}
	if err := e.store.Clear(ctx, e.propertyID); err != nil {
		e.logger.Warn("clear session", zap.Error(err))
	}
	e.reset()
	e.track(EventRestarted, nil)
	return nil
}

// Result returns the result of a completed evaluation.
func (e *Evaluation) Result() (domain.EvaluationResult, bool) {
	if e.result == nil {
		return domain.EvaluationResult{}, false
	}
	return *e.result, true
}

// Report renders the completed evaluation as text. An empty label uses the property type name.
func (e *Evaluation) Report(label string) (string, error) {
	if e.result == nil {
		return "", domain.ErrNoResult
	}
	if label == "" {
		label = e.propertyType.Name
	}
	return report.FormatText(*e.result, label, e.clock()), nil
}

func (e *Evaluation) State() State {
	st := State{
		PropertyID:     e.propertyID,
		Screen:         e.screen,
		QuestionIndex:  e.index,
		TotalQuestions: len(e.questions),
		Answers:        append([]domain.UserAnswer{}, e.answers...),
		PropertyInfo:   e.info,
		CanAdvance:     e.CanAdvance(),
	}
	if e.screen == domain.ScreenQuestions {
		q := e.questions[e.index]
		st.Question = &q
		if i := e.answerIndex(q.ID); i >= 0 {
			st.SelectedAnswerID = e.answers[i].AnswerID
		}
	}
	if e.result != nil {
		result := *e.result
		st.Result = &result
	}
	if e.pending != nil {
		offer := *e.pending
		st.ResumeOffer = &offer
	}
	return st
}

func (e *Evaluation) advance(ctx context.Context, event string) error {
	if e.index < len(e.questions)-1 {
		e.index++
		e.persist(ctx)
		e.track(event, map[string]any{"questionIndex": e.index})
		return nil
	}
	e.track(event, map[string]any{"questionIndex": e.index})
	return e.complete(ctx)
}

func (e *Evaluation) complete(ctx context.Context) error {
	result, err := e.engine.Evaluate(e.answers)
	if err != nil {
		return err
	}
	finishedAt := e.clock()
	e.result = &result
	e.screen = domain.ScreenFinal
	e.persistAt(ctx, finishedAt)
	e.track(EventCompleted, map[string]any{
		"percentage":     result.Percentage,
		"level":          string(result.Level),
		"completionRate": result.CompletionRate,
	})

	if e.saves == nil {
		return nil
	}
	record := domain.EvaluationRecord{
		ID:           uuid.NewString(),
		Scope:        e.scope,
		PropertyID:   e.propertyID,
		PropertyType: e.propertyType,
		Answers:      append([]domain.UserAnswer{}, e.answers...),
		Result:       result,
		PropertyInfo: e.info,
		CompletedAt:  finishedAt,
	}
	store, tracker, logger, clock, propertyID := e.store, e.tracker, e.logger, e.clock, e.propertyID
	started := clock()
	e.saves.Dispatch(record, func(err error) {
		props := map[string]any{"evaluationId": record.ID, "durationMs": clock().Sub(started).Milliseconds()}
		if err != nil {
			logger.Error("save evaluation", zap.String("evaluationId", record.ID), zap.Error(err))
			props["error"] = err.Error()
			tracker.Track(EventSaveFailed, props)
			return
		}
		clearSaved(context.Background(), store, logger, propertyID, finishedAt.UnixMilli())
		tracker.Track(EventSaveSucceeded, props)
	})
	return nil
}

func (e *Evaluation) persist(ctx context.Context) {
	e.persistAt(ctx, e.clock())
}

func (e *Evaluation) persistAt(ctx context.Context, now time.Time) {
	if err := e.store.Save(ctx, e.propertyID, e.answers, e.index, e.screen, now); err != nil {
		e.logger.Warn("persist session", zap.String("screen", string(e.screen)), zap.Error(err))
	}
}

// clearSaved removes the stored records of a saved evaluation. It does nothing once the final
// snapshot written at completedAt (epoch ms) has been replaced, so a newer run keeps its progress.
func clearSaved(ctx context.Context, store *SessionStore, logger *zap.Logger, propertyID string, completedAt int64) {
	session := store.Load(ctx, propertyID)
	if session == nil || session.Screen != domain.ScreenFinal || session.Timestamp != completedAt {
		return
	}
	if err := store.Clear(ctx, propertyID); err != nil {
		logger.Warn("clear saved session", zap.Error(err))
	}
	if err := store.ClearInfo(ctx, propertyID); err != nil {
		logger.Warn("clear saved property info", zap.Error(err))
	}
}

func (e *Evaluation) clearStored(ctx context.Context) {
	if err := e.store.Clear(ctx, e.propertyID); err != nil {
		e.logger.Warn("clear session", zap.Error(err))
	}
	if err := e.store.ClearInfo(ctx, e.propertyID); err != nil {
		e.logger.Warn("clear property info", zap.Error(err))
	}
}

func (e *Evaluation) reset() {
	e.screen = domain.ScreenStart
	e.index = 0
	e.answers = []domain.UserAnswer{}
	e.info = domain.PropertyInfo{}
	e.result = nil
	e.pending = nil
}

func (e *Evaluation) answerIndex(questionID string) int {
	for i, a := range e.answers {
		if a.QuestionID == questionID {
			return i
		}
	}
	return -1
}

func (e *Evaluation) invalid(event string) error {
	return fmt.Errorf("%s on %s screen: %w", event, e.screen, domain.ErrInvalidTransition)
}

func (e *Evaluation) track(event string, props map[string]any) {
	if props == nil {
		props = map[string]any{}
	}
	props["propertyId"] = e.propertyID
	e.tracker.Track(event, props)
}
