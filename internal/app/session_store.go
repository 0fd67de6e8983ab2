package app

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"property-evaluation-service/internal/domain"
)

// DefaultMaxSessionAge is how long an in-progress evaluation stays resumable.
const DefaultMaxSessionAge = 24 * time.Hour

// SessionKey is the storage key of the in-progress evaluation of a property.
func SessionKey(propertyID string) string {
	return "evaluation-" + propertyID
}

// InfoKey is the storage key of the property info form of a property.
func InfoKey(propertyID string) string {
	return "property-info-" + propertyID
}

// SessionStore persists in-progress evaluations and property info so a flow survives reloads.
// Reads fail soft: corrupt or unreadable records are reported as absent.
type SessionStore struct {
	storage Storage
	logger  *zap.Logger
}

func NewSessionStore(storage Storage, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{storage: storage, logger: logger}
}

// Load returns the stored session, or nil when none exists or the record is corrupt.
// Corrupt records are removed.
func (s *SessionStore) Load(ctx context.Context, propertyID string) *domain.EvaluationSession {
	session, _ := s.load(ctx, propertyID)
	return session
}

// load also reports whether a record was present, so callers can tell corrupt from absent.
func (s *SessionStore) load(ctx context.Context, propertyID string) (*domain.EvaluationSession, bool) {
	var session domain.EvaluationSession
	ok, present := s.read(ctx, SessionKey(propertyID), &session)
	if !ok {
		return nil, present
	}
	if session.Answers == nil {
		session.Answers = []domain.UserAnswer{}
	}
	return &session, true
}

// Save overwrites the stored session with a new snapshot stamped with now.
func (s *SessionStore) Save(ctx context.Context, propertyID string, answers []domain.UserAnswer, questionIndex int, screen domain.Screen, now time.Time) error {
	snapshot := make([]domain.UserAnswer, len(answers))
	copy(snapshot, answers)
	return s.write(ctx, SessionKey(propertyID), domain.EvaluationSession{
		Answers:       snapshot,
		QuestionIndex: questionIndex,
		Screen:        screen,
		Timestamp:     now.UnixMilli(),
	})
}

func (s *SessionStore) Clear(ctx context.Context, propertyID string) error {
	return s.storage.Remove(ctx, SessionKey(propertyID))
}

// LoadInfo returns the stored property info, or nil. It has no staleness policy.
func (s *SessionStore) LoadInfo(ctx context.Context, propertyID string) *domain.PropertyInfo {
	var info domain.PropertyInfo
	if ok, _ := s.read(ctx, InfoKey(propertyID), &info); !ok {
		return nil
	}
	return &info
}

func (s *SessionStore) SaveInfo(ctx context.Context, propertyID string, info domain.PropertyInfo) error {
	return s.write(ctx, InfoKey(propertyID), info)
}

func (s *SessionStore) ClearInfo(ctx context.Context, propertyID string) error {
	return s.storage.Remove(ctx, InfoKey(propertyID))
}

// read decodes the record at key into dst. present reports whether a record existed,
// even one that failed to decode.
func (s *SessionStore) read(ctx context.Context, key string, dst any) (ok, present bool) {
	raw, found, err := s.storage.Get(ctx, key)
	if err != nil {
		s.logger.Warn("read stored record", zap.String("key", key), zap.Error(err))
		return false, false
	}
	if !found {
		return false, false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Warn("discarding corrupt record", zap.String("key", key), zap.Error(err))
		if err := s.storage.Remove(ctx, key); err != nil {
			s.logger.Warn("remove corrupt record", zap.String("key", key), zap.Error(err))
		}
		return false, true
	}
	return true, true
}

func (s *SessionStore) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, key, string(data))
}

// IsStale reports whether the session is at least maxAge old.
func IsStale(session domain.EvaluationSession, now time.Time, maxAge time.Duration) bool {
	return now.UnixMilli()-session.Timestamp >= maxAge.Milliseconds()
}

// Resumable reports whether a stored session may be offered for resume: it must still be on
// the questions screen and not stale.
func Resumable(session domain.EvaluationSession, now time.Time, maxAge time.Duration) bool {
	return session.Screen == domain.ScreenQuestions && !IsStale(session, now, maxAge)
}
