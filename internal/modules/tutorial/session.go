package tutorial

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage"
)

// SessionService drives learner sessions. The relational row is the source
// of truth; the KV quick-state is a mirror refreshed on every change.
type SessionService struct {
	log   *logger.Logger
	store *storage.Facade
	now   func() time.Time
	newID func() string
}

func NewSessionService(log *logger.Logger, store *storage.Facade) *SessionService {
	return &SessionService{
		log:   log.With("service", "SessionService"),
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// SessionView is a session with the step its cursor points at.
type SessionView struct {
	Session *learning.LearnerSession `json:"session"`
	Step    *learning.TutorialStep   `json:"step,omitempty"`
}

func (s *SessionService) Start(ctx context.Context, tutorialID string) (*learning.LearnerSession, error) {
	tut, err := s.store.GetTutorial(ctx, tutorialID)
	if err != nil {
		return nil, fmt.Errorf("load tutorial: %w", err)
	}
	if tut == nil {
		return nil, fmt.Errorf("%s: %w", tutorialID, ErrTutorialNotFound)
	}
	now := s.now()
	sess := &learning.LearnerSession{
		ID:         s.newID(),
		TutorialID: tut.ID,
		TotalSteps: tut.StepCount,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.mirror(ctx, sess)
	s.log.Info("Session started", "session_id", sess.ID, "tutorial_id", tut.ID)
	return sess, nil
}

func (s *SessionService) Get(ctx context.Context, sessionID string) (*learning.LearnerSession, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
	}
	return sess, nil
}

// State reads the KV mirror, falling back to the row on a miss.
func (s *SessionService) State(ctx context.Context, sessionID string) (*learning.QuickState, error) {
	qs, err := s.store.GetSessionState(ctx, sessionID)
	if err != nil {
		s.log.Warn("Session state read failed", "session_id", sessionID, "error", err)
	}
	if qs != nil {
		return qs, nil
	}
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.mirror(ctx, sess)
	st := sess.QuickState()
	return &st, nil
}

// View returns the session and its current step.
func (s *SessionService) View(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	content, err := s.store.GetTutorialContent(ctx, sess.TutorialID)
	if err != nil {
		return nil, fmt.Errorf("load tutorial content: %w", err)
	}
	view := &SessionView{Session: sess}
	if content != nil && sess.CurrentStep >= 0 && sess.CurrentStep < len(content.Steps) {
		step := content.Steps[sess.CurrentStep]
		view.Step = &step
	}
	return view, nil
}

func (s *SessionService) NextStep(ctx context.Context, sessionID string) (*learning.LearnerSession, error) {
	return s.move(ctx, sessionID, (*learning.LearnerSession).Next)
}

func (s *SessionService) PreviousStep(ctx context.Context, sessionID string) (*learning.LearnerSession, error) {
	return s.move(ctx, sessionID, (*learning.LearnerSession).Previous)
}

func (s *SessionService) Complete(ctx context.Context, sessionID string) (*learning.LearnerSession, error) {
	return s.move(ctx, sessionID, (*learning.LearnerSession).Complete)
}

// move applies a transition and persists it only if the session changed.
func (s *SessionService) move(ctx context.Context, sessionID string, step func(*learning.LearnerSession, time.Time) bool) (*learning.LearnerSession, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !step(sess, s.now()) {
		return sess, nil
	}
	if err := s.store.UpdateSessionProgress(ctx, sess); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	s.mirror(ctx, sess)
	return sess, nil
}

func (s *SessionService) mirror(ctx context.Context, sess *learning.LearnerSession) {
	if err := s.store.SetSessionState(ctx, sess); err != nil {
		s.log.Warn("Session state write failed", "session_id", sess.ID, "error", err)
	}
}
