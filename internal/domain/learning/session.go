package learning

import "time"

// LearnerSession is a learner's cursor through one tutorial. CurrentStep is
// bounded to [0, TotalSteps-1]; once CompletedAt is set the session is final.
type LearnerSession struct {
	ID          string     `gorm:"type:text;primaryKey" json:"id"`
	TutorialID  string     `gorm:"type:text;not null;index" json:"tutorial_id"`
	CurrentStep int        `gorm:"not null;default:0" json:"current_step"`
	TotalSteps  int        `gorm:"not null" json:"total_steps"`
	CompletedAt *time.Time `gorm:"index" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (LearnerSession) TableName() string { return "learner_session" }

func (s *LearnerSession) Completed() bool { return s.CompletedAt != nil }

func (s *LearnerSession) lastStep() int {
	if s.TotalSteps <= 0 {
		return 0
	}
	return s.TotalSteps - 1
}

// Next advances one step, or completes at the last step. It reports whether
// the session changed.
func (s *LearnerSession) Next(now time.Time) bool {
	if s.Completed() {
		return false
	}
	if s.CurrentStep < s.lastStep() {
		s.CurrentStep++
		s.UpdatedAt = now
		return true
	}
	return s.Complete(now)
}

// Previous steps back unless at step 0 or completed.
func (s *LearnerSession) Previous(now time.Time) bool {
	if s.Completed() || s.CurrentStep <= 0 {
		return false
	}
	s.CurrentStep--
	s.UpdatedAt = now
	return true
}

// Complete marks the session done without moving the cursor.
func (s *LearnerSession) Complete(now time.Time) bool {
	if s.Completed() {
		return false
	}
	t := now
	s.CompletedAt = &t
	s.UpdatedAt = now
	return true
}

// QuickState is the KV mirror of a session for cheap reads.
type QuickState struct {
	SessionID   string     `json:"session_id"`
	TutorialID  string     `json:"tutorial_id"`
	CurrentStep int        `json:"current_step"`
	TotalSteps  int        `json:"total_steps"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (s *LearnerSession) QuickState() QuickState {
	return QuickState{
		SessionID:   s.ID,
		TutorialID:  s.TutorialID,
		CurrentStep: s.CurrentStep,
		TotalSteps:  s.TotalSteps,
		CompletedAt: s.CompletedAt,
	}
}
