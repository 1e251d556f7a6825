package learning

import (
	"testing"
	"time"
)

func TestSessionMonotonicity(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	const k = 4
	s := &LearnerSession{ID: "s", TutorialID: "t", TotalSteps: k}

	if s.Previous(now) {
		t.Fatalf("previous at 0 should be a no-op")
	}
	for i := 0; i < k-1; i++ {
		if !s.Next(now) {
			t.Fatalf("next %d: expected change", i)
		}
	}
	if s.CurrentStep != k-1 || s.Completed() {
		t.Fatalf("after %d nexts: step=%d completed=%v", k-1, s.CurrentStep, s.Completed())
	}
	if !s.Next(now) {
		t.Fatalf("final next should complete")
	}
	if !s.Completed() || s.CurrentStep != k-1 {
		t.Fatalf("completed: step=%d completed=%v", s.CurrentStep, s.Completed())
	}
	if s.Next(now) || s.Previous(now) || s.Complete(now) {
		t.Fatalf("moves after completion must be no-ops")
	}
	if s.CurrentStep != k-1 {
		t.Fatalf("step moved after completion: %d", s.CurrentStep)
	}
}

func TestSessionPreviousAndExplicitComplete(t *testing.T) {
	now := time.Now()
	s := &LearnerSession{TotalSteps: 3, CurrentStep: 2}
	if !s.Previous(now) || s.CurrentStep != 1 {
		t.Fatalf("previous: want step=1 got=%d", s.CurrentStep)
	}
	if !s.Complete(now) || s.CurrentStep != 1 {
		t.Fatalf("complete should not move cursor: step=%d", s.CurrentStep)
	}
}

func TestSessionSingleStep(t *testing.T) {
	s := &LearnerSession{TotalSteps: 1}
	if !s.Next(time.Now()) || !s.Completed() || s.CurrentStep != 0 {
		t.Fatalf("single step: step=%d completed=%v", s.CurrentStep, s.Completed())
	}
}
