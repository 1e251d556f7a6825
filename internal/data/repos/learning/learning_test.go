package learning

import (
	"context"
	"testing"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/repos/testutil"
	types "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/dbctx"
)

func TestTutorialRepo(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewTutorialRepo(gdb, testutil.Logger(t))

	now := time.Now().UTC()
	for _, id := range []string{"t1", "t2"} {
		if err := repo.Create(dbc, &types.Tutorial{ID: id, CommitID: "o/n:abcdef1", RepoID: "o/n", Title: id, Source: types.SourceAI, CreatedAt: now}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	byCommit, err := repo.ListByCommit(dbc, "o/n:abcdef1")
	if err != nil || len(byCommit) != 2 {
		t.Fatalf("ListByCommit: len=%d err=%v", len(byCommit), err)
	}
	ids, err := repo.ListIDsByRepo(dbc, "o/n")
	if err != nil || len(ids) != 2 {
		t.Fatalf("ListIDsByRepo: %v err=%v", ids, err)
	}
	if err := repo.Delete(dbc, "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := repo.GetByID(dbc, "t1"); got != nil {
		t.Fatalf("t1 survived delete")
	}
	if got, _ := repo.GetByID(dbc, "t2"); got == nil || got.Source != types.SourceAI {
		t.Fatalf("GetByID t2: %+v", got)
	}
}

func TestSessionRepoProgressNeverReopens(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewSessionRepo(gdb, testutil.Logger(t))

	now := time.Now().UTC()
	s := &types.LearnerSession{ID: "s1", TutorialID: "t1", TotalSteps: 3, CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(dbc, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.UpdateProgress(dbc, "s1", 2, nil, now); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	done := now.Add(time.Minute)
	if err := repo.UpdateProgress(dbc, "s1", 2, &done, done); err != nil {
		t.Fatalf("UpdateProgress complete: %v", err)
	}
	if err := repo.UpdateProgress(dbc, "s1", 0, nil, done); err != nil {
		t.Fatalf("UpdateProgress after complete: %v", err)
	}
	got, err := repo.GetByID(dbc, "s1")
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.CurrentStep != 2 || got.CompletedAt == nil {
		t.Fatalf("completed session changed: step=%d completed=%v", got.CurrentStep, got.CompletedAt)
	}

	ids, err := repo.ListIDsByTutorials(dbc, []string{"t1"})
	if err != nil || len(ids) != 1 {
		t.Fatalf("ListIDsByTutorials: %v err=%v", ids, err)
	}
	if err := repo.DeleteByTutorials(dbc, []string{"t1"}); err != nil {
		t.Fatalf("DeleteByTutorials: %v", err)
	}
	if got, _ := repo.GetByID(dbc, "s1"); got != nil {
		t.Fatalf("session survived delete")
	}
}
