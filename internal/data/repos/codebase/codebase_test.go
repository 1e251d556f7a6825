package codebase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/db"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/repos/testutil"
	types "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/dbctx"
)

func TestRepositoryRepo(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewRepositoryRepo(gdb, testutil.Logger(t))

	r := &types.Repository{
		ID:          "octocat/hello",
		URL:         "https://github.com/octocat/hello",
		Owner:       "octocat",
		Name:        "hello",
		DisplayName: "octocat/hello",
		CreatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(dbc, r); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByURL(dbc, r.URL)
	if err != nil || got == nil || got.ID != r.ID {
		t.Fatalf("GetByURL: got=%+v err=%v", got, err)
	}
	missing, err := repo.GetByID(dbc, "nobody/nothing")
	if err != nil || missing != nil {
		t.Fatalf("GetByID missing: got=%+v err=%v", missing, err)
	}
	list, err := repo.List(dbc, 10, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("List: len=%d err=%v", len(list), err)
	}

	dup := *r
	dup.ID = "octocat/hello-again"
	if err := repo.Create(dbc, &dup); !errors.Is(err, db.ErrDuplicate) {
		t.Fatalf("duplicate url: want ErrDuplicate got=%v", err)
	}
}

func TestCommitRepo(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewCommitRepo(gdb, testutil.Logger(t))

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, sha := range []string{"aaaaaaa", "bbbbbbb", "ccccccc"} {
		c := &types.Commit{
			ID:               "o/n:" + sha,
			RepoID:           "o/n",
			SHA:              sha,
			Message:          "msg",
			AuthoredAt:       base.Add(time.Duration(i) * time.Hour),
			IsLearningWorthy: i != 1,
			Category:         "feature",
			CreatedAt:        base,
		}
		if err := repo.Create(dbc, c); err != nil {
			t.Fatalf("Create %s: %v", sha, err)
		}
	}
	if err := repo.Create(dbc, &types.Commit{ID: "x/y:ddddddd", RepoID: "x/y", SHA: "ddddddd", Message: "m", CreatedAt: base}); err != nil {
		t.Fatalf("Create other repo: %v", err)
	}

	all, err := repo.ListByRepo(dbc, "o/n", CommitFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("ListByRepo: len=%d err=%v", len(all), err)
	}
	if all[0].SHA != "ccccccc" {
		t.Fatalf("newest first: got=%s", all[0].SHA)
	}
	worthy, err := repo.ListByRepo(dbc, "o/n", CommitFilter{WorthyOnly: true})
	if err != nil || len(worthy) != 2 {
		t.Fatalf("worthy: len=%d err=%v", len(worthy), err)
	}
	shas, err := repo.ListSHAs(dbc, "o/n")
	if err != nil || len(shas) != 3 {
		t.Fatalf("ListSHAs: %v err=%v", shas, err)
	}
	n, err := repo.CountByRepo(dbc, "x/y")
	if err != nil || n != 1 {
		t.Fatalf("CountByRepo: n=%d err=%v", n, err)
	}

	if err := repo.DeleteByRepo(dbc, "o/n"); err != nil {
		t.Fatalf("DeleteByRepo: %v", err)
	}
	if got, _ := repo.GetByID(dbc, "o/n:aaaaaaa"); got != nil {
		t.Fatalf("commit survived delete")
	}
	if got, _ := repo.GetByID(dbc, "x/y:ddddddd"); got == nil {
		t.Fatalf("other repo's commit deleted")
	}
}
