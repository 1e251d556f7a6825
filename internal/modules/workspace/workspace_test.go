package workspace

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/db"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/repos"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/repos/testutil"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/github"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage/storagetest"
)

type fakeSource struct {
	mu        sync.Mutex
	tree      []github.TreeEntry
	files     map[string]string
	fail      map[string]error
	treeCalls int
	fetched   []string
}

func (f *fakeSource) GetTree(_ context.Context, _, _, _ string) ([]github.TreeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.treeCalls++
	return f.tree, nil
}

func (f *fakeSource) GetFileContent(_ context.Context, _, _, path, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, path)
	if err := f.fail[path]; err != nil {
		return "", err
	}
	return f.files[path], nil
}

func blob(path string, size int64) github.TreeEntry {
	return github.TreeEntry{Path: path, Type: "blob", Size: size}
}

func TestInclude(t *testing.T) {
	cases := map[string]struct {
		entry github.TreeEntry
		want  bool
	}{
		"source":       {blob("cmd/main.go", 100), true},
		"readme":       {blob("README.md", 10), true},
		"node_modules": {blob("web/node_modules/x/index.js", 10), false},
		"git dir":      {blob(".git/config", 10), false},
		"vendor":       {blob("vendor/github.com/x/y.go", 10), false},
		"binary":       {blob("assets/logo.png", 10), false},
		"too large":    {blob("data/big.go", MaxFileSize+1), false},
		"at limit":     {blob("data/ok.go", MaxFileSize), true},
		"tree":         {github.TreeEntry{Path: "cmd", Type: "tree"}, false},
		"minified":     {blob("web/app.min.js", 10), false},
		"rebuild dir":  {blob("rebuild/x.go", 10), true},
	}
	for name, tc := range cases {
		if got := Include(tc.entry); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", name, tc.want, got)
		}
	}
}

func TestSelectSortsAndCaps(t *testing.T) {
	got := Select([]github.TreeEntry{blob("b.go", 1), blob("a.go", 1), blob("x.png", 1), blob("c.go", 1)}, 2)
	if len(got) != 2 || got[0].Path != "a.go" || got[1].Path != "b.go" {
		t.Fatalf("Select: got=%+v", got)
	}
}

func TestBuildTreeFoldersFirst(t *testing.T) {
	nodes := BuildTree([]FileResult{
		{Path: "z.go", Content: "package z"},
		{Path: "cmd/app/main.go", Content: "package main"},
		{Path: "a.go", Content: "package a"},
		{Path: "cmd/README.md", Content: "# cmd"},
		{Path: "internal/x.go", Err: errors.New("boom")},
	})
	var names []string
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	if strings.Join(names, ",") != "cmd,internal,a.go,z.go" {
		t.Fatalf("root order: got=%v", names)
	}
	cmd := nodes[0]
	if cmd.Path != "cmd" || len(cmd.Children) != 2 || cmd.Children[0].Name != "app" || cmd.Children[1].Name != "README.md" {
		t.Fatalf("cmd children: got=%+v", cmd.Children)
	}
	if cmd.Children[0].Children[0].Path != "cmd/app/main.go" {
		t.Fatalf("nested path: got=%s", cmd.Children[0].Children[0].Path)
	}
	failed := nodes[1].Children[0]
	if !strings.Contains(failed.Content, "could not be loaded") || !strings.Contains(failed.Content, "internal/x.go") {
		t.Fatalf("placeholder: got=%q", failed.Content)
	}
	if CountFiles(nodes) != 5 {
		t.Fatalf("CountFiles: want=5 got=%d", CountFiles(nodes))
	}
}

type fixture struct {
	m     *Materializer
	src   *fakeSource
	store *storage.Facade
	blob  *storagetest.Blob
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	fx := fixture{
		src: &fakeSource{
			tree: []github.TreeEntry{
				blob("main.go", 20), blob("pkg/util.go", 20), blob("node_modules/x.js", 5), blob("logo.png", 5),
			},
			files: map[string]string{"main.go": "package main", "pkg/util.go": "package pkg"},
		},
		blob: storagetest.NewBlob(),
	}
	fx.store = storage.New(log, storage.Deps{
		Relational:     repos.NewSet(gdb, log),
		RelationalPing: db.FromDB(gdb, log),
		KV:             storagetest.NewKV(),
		Blob:           fx.blob,
	})
	fx.m = NewMaterializer(log, NewFetcher(fx.src, 2, 0), fx.store)
	return fx
}

func TestMaterializePersistsSnapshot(t *testing.T) {
	fx := newFixture(t)
	fx.src.fail = map[string]error{"pkg/util.go": errors.New("rate limited")}
	ctx := context.Background()

	nodes, err := fx.m.Materialize(ctx, "octo", "hello", "abc1234", "ws-1")
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(nodes) != 2 || nodes[0].Name != "pkg" || nodes[1].Name != "main.go" {
		t.Fatalf("nodes: got=%+v", nodes)
	}
	if len(fx.src.fetched) != 2 {
		t.Fatalf("fetched: want=2 got=%v", fx.src.fetched)
	}
	if !fx.blob.Has(storage.WorkspacePath("ws-1", SnapshotName)) {
		t.Fatalf("snapshot blob missing")
	}
	snap, err := fx.store.GetWorkspaceSnapshot(ctx, "ws-1", SnapshotName)
	if err != nil || snap == nil || snap.FileCount != 2 || snap.RepoID != "octo/hello" {
		t.Fatalf("snapshot: snap=%+v err=%v", snap, err)
	}

	if _, err := fx.m.Materialize(ctx, "octo", "hello", "abc1234", "ws-1"); err != nil {
		t.Fatalf("second Materialize: %v", err)
	}
}

func TestMaterializeRejectsBadInput(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.m.Materialize(context.Background(), "octo", "", "abc", "ws")
	if !errors.Is(err, perrors.ErrInvalidArgument) {
		t.Fatalf("want invalid argument got=%v", err)
	}
}

func seedSession(t *testing.T, fx fixture) *learning.LearnerSession {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := &codebase.Repository{ID: "octo/hello", URL: "https://github.com/octo/hello", Owner: "octo", Name: "hello", DisplayName: "octo/hello", DefaultBranch: "main", CreatedAt: now}
	if err := fx.store.CreateRepository(ctx, repo); err != nil {
		t.Fatalf("CreateRepository: %v", err)
	}
	tut := &learning.Tutorial{ID: "tut-1", CommitID: "octo/hello:abc1234", RepoID: "octo/hello", Title: "t", Source: learning.SourceFallback, StepCount: 2, CreatedAt: now}
	content := &learning.TutorialContent{
		TutorialID: "tut-1",
		ParentSHA:  "def5678",
		Steps:      []learning.TutorialStep{{ID: "step-1", Title: "one"}, {ID: "step-2", Title: "two"}},
	}
	if err := fx.store.PutTutorialContent(ctx, content); err != nil {
		t.Fatalf("PutTutorialContent: %v", err)
	}
	if err := fx.store.CreateTutorial(ctx, tut); err != nil {
		t.Fatalf("CreateTutorial: %v", err)
	}
	sess := &learning.LearnerSession{ID: "sess-1", TutorialID: "tut-1", TotalSteps: 2, CreatedAt: now, UpdatedAt: now}
	if err := fx.store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return sess
}

func TestMaterializeForSessionUsesParentAndCache(t *testing.T) {
	fx := newFixture(t)
	seedSession(t, fx)
	ctx := context.Background()

	snap, err := fx.m.MaterializeForSession(ctx, "sess-1", "")
	if err != nil {
		t.Fatalf("MaterializeForSession: %v", err)
	}
	if snap.StepID != "step-1" || snap.SHA != "def5678" || snap.WorkspaceID != "sess-1" {
		t.Fatalf("snapshot: got=%+v", snap)
	}
	if !fx.blob.Has(storage.WorkspacePath("sess-1", "step-1")) {
		t.Fatalf("step snapshot blob missing")
	}
	if !fx.blob.Has(storage.RepoSnapshotPath("octo/hello", "main", "def5678")) {
		t.Fatalf("repo snapshot cache missing")
	}

	if _, err := fx.m.MaterializeForSession(ctx, "sess-1", "step-2"); err != nil {
		t.Fatalf("MaterializeForSession step-2: %v", err)
	}
	if fx.src.treeCalls != 1 {
		t.Fatalf("tree calls: want=1 got=%d", fx.src.treeCalls)
	}
}

func TestMaterializeForSessionErrors(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	if _, err := fx.m.MaterializeForSession(ctx, "missing", ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("missing session: got=%v", err)
	}
	seedSession(t, fx)
	if _, err := fx.m.MaterializeForSession(ctx, "sess-1", "step-9"); !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("unknown step: got=%v", err)
	}
}
