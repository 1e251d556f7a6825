package tutorial

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/db"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/repos"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/repos/testutil"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/modules/workspace"
	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/github"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage/storagetest"
)

const (
	testSHA    = "abc1234"
	testParent = "def5678"
	testCommit = "octo/hello:" + testSHA
)

type fakeSource struct {
	commit   *github.CommitRecord
	files    map[string]string
	infoHits int
}

func (f *fakeSource) GetRepository(context.Context, string, string) (*github.RepoInfo, error) {
	f.infoHits++
	return &github.RepoInfo{Language: "Go", Description: "greeter"}, nil
}

func (f *fakeSource) GetCommit(context.Context, string, string, string) (*github.CommitRecord, error) {
	c := *f.commit
	return &c, nil
}

func (f *fakeSource) GetTree(context.Context, string, string, string) ([]github.TreeEntry, error) {
	var out []github.TreeEntry
	for p, c := range f.files {
		out = append(out, github.TreeEntry{Path: p, Type: "blob", Size: int64(len(c))})
	}
	return out, nil
}

func (f *fakeSource) GetFileContent(_ context.Context, _, _, path, _ string) (string, error) {
	return f.files[path], nil
}

type fakeAI struct {
	text   string
	err    error
	system string
	user   string
}

func (f *fakeAI) GenerateText(_ context.Context, system, user string, _ int, _ float64) (string, error) {
	f.system, f.user = system, user
	return f.text, f.err
}

func (f *fakeAI) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	return nil, errors.New("not used")
}

const goodJSON = "```json\n" + `{"title":"Add greeting","description":"d","steps":[
{"title":"Create greet.go","instructions":"Add greet.go","code_example":"func Greet() {}"},
{"title":"Wire it","instructions":"Call Greet from main.go","hints":["look at main"]}]}` + "\n```"

type fixture struct {
	p     *Pipeline
	ss    *SessionService
	src   *fakeSource
	ai    *fakeAI
	store *storage.Facade
	kv    *storagetest.KV
	blob  *storagetest.Blob
}

func newFixture(t *testing.T, withAI bool) fixture {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	fx := fixture{
		src: &fakeSource{
			commit: &github.CommitRecord{
				SHA:     testSHA,
				Message: "feat: add greeting\n\nbody",
				Author:  "Octo",
				Parents: []github.ParentRef{{SHA: testParent}},
				Files: []codebase.FileChange{
					{Filename: "greet.go", Status: codebase.FileAdded, Additions: 12, Patch: "+func Greet() {}"},
					{Filename: "main.go", Status: codebase.FileModified, Additions: 2, Deletions: 1, Patch: "+Greet()"},
				},
			},
			files: map[string]string{"main.go": "package main\n\nfunc main() {}\n", "go.mod": "module x\n"},
		},
		ai:   &fakeAI{text: goodJSON},
		kv:   storagetest.NewKV(),
		blob: storagetest.NewBlob(),
	}
	fx.store = storage.New(log, storage.Deps{
		Relational:     repos.NewSet(gdb, log),
		RelationalPing: db.FromDB(gdb, log),
		KV:             fx.kv,
		Blob:           fx.blob,
		Vector:         storagetest.NewVector(),
		Embedder:       &storagetest.Embedder{},
	})
	deps := PipelineDeps{Log: log, Source: fx.src, Fetcher: workspace.NewFetcher(fx.src, 2, 0), Store: fx.store}
	if withAI {
		deps.Generator = NewAIGenerator(fx.ai)
	}
	fx.p = NewPipeline(deps)
	fx.ss = NewSessionService(log, fx.store)

	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := fx.store.CreateRepository(ctx, &codebase.Repository{
		ID: "octo/hello", URL: "https://github.com/octo/hello", Owner: "octo", Name: "hello",
		DisplayName: "octo/hello", Language: "Go", CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateRepository: %v", err)
	}
	if err := fx.store.CreateCommit(ctx, &codebase.Commit{
		ID: testCommit, RepoID: "octo/hello", SHA: testSHA, Message: "feat: add greeting",
		IsLearningWorthy: true, Category: string(codebase.CategoryFeature), CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateCommit: %v", err)
	}
	return fx
}

func TestGenerateWithAI(t *testing.T) {
	fx := newFixture(t, true)
	ctx := context.Background()

	res, err := fx.p.Generate(ctx, testCommit)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	tut := res.Tutorial
	if tut.Source != learning.SourceAI || tut.Title != "Add greeting" || tut.StepCount != 2 {
		t.Fatalf("tutorial: got=%+v", tut)
	}
	if res.Content.ParentSHA != testParent || res.Content.Steps[1].ID != "step-2" {
		t.Fatalf("content: got=%+v", res.Content)
	}
	if !strings.Contains(fx.ai.user, "package main") || !strings.Contains(fx.ai.user, "greet.go") {
		t.Fatalf("prompt missing context: %s", fx.ai.user)
	}
	if !strings.Contains(fx.ai.system, "ONBOARDER_PROMPT_STYLE_V1") {
		t.Fatalf("system prompt not styled")
	}
	if !fx.blob.Has(storage.TutorialContentPath(tut.ID)) || !fx.kv.Has(storage.TutorialKey(tut.ID)) {
		t.Fatalf("content blob or cache missing")
	}
	art, err := fx.store.GetArtifact(ctx, tut.ID, "step-1", "example.go")
	if err != nil || string(art) != "func Greet() {}" {
		t.Fatalf("artifact: got=%q err=%v", art, err)
	}
	if len(res.Content.FileTree) != 2 {
		t.Fatalf("file tree: got=%d nodes", len(res.Content.FileTree))
	}
	got, err := fx.p.Get(ctx, tut.ID)
	if err != nil || got.Tutorial.ID != tut.ID || len(got.Content.Steps) != 2 {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}
	if fx.src.infoHits != 1 {
		t.Fatalf("metadata refresh: want=1 got=%d", fx.src.infoHits)
	}
	if _, err := fx.p.Generate(ctx, testCommit); err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if fx.src.infoHits != 1 {
		t.Fatalf("metadata should be cached: hits=%d", fx.src.infoHits)
	}
	list, err := fx.p.ListForCommit(ctx, testCommit)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListForCommit: n=%d err=%v", len(list), err)
	}
}

func TestGenerateFallsBackOnMalformedOutput(t *testing.T) {
	for name, ai := range map[string]*fakeAI{
		"not json":   {text: "sorry, I cannot help"},
		"no steps":   {text: `{"title":"x","steps":[]}`},
		"call error": {err: errors.New("upstream 500")},
	} {
		fx := newFixture(t, true)
		fx.p.generator = NewAIGenerator(ai)
		res, err := fx.p.Generate(context.Background(), testCommit)
		if err != nil {
			t.Fatalf("%s: Generate: %v", name, err)
		}
		if res.Tutorial.Source != learning.SourceFallback {
			t.Fatalf("%s: source: want=fallback got=%s", name, res.Tutorial.Source)
		}
		if !strings.HasPrefix(res.Tutorial.Title, "Recreate: feat: add greeting") {
			t.Fatalf("%s: title: got=%q", name, res.Tutorial.Title)
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	if _, err := fx.p.Generate(ctx, "not-an-id"); !errors.Is(err, codebase.ErrInvalidCommitID) {
		t.Fatalf("invalid id: got=%v", err)
	}
	if _, err := fx.p.Generate(ctx, "octo/hello:0000000"); !errors.Is(err, ErrCommitNotFound) {
		t.Fatalf("missing commit: got=%v", err)
	}
	fx.src.commit.Parents = nil
	_, err := fx.p.Generate(ctx, testCommit)
	if !errors.Is(err, ErrNoParentCommit) || !errors.Is(err, perrors.ErrInvalidArgument) {
		t.Fatalf("no parent: got=%v", err)
	}
	if _, err := fx.p.Get(ctx, "missing"); !errors.Is(err, ErrTutorialNotFound) {
		t.Fatalf("missing tutorial: got=%v", err)
	}
}

func TestGenerateWritesContentBeforeRow(t *testing.T) {
	fx := newFixture(t, false)
	fx.blob.FailPut = func(key string) error {
		if strings.HasSuffix(key, "/content.json") {
			return storagetest.ErrInjected
		}
		return nil
	}
	if _, err := fx.p.Generate(context.Background(), testCommit); !errors.Is(err, storagetest.ErrInjected) {
		t.Fatalf("want injected error got=%v", err)
	}
	list, err := fx.p.ListForCommit(context.Background(), testCommit)
	if err != nil || len(list) != 0 {
		t.Fatalf("no row expected: n=%d err=%v", len(list), err)
	}
}

func TestFallbackIsDeterministic(t *testing.T) {
	in := GenerateInput{RepoID: "o/n", SHA: testSHA, ParentSHA: testParent, Message: "fix: handle nil"}
	for i := 0; i < 9; i++ {
		in.Changes = append(in.Changes, codebase.FileChange{Filename: "f" + string(rune('a'+i)) + ".go", Status: codebase.FileModified, Additions: 3})
	}
	a, _ := FallbackGenerator{}.Generate(context.Background(), in)
	b, _ := FallbackGenerator{}.Generate(context.Background(), in)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("fallback not deterministic")
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("fallback invalid: %v", err)
	}
	if len(a.Steps) != 7 || a.Steps[len(a.Steps)-1].Title != "Verify the change" {
		t.Fatalf("steps: n=%d last=%q", len(a.Steps), a.Steps[len(a.Steps)-1].Title)
	}
}

func TestParseGenerated(t *testing.T) {
	g, err := parseGenerated("Here you go:\n" + goodJSON + "\nEnjoy!")
	if err != nil {
		t.Fatalf("parseGenerated: %v", err)
	}
	if g.Title != "Add greeting" || len(g.Steps) != 2 || g.Steps[1].Hints[0] != "look at main" {
		t.Fatalf("parsed: got=%+v", g)
	}
	if _, err := parseGenerated(`{"title":"x","steps":[{"title":"a"}]}`); !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("missing instructions: got=%v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()
	res, err := fx.p.Generate(ctx, testCommit)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	k := res.Tutorial.StepCount

	sess, err := fx.ss.Start(ctx, res.Tutorial.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.TotalSteps != k || sess.CurrentStep != 0 {
		t.Fatalf("start: got=%+v", sess)
	}
	if sess, err = fx.ss.PreviousStep(ctx, sess.ID); err != nil || sess.CurrentStep != 0 {
		t.Fatalf("previous at 0: step=%d err=%v", sess.CurrentStep, err)
	}
	for i := 0; i < k; i++ {
		if sess, err = fx.ss.NextStep(ctx, sess.ID); err != nil {
			t.Fatalf("NextStep %d: %v", i, err)
		}
	}
	if !sess.Completed() || sess.CurrentStep != k-1 {
		t.Fatalf("after %d nexts: step=%d completed=%v", k, sess.CurrentStep, sess.Completed())
	}
	if sess, err = fx.ss.PreviousStep(ctx, sess.ID); err != nil || sess.CurrentStep != k-1 {
		t.Fatalf("previous after completion moved: step=%d err=%v", sess.CurrentStep, err)
	}

	stored, err := fx.ss.Get(ctx, sess.ID)
	if err != nil || !stored.Completed() || stored.CurrentStep != k-1 {
		t.Fatalf("stored: got=%+v err=%v", stored, err)
	}
	qs, err := fx.ss.State(ctx, sess.ID)
	if err != nil || qs.CompletedAt == nil || qs.CurrentStep != k-1 {
		t.Fatalf("quick state: got=%+v err=%v", qs, err)
	}
	view, err := fx.ss.View(ctx, sess.ID)
	if err != nil || view.Step == nil || view.Step.ID != res.Content.Steps[k-1].ID {
		t.Fatalf("view: got=%+v err=%v", view, err)
	}
}

func TestSessionNotFound(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()
	if _, err := fx.ss.Start(ctx, "missing"); !errors.Is(err, ErrTutorialNotFound) {
		t.Fatalf("Start: got=%v", err)
	}
	if _, err := fx.ss.NextStep(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("NextStep: got=%v", err)
	}
	if _, err := fx.ss.State(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("State: got=%v", err)
	}
}
