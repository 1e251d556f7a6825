package tutorial

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/modules/workspace"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/github"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage"
)

var tracer = otel.Tracer("onboarder/tutorial")

type PipelineDeps struct {
	Log     *logger.Logger
	Source  Source
	Fetcher *workspace.Fetcher
	Store   *storage.Facade
	// Generator may be nil, in which case every tutorial uses the fallback.
	Generator Generator
}

type Pipeline struct {
	log       *logger.Logger
	source    Source
	fetcher   *workspace.Fetcher
	store     *storage.Facade
	generator Generator
	fallback  Generator
	now       func() time.Time
	newID     func() string
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		log:       deps.Log.With("service", "TutorialPipeline"),
		source:    deps.Source,
		fetcher:   deps.Fetcher,
		store:     deps.Store,
		generator: deps.Generator,
		fallback:  FallbackGenerator{},
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Generate builds and persists a new tutorial for a stored commit. The
// content blob is written before the tutorial row, so a row always has
// content behind it.
func (p *Pipeline) Generate(ctx context.Context, rawCommitID string) (*GenerateResult, error) {
	id, err := codebase.ParseCommitID(rawCommitID)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "tutorial.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("commit.id", id.String()))

	res, err := p.generate(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.log.Error("Tutorial generation failed", "commit_id", id.String(), "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.String("tutorial.id", res.Tutorial.ID), attribute.String("tutorial.source", string(res.Tutorial.Source)))
	return res, nil
}

func (p *Pipeline) generate(ctx context.Context, id codebase.CommitID) (*GenerateResult, error) {
	commit, err := p.store.GetCommit(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load commit: %w", err)
	}
	if commit == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrCommitNotFound)
	}
	repo, err := p.store.GetRepository(ctx, id.RepoID)
	if err != nil {
		return nil, fmt.Errorf("load repository: %w", err)
	}
	if repo == nil {
		return nil, fmt.Errorf("%s: %w", id.RepoID, ErrRepositoryNotFound)
	}
	ref, err := github.ParseRepositoryURL(repo.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRepositoryURL, err)
	}

	detail, err := p.source.GetCommit(ctx, ref.Owner, ref.Name, id.SHA)
	if err != nil {
		return nil, fmt.Errorf("fetch commit: %w", err)
	}
	parent, err := detail.FirstParent()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, ErrNoParentCommit)
	}

	files, err := p.fetcher.Collect(ctx, ref.Owner, ref.Name, parent)
	if err != nil {
		return nil, err
	}

	in := GenerateInput{
		RepoID:    repo.ID,
		Language:  repo.Language,
		SHA:       id.SHA,
		ParentSHA: parent,
		Message:   detail.Message,
		Author:    detail.Author,
		Category:  codebase.Category(commit.Category),
		Changes:   detail.Files,
		Before:    beforeSnippets(detail.Files, files),
	}
	if meta := p.repoMeta(ctx, ref, repo); meta != nil {
		in.Language, in.Description, in.Topics = meta.Language, meta.Description, meta.Topics
	}

	gen, source := p.runGenerator(ctx, in)
	tutorialID := p.newID()
	content := &learning.TutorialContent{
		TutorialID: tutorialID,
		Steps:      toSteps(gen.Steps),
		FileTree:   workspace.BuildTree(files),
		ParentSHA:  parent,
	}
	tut := &learning.Tutorial{
		ID:          tutorialID,
		CommitID:    id.String(),
		RepoID:      id.RepoID,
		Title:       gen.Title,
		Description: gen.Description,
		Source:      source,
		StepCount:   len(content.Steps),
		CreatedAt:   p.now(),
	}

	if err := p.store.PutTutorialContent(ctx, content); err != nil {
		return nil, fmt.Errorf("persist tutorial content: %w", err)
	}
	p.putArtifacts(ctx, tutorialID, content.Steps, detail.Files)
	if err := p.store.CreateTutorial(ctx, tut); err != nil {
		return nil, fmt.Errorf("persist tutorial: %w", err)
	}
	if err := p.store.IndexTutorial(ctx, tut, content); err != nil {
		p.log.Warn("Tutorial vector indexing failed", "tutorial_id", tutorialID, "error", err)
	}

	p.log.Info("Tutorial generated", "commit_id", id.String(), "tutorial_id", tutorialID, "source", source, "steps", tut.StepCount)
	return &GenerateResult{Tutorial: tut, Content: content}, nil
}

// runGenerator falls back to the deterministic template on any generator
// error or invalid shape.
func (p *Pipeline) runGenerator(ctx context.Context, in GenerateInput) (*GeneratedTutorial, learning.TutorialSource) {
	if p.generator != nil {
		gen, err := p.generator.Generate(ctx, in)
		if err == nil {
			err = gen.Validate()
		}
		if err == nil {
			return gen, learning.SourceAI
		}
		p.log.Warn("AI tutorial generation failed, using fallback", "sha", in.SHA, "error", err)
	}
	gen, _ := p.fallback.Generate(ctx, in)
	return gen, learning.SourceFallback
}

// repoMeta reads the metadata cache, refilling it from GitHub on a miss.
func (p *Pipeline) repoMeta(ctx context.Context, ref github.RepoRef, repo *codebase.Repository) *codebase.RepoMeta {
	meta, err := p.store.GetRepoMeta(ctx, repo.ID)
	if err != nil {
		p.log.Warn("Repo metadata cache read failed", "repo_id", repo.ID, "error", err)
	}
	if meta != nil {
		return meta
	}
	info, err := p.source.GetRepository(ctx, ref.Owner, ref.Name)
	if err != nil {
		p.log.Warn("Repo metadata refresh failed", "repo_id", repo.ID, "error", err)
		return nil
	}
	meta = &codebase.RepoMeta{
		RepoID:        repo.ID,
		URL:           repo.URL,
		Description:   info.Description,
		DefaultBranch: info.DefaultBranch,
		Language:      info.Language,
		Stars:         info.StargazersCount,
		Topics:        info.Topics,
		FetchedAt:     p.now(),
	}
	if err := p.store.SetRepoMeta(ctx, meta); err != nil {
		p.log.Warn("Repo metadata cache write failed", "repo_id", repo.ID, "error", err)
	}
	return meta
}

func (p *Pipeline) putArtifacts(ctx context.Context, tutorialID string, steps []learning.TutorialStep, changes []codebase.FileChange) {
	name := "example.txt"
	if len(changes) > 0 {
		if ext := path.Ext(changes[0].Filename); ext != "" {
			name = "example" + ext
		}
	}
	for _, s := range steps {
		if s.CodeExample == "" {
			continue
		}
		if err := p.store.PutArtifact(ctx, tutorialID, s.ID, name, []byte(s.CodeExample)); err != nil {
			p.log.Warn("Tutorial artifact write failed", "tutorial_id", tutorialID, "step_id", s.ID, "error", err)
		}
	}
}

// Get returns a tutorial and its content.
func (p *Pipeline) Get(ctx context.Context, tutorialID string) (*GenerateResult, error) {
	tut, err := p.store.GetTutorial(ctx, tutorialID)
	if err != nil {
		return nil, fmt.Errorf("load tutorial: %w", err)
	}
	if tut == nil {
		return nil, fmt.Errorf("%s: %w", tutorialID, ErrTutorialNotFound)
	}
	content, err := p.store.GetTutorialContent(ctx, tutorialID)
	if err != nil {
		return nil, fmt.Errorf("load tutorial content: %w", err)
	}
	if content == nil {
		return nil, fmt.Errorf("%s content: %w", tutorialID, ErrTutorialNotFound)
	}
	return &GenerateResult{Tutorial: tut, Content: content}, nil
}

func (p *Pipeline) ListForCommit(ctx context.Context, rawCommitID string) ([]*learning.Tutorial, error) {
	id, err := codebase.ParseCommitID(rawCommitID)
	if err != nil {
		return nil, err
	}
	return p.store.ListTutorialsByCommit(ctx, id)
}

func beforeSnippets(changes []codebase.FileChange, files []workspace.FileResult) []FileSnippet {
	byPath := make(map[string]workspace.FileResult, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}
	var out []FileSnippet
	for _, c := range changes {
		name := c.Filename
		if c.Status == codebase.FileRenamed && c.PreviousFilename != "" {
			name = c.PreviousFilename
		}
		f, ok := byPath[name]
		if !ok || f.Err != nil {
			continue
		}
		out = append(out, FileSnippet{Path: name, Content: f.Content})
	}
	return out
}

func toSteps(gen []GeneratedStep) []learning.TutorialStep {
	out := make([]learning.TutorialStep, len(gen))
	for i, s := range gen {
		out[i] = learning.TutorialStep{
			ID:           fmt.Sprintf("step-%d", i+1),
			Title:        s.Title,
			Description:  s.Description,
			Instructions: s.Instructions,
			CodeExample:  s.CodeExample,
			Hints:        s.Hints,
		}
	}
	return out
}
