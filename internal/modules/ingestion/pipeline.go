package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/db"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/github"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage"
)

var tracer = otel.Tracer("onboarder/ingestion")

const statusWriteTimeout = 5 * time.Second

type Config struct {
	// Concurrency bounds in-flight commit fetches. Values below 2 run the
	// commit loop sequentially.
	Concurrency int
	CommitLimit int
}

type Pipeline struct {
	log         *logger.Logger
	source      SourceControl
	store       *storage.Facade
	concurrency int
	limit       int
	now         func() time.Time
}

func NewPipeline(log *logger.Logger, source SourceControl, store *storage.Facade, cfg Config) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.CommitLimit <= 0 {
		cfg.CommitLimit = DefaultCommitLimit
	}
	return &Pipeline{
		log:         log.With("service", "IngestionPipeline"),
		source:      source,
		store:       store,
		concurrency: cfg.Concurrency,
		limit:       cfg.CommitLimit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Ingest imports a repository the first time it is seen. Per-commit failures
// are collected in the result; only failures before the commit loop are
// returned as errors.
func (p *Pipeline) Ingest(ctx context.Context, rawURL string, opts IngestOptions) (*IngestionResult, error) {
	ref, err := github.ParseRepositoryURL(rawURL)
	if err != nil {
		return nil, err
	}
	repoID := ref.ID()

	ctx, span := tracer.Start(ctx, "ingestion.Ingest")
	defer span.End()
	span.SetAttributes(attribute.String("repo.id", repoID))

	existing, err := p.store.GetRepositoryByURL(ctx, ref.CanonicalURL())
	if err != nil {
		return nil, fmt.Errorf("lookup repository: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%s: %w", repoID, ErrAlreadyExists)
	}

	info, err := p.source.GetRepository(ctx, ref.Owner, ref.Name)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	repo := newRepository(ref, info, p.now())
	if err := p.store.CreateRepository(ctx, repo); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, fmt.Errorf("%s: %w", repoID, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("create repository: %w", err)
	}
	p.cacheMeta(ctx, repo, info)

	log := p.log.With("repo_id", repoID)
	fail := func(err error) (*IngestionResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if serr := p.setStatus(ctx, repoID, codebase.AnalysisError, err.Error()); serr != nil {
			log.Warn("Failed to record analysis error", "error", serr)
		}
		log.Error("Ingestion failed", "error", err)
		return nil, err
	}

	if err := p.setStatus(ctx, repoID, codebase.AnalysisAnalyzing, ""); err != nil {
		return fail(fmt.Errorf("set analysis status: %w", err))
	}

	limit := p.commitLimit(opts)
	candidates, err := p.listCandidates(ctx, ref, opts.Branch, limit)
	if err != nil {
		return fail(err)
	}

	summaries, errs := p.processAll(ctx, ref, candidates)
	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("ingest %s: %w", repoID, err))
	}
	result := &IngestionResult{
		Repository:   repo,
		Commits:      summaries,
		TotalCommits: len(candidates),
		Errors:       errs,
	}
	for _, s := range summaries {
		if s.Analysis.IsLearningWorthy {
			result.LearningCommits++
		}
	}

	if err := p.setStatus(ctx, repoID, codebase.AnalysisCompleted, ""); err != nil {
		return fail(fmt.Errorf("set analysis status: %w", err))
	}
	span.SetAttributes(
		attribute.Int("commits.total", result.TotalCommits),
		attribute.Int("commits.learning", result.LearningCommits),
		attribute.Int("commits.errors", len(errs)),
	)
	log.Info("Ingestion complete",
		"total", result.TotalCommits,
		"learning", result.LearningCommits,
		"errors", len(errs),
	)
	return result, nil
}

// Refresh processes commits that are upstream but not yet stored. It does not
// touch the analysis status.
func (p *Pipeline) Refresh(ctx context.Context, repoID string, opts IngestOptions) (*RefreshResult, error) {
	ctx, span := tracer.Start(ctx, "ingestion.Refresh")
	defer span.End()
	span.SetAttributes(attribute.String("repo.id", repoID))

	repo, err := p.store.GetRepository(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("lookup repository: %w", err)
	}
	if repo == nil {
		return nil, fmt.Errorf("%s: %w", repoID, ErrRepositoryNotFound)
	}
	ref, err := github.ParseRepositoryURL(repo.URL)
	if err != nil {
		ref = github.RepoRef{Host: "github.com", Owner: repo.Owner, Name: repo.Name}
	}

	stored, err := p.store.ListCommitSHAs(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("list stored commits: %w", err)
	}
	seen := make(map[string]struct{}, len(stored))
	for _, sha := range stored {
		seen[strings.ToLower(sha)] = struct{}{}
	}

	candidates, err := p.listCandidates(ctx, ref, opts.Branch, p.commitLimit(opts))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	fresh := candidates[:0:0]
	for _, c := range candidates {
		if _, ok := seen[strings.ToLower(c.SHA)]; !ok {
			fresh = append(fresh, c)
		}
	}

	summaries, errs := p.processAll(ctx, ref, fresh)
	span.SetAttributes(attribute.Int("commits.new", len(summaries)))
	p.log.Info("Refresh complete", "repo_id", repoID, "new", len(summaries), "errors", len(errs))
	return &RefreshResult{NewCommits: summaries, Errors: errs}, nil
}

func (p *Pipeline) commitLimit(opts IngestOptions) int {
	if opts.CommitLimit > 0 {
		return opts.CommitLimit
	}
	return p.limit
}

// setStatus ignores cancellation of ctx; status writes are bounded by
// statusWriteTimeout instead.
func (p *Pipeline) setStatus(ctx context.Context, repoID string, state codebase.AnalysisState, msg string) error {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()
	return p.store.SetAnalysisStatus(sctx, repoID, state, msg)
}

// listCandidates over-fetches min(2*limit, 100) commits so the pre-filter
// still leaves up to limit to process.
func (p *Pipeline) listCandidates(ctx context.Context, ref github.RepoRef, branch string, limit int) ([]github.CommitRecord, error) {
	perPage := 2 * limit
	if perPage > maxListPage {
		perPage = maxListPage
	}
	listed, err := p.source.ListCommits(ctx, ref.Owner, ref.Name, github.ListCommitsOptions{Branch: branch, PerPage: perPage})
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	filtered := github.FilterLearningCommits(listed)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func (p *Pipeline) cacheMeta(ctx context.Context, repo *codebase.Repository, info *github.RepoInfo) {
	meta := &codebase.RepoMeta{
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
}

func newRepository(ref github.RepoRef, info *github.RepoInfo, now time.Time) *codebase.Repository {
	display := info.FullName
	if display == "" {
		display = ref.ID()
	}
	var topics datatypes.JSON
	if len(info.Topics) > 0 {
		if raw, err := json.Marshal(info.Topics); err == nil {
			topics = datatypes.JSON(raw)
		}
	}
	return &codebase.Repository{
		ID:            ref.ID(),
		URL:           ref.CanonicalURL(),
		Owner:         ref.Owner,
		Name:          ref.Name,
		DisplayName:   display,
		Description:   info.Description,
		DefaultBranch: info.DefaultBranch,
		Language:      info.Language,
		Stars:         info.StargazersCount,
		Topics:        topics,
		CreatedAt:     now,
	}
}
