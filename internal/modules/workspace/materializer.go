package workspace

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage"
)

const SnapshotName = "snapshot"

var (
	ErrInvalidRequest     = fmt.Errorf("invalid workspace request: %w", perrors.ErrInvalidArgument)
	ErrSessionNotFound    = fmt.Errorf("session not found: %w", perrors.ErrNotFound)
	ErrTutorialNotFound   = fmt.Errorf("tutorial not found: %w", perrors.ErrNotFound)
	ErrRepositoryNotFound = fmt.Errorf("repository not found: %w", perrors.ErrNotFound)
	ErrUnknownStep        = fmt.Errorf("unknown tutorial step: %w", perrors.ErrInvalidArgument)
)

var tracer = otel.Tracer("onboarder/workspace")

// Fetcher lists a tree at a ref and fetches the files that pass Include.
type Fetcher struct {
	source      Source
	concurrency int
	maxFiles    int
}

func NewFetcher(source Source, concurrency, maxFiles int) *Fetcher {
	if concurrency < 1 {
		concurrency = 4
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	return &Fetcher{source: source, concurrency: concurrency, maxFiles: maxFiles}
}

func (f *Fetcher) Collect(ctx context.Context, owner, name, ref string) ([]FileResult, error) {
	entries, err := f.source.GetTree(ctx, owner, name, ref)
	if err != nil {
		return nil, fmt.Errorf("get tree %s/%s@%s: %w", owner, name, ref, err)
	}
	return FetchFiles(ctx, f.source, owner, name, ref, Select(entries, f.maxFiles), f.concurrency), nil
}

type Materializer struct {
	log     *logger.Logger
	fetcher *Fetcher
	store   *storage.Facade
	now     func() time.Time
}

func NewMaterializer(log *logger.Logger, fetcher *Fetcher, store *storage.Facade) *Materializer {
	return &Materializer{
		log:     log.With("service", "WorkspaceMaterializer"),
		fetcher: fetcher,
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Materialize builds the file tree of owner/repo at sha and overwrites the
// workspace's snapshot blob.
func (m *Materializer) Materialize(ctx context.Context, owner, repo, sha, workspaceID string) ([]*learning.FileNode, error) {
	if !codebase.ValidRepoSegment(owner) || !codebase.ValidRepoSegment(repo) || sha == "" || workspaceID == "" {
		return nil, fmt.Errorf("%w: owner=%q repo=%q sha=%q workspace=%q", ErrInvalidRequest, owner, repo, sha, workspaceID)
	}
	ctx, span := tracer.Start(ctx, "workspace.Materialize")
	defer span.End()
	span.SetAttributes(attribute.String("repo.id", codebase.RepoID(owner, repo)), attribute.String("commit.sha", sha))

	nodes, err := m.build(ctx, owner, repo, sha)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	snap := m.snapshot(workspaceID, codebase.RepoID(owner, repo), sha, "", nodes)
	if err := m.store.PutWorkspaceSnapshot(ctx, SnapshotName, snap); err != nil {
		return nil, fmt.Errorf("persist workspace snapshot: %w", err)
	}
	m.log.Info("Workspace materialized", "workspace_id", workspaceID, "repo_id", snap.RepoID, "files", snap.FileCount)
	return nodes, nil
}

// MaterializeForSession writes the starting tree of a session's tutorial
// under the step's name. An empty stepID means the session's current step.
// Trees are cached per repository and sha.
func (m *Materializer) MaterializeForSession(ctx context.Context, sessionID, stepID string) (*learning.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "workspace.MaterializeForSession")
	defer span.End()

	sess, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
	}
	tut, err := m.store.GetTutorial(ctx, sess.TutorialID)
	if err != nil {
		return nil, fmt.Errorf("load tutorial: %w", err)
	}
	if tut == nil {
		return nil, fmt.Errorf("%s: %w", sess.TutorialID, ErrTutorialNotFound)
	}
	content, err := m.store.GetTutorialContent(ctx, tut.ID)
	if err != nil {
		return nil, fmt.Errorf("load tutorial content: %w", err)
	}
	if content == nil {
		return nil, fmt.Errorf("%s content: %w", tut.ID, ErrTutorialNotFound)
	}
	stepID, err = resolveStep(content, sess, stepID)
	if err != nil {
		return nil, err
	}

	repo, err := m.store.GetRepository(ctx, tut.RepoID)
	if err != nil {
		return nil, fmt.Errorf("load repository: %w", err)
	}
	if repo == nil {
		return nil, fmt.Errorf("%s: %w", tut.RepoID, ErrRepositoryNotFound)
	}
	sha := content.ParentSHA
	if sha == "" {
		id, err := codebase.ParseCommitID(tut.CommitID)
		if err != nil {
			return nil, err
		}
		sha = id.SHA
	}
	span.SetAttributes(attribute.String("repo.id", repo.ID), attribute.String("commit.sha", sha))

	branch := repo.DefaultBranch
	if branch == "" {
		branch = "HEAD"
	}
	var nodes []*learning.FileNode
	cached, err := m.store.GetRepoSnapshot(ctx, repo.ID, branch, sha)
	if err != nil {
		m.log.Warn("Repo snapshot cache read failed", "repo_id", repo.ID, "sha", sha, "error", err)
	}
	if cached != nil {
		nodes = cached.Files
	} else {
		nodes, err = m.build(ctx, repo.Owner, repo.Name, sha)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if err := m.store.PutRepoSnapshot(ctx, branch, m.snapshot("", repo.ID, sha, "", nodes)); err != nil {
			m.log.Warn("Repo snapshot cache write failed", "repo_id", repo.ID, "sha", sha, "error", err)
		}
	}

	snap := m.snapshot(sessionID, repo.ID, sha, stepID, nodes)
	if err := m.store.PutWorkspaceSnapshot(ctx, stepID, snap); err != nil {
		return nil, fmt.Errorf("persist workspace snapshot: %w", err)
	}
	return snap, nil
}

func resolveStep(content *learning.TutorialContent, sess *learning.LearnerSession, stepID string) (string, error) {
	if stepID == "" {
		if sess.CurrentStep < 0 || sess.CurrentStep >= len(content.Steps) {
			return "", fmt.Errorf("%w: step index %d", ErrUnknownStep, sess.CurrentStep)
		}
		return content.Steps[sess.CurrentStep].ID, nil
	}
	for _, s := range content.Steps {
		if s.ID == stepID {
			return stepID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStep, stepID)
}

func (m *Materializer) build(ctx context.Context, owner, repo, sha string) ([]*learning.FileNode, error) {
	files, err := m.fetcher.Collect(ctx, owner, repo, sha)
	if err != nil {
		return nil, err
	}
	failed := 0
	for _, f := range files {
		if f.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		m.log.Warn("Some workspace files used placeholders", "repo_id", codebase.RepoID(owner, repo), "sha", sha, "failed", failed)
	}
	return BuildTree(files), nil
}

func (m *Materializer) snapshot(workspaceID, repoID, sha, stepID string, nodes []*learning.FileNode) *learning.Snapshot {
	return &learning.Snapshot{
		WorkspaceID: workspaceID,
		RepoID:      repoID,
		SHA:         sha,
		StepID:      stepID,
		Files:       nodes,
		FileCount:   CountFiles(nodes),
		CreatedAt:   m.now(),
	}
}
