package storage

import (
	"context"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/repos"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/dbctx"
)

// Lookups return (nil, nil) when the row does not exist.

func (f *Facade) CreateRepository(ctx context.Context, r *codebase.Repository) error {
	return f.rel.Repositories.Create(dbctx.New(ctx), r)
}

func (f *Facade) GetRepository(ctx context.Context, id string) (*codebase.Repository, error) {
	return f.rel.Repositories.GetByID(dbctx.New(ctx), id)
}

func (f *Facade) GetRepositoryByURL(ctx context.Context, url string) (*codebase.Repository, error) {
	return f.rel.Repositories.GetByURL(dbctx.New(ctx), url)
}

func (f *Facade) ListRepositories(ctx context.Context, limit, offset int) ([]*codebase.Repository, error) {
	return f.rel.Repositories.List(dbctx.New(ctx), limit, offset)
}

func (f *Facade) CreateCommit(ctx context.Context, c *codebase.Commit) error {
	return f.rel.Commits.Create(dbctx.New(ctx), c)
}

func (f *Facade) GetCommit(ctx context.Context, id codebase.CommitID) (*codebase.Commit, error) {
	return f.rel.Commits.GetByID(dbctx.New(ctx), id.String())
}

func (f *Facade) ListCommits(ctx context.Context, repoID string, filter repos.CommitFilter) ([]*codebase.Commit, error) {
	return f.rel.Commits.ListByRepo(dbctx.New(ctx), repoID, filter)
}

func (f *Facade) ListCommitSHAs(ctx context.Context, repoID string) ([]string, error) {
	return f.rel.Commits.ListSHAs(dbctx.New(ctx), repoID)
}

func (f *Facade) CountCommits(ctx context.Context, repoID string) (int64, error) {
	return f.rel.Commits.CountByRepo(dbctx.New(ctx), repoID)
}

func (f *Facade) CreateTutorial(ctx context.Context, t *learning.Tutorial) error {
	return f.rel.Tutorials.Create(dbctx.New(ctx), t)
}

func (f *Facade) GetTutorial(ctx context.Context, id string) (*learning.Tutorial, error) {
	return f.rel.Tutorials.GetByID(dbctx.New(ctx), id)
}

func (f *Facade) ListTutorialsByCommit(ctx context.Context, commitID codebase.CommitID) ([]*learning.Tutorial, error) {
	return f.rel.Tutorials.ListByCommit(dbctx.New(ctx), commitID.String())
}

func (f *Facade) CreateSession(ctx context.Context, s *learning.LearnerSession) error {
	return f.rel.Sessions.Create(dbctx.New(ctx), s)
}

func (f *Facade) GetSession(ctx context.Context, id string) (*learning.LearnerSession, error) {
	return f.rel.Sessions.GetByID(dbctx.New(ctx), id)
}

// UpdateSessionProgress is the only relational update path. Completed
// sessions are left untouched by the repo.
func (f *Facade) UpdateSessionProgress(ctx context.Context, s *learning.LearnerSession) error {
	updatedAt := s.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = f.now()
	}
	return f.rel.Sessions.UpdateProgress(dbctx.New(ctx), s.ID, s.CurrentStep, s.CompletedAt, updatedAt)
}

func (f *Facade) Now() time.Time { return f.now() }
