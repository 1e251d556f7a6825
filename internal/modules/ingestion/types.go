package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/github"
)

var (
	ErrAlreadyExists      = fmt.Errorf("repository already ingested: %w", perrors.ErrConflict)
	ErrRepositoryNotFound = fmt.Errorf("repository not ingested: %w", perrors.ErrNotFound)
)

const (
	DefaultCommitLimit = 20
	maxListPage        = 100
)

// SourceControl is the part of github.Client the pipeline needs.
type SourceControl interface {
	GetRepository(ctx context.Context, owner, name string) (*github.RepoInfo, error)
	ListCommits(ctx context.Context, owner, name string, opts github.ListCommitsOptions) ([]github.CommitRecord, error)
	GetCommit(ctx context.Context, owner, name, sha string) (*github.CommitRecord, error)
}

type IngestOptions struct {
	Branch      string `json:"branch,omitempty"`
	CommitLimit int    `json:"commit_limit,omitempty"`
}

type CommitSummary struct {
	ID         string                  `json:"id"`
	SHA        string                  `json:"sha"`
	Message    string                  `json:"message"`
	Author     string                  `json:"author"`
	AuthoredAt time.Time               `json:"authored_at"`
	Analysis   codebase.CommitAnalysis `json:"analysis"`
}

type IngestionResult struct {
	Repository      *codebase.Repository `json:"repository"`
	Commits         []CommitSummary      `json:"commits"`
	LearningCommits int                  `json:"learning_commits"`
	TotalCommits    int                  `json:"total_commits"`
	Errors          []string             `json:"errors"`
}

type RefreshResult struct {
	NewCommits []CommitSummary `json:"new_commits"`
	Errors     []string        `json:"errors"`
}
