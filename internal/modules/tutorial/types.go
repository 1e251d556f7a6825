package tutorial

import (
	"context"
	"fmt"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/modules/workspace"
	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/github"
)

var (
	ErrCommitNotFound       = fmt.Errorf("commit not found: %w", perrors.ErrNotFound)
	ErrRepositoryNotFound   = fmt.Errorf("repository not found: %w", perrors.ErrNotFound)
	ErrInvalidRepositoryURL = fmt.Errorf("stored repository url is invalid: %w", perrors.ErrInvalidArgument)
	ErrNoParentCommit       = fmt.Errorf("commit has no parent: %w", perrors.ErrInvalidArgument)
	ErrTutorialNotFound     = fmt.Errorf("tutorial not found: %w", perrors.ErrNotFound)
	ErrSessionNotFound      = fmt.Errorf("session not found: %w", perrors.ErrNotFound)
	ErrMalformedOutput      = fmt.Errorf("malformed tutorial output: %w", perrors.ErrInvalidArgument)
)

const MaxSteps = 8

// Source is the part of github.Client tutorial generation reads from.
type Source interface {
	workspace.Source
	GetRepository(ctx context.Context, owner, name string) (*github.RepoInfo, error)
	GetCommit(ctx context.Context, owner, name, sha string) (*github.CommitRecord, error)
}

// Generator turns a commit into tutorial steps.
type Generator interface {
	Generate(ctx context.Context, in GenerateInput) (*GeneratedTutorial, error)
}

type FileSnippet struct {
	Path    string
	Content string
}

type GenerateInput struct {
	RepoID      string
	Language    string
	Description string
	Topics      []string

	SHA       string
	ParentSHA string
	Message   string
	Author    string
	Category  codebase.Category

	Changes []codebase.FileChange
	// Before holds the parent-side content of changed files that existed
	// at the parent.
	Before []FileSnippet
}

type GeneratedStep struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Instructions string   `json:"instructions"`
	CodeExample  string   `json:"code_example"`
	Hints        []string `json:"hints"`
}

type GeneratedTutorial struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Steps       []GeneratedStep `json:"steps"`
}

// Validate checks the shape every generator must produce.
func (g *GeneratedTutorial) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: empty", ErrMalformedOutput)
	}
	if g.Title == "" {
		return fmt.Errorf("%w: missing title", ErrMalformedOutput)
	}
	if len(g.Steps) == 0 || len(g.Steps) > MaxSteps {
		return fmt.Errorf("%w: %d steps", ErrMalformedOutput, len(g.Steps))
	}
	for i, s := range g.Steps {
		if s.Title == "" || s.Instructions == "" {
			return fmt.Errorf("%w: step %d missing title or instructions", ErrMalformedOutput, i+1)
		}
	}
	return nil
}

type GenerateResult struct {
	Tutorial *learning.Tutorial        `json:"tutorial"`
	Content  *learning.TutorialContent `json:"content"`
}
