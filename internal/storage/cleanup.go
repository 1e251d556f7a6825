package storage

import (
	"context"
	"fmt"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/dbctx"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/vector"
)

// Cleanup operations are not transactional. They stop at the first failure
// and return it; deletes already applied stay applied.

// CleanupSessionData removes a session's workspace blobs, its KV state and
// memory, then the session row.
func (f *Facade) CleanupSessionData(ctx context.Context, sessionID string) error {
	steps := []cleanupStep{
		{"blob", func() error { return f.blob.DeletePrefix(ctx, SessionPrefix(sessionID)) }},
		{"kv", func() error { return f.kv.Delete(ctx, SessionKey(sessionID), MemoryKey(sessionID)) }},
		{"relational", func() error { return f.rel.Sessions.Delete(dbctx.New(ctx), sessionID) }},
	}
	return f.runCleanup(ctx, "session", sessionID, steps)
}

// CleanupTutorialData removes the tutorial's sessions, blobs, vector, cache
// entry and row.
func (f *Facade) CleanupTutorialData(ctx context.Context, tutorialID string) error {
	steps := []cleanupStep{
		{"sessions", func() error { return f.cleanupSessionsOf(ctx, []string{tutorialID}) }},
		{"blob", func() error { return f.blob.DeletePrefix(ctx, TutorialPrefix(tutorialID)) }},
		{"vector", func() error { return f.vec.DeleteIDs(ctx, VectorNamespace, []string{TutorialVectorID(tutorialID)}) }},
		{"kv", func() error { return f.kv.Delete(ctx, TutorialKey(tutorialID)) }},
		{"relational", func() error { return f.rel.Tutorials.Delete(dbctx.New(ctx), tutorialID) }},
	}
	return f.runCleanup(ctx, "tutorial", tutorialID, steps)
}

// CleanupRepositoryData removes everything derived from a repository:
// tutorials and their sessions, diff and snapshot blobs, every vector tagged
// with the repo, status and metadata keys, then commit and repository rows.
func (f *Facade) CleanupRepositoryData(ctx context.Context, repoID string) error {
	var tutorialIDs []string
	steps := []cleanupStep{
		{"list tutorials", func() error {
			ids, err := f.rel.Tutorials.ListIDsByRepo(dbctx.New(ctx), repoID)
			tutorialIDs = ids
			return err
		}},
		{"sessions", func() error { return f.cleanupSessionsOf(ctx, tutorialIDs) }},
		{"tutorial blobs", func() error {
			for _, id := range tutorialIDs {
				if err := f.blob.DeletePrefix(ctx, TutorialPrefix(id)); err != nil {
					return err
				}
			}
			return nil
		}},
		{"repo blobs", func() error { return f.blob.DeletePrefix(ctx, RepoPrefix(repoID)) }},
		{"vector", func() error { return f.vec.DeleteByFilter(ctx, VectorNamespace, vector.Filter{"repo_id": repoID}) }},
		{"kv", func() error {
			keys := []string{AnalysisKey(repoID), RepoMetaKey(repoID)}
			for _, id := range tutorialIDs {
				keys = append(keys, TutorialKey(id))
			}
			return f.kv.Delete(ctx, keys...)
		}},
		{"tutorial rows", func() error { return f.rel.Tutorials.DeleteByRepo(dbctx.New(ctx), repoID) }},
		{"commit rows", func() error { return f.rel.Commits.DeleteByRepo(dbctx.New(ctx), repoID) }},
		{"repository row", func() error { return f.rel.Repositories.Delete(dbctx.New(ctx), repoID) }},
	}
	return f.runCleanup(ctx, "repository", repoID, steps)
}

func (f *Facade) cleanupSessionsOf(ctx context.Context, tutorialIDs []string) error {
	if len(tutorialIDs) == 0 {
		return nil
	}
	ids, err := f.rel.Sessions.ListIDsByTutorials(dbctx.New(ctx), tutorialIDs)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := f.CleanupSessionData(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

type cleanupStep struct {
	name string
	run  func() error
}

func (f *Facade) runCleanup(ctx context.Context, kind, id string, steps []cleanupStep) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.run(); err != nil {
			f.log.Error("Cleanup step failed", "kind", kind, "id", id, "step", s.name, "error", err)
			return fmt.Errorf("cleanup %s %s: %s: %w", kind, id, s.name, err)
		}
	}
	f.log.Info("Cleanup complete", "kind", kind, "id", id)
	return nil
}
