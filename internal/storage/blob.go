package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
)

const jsonContentType = "application/json"

func (f *Facade) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return f.blob.Put(ctx, key, raw, jsonContentType)
}

func (f *Facade) getBlobJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, err := f.blob.Get(ctx, key)
	if perrors.Is(err, perrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// PutDiff replaces the stored diff for the commit wholesale.
func (f *Facade) PutDiff(ctx context.Context, diff *codebase.CommitDiff) error {
	if diff.StoredAt.IsZero() {
		diff.StoredAt = f.now()
	}
	return f.putJSON(ctx, DiffPath(diff.RepoID, diff.SHA), diff)
}

func (f *Facade) GetDiff(ctx context.Context, id codebase.CommitID) (*codebase.CommitDiff, error) {
	var diff codebase.CommitDiff
	found, err := f.getBlobJSON(ctx, DiffPath(id.RepoID, id.SHA), &diff)
	if err != nil || !found {
		return nil, err
	}
	return &diff, nil
}

// PutTutorialContent writes the content blob and warms the KV cache. A cache
// failure is logged, not returned.
func (f *Facade) PutTutorialContent(ctx context.Context, content *learning.TutorialContent) error {
	if err := f.putJSON(ctx, TutorialContentPath(content.TutorialID), content); err != nil {
		return err
	}
	if err := f.setJSON(ctx, TutorialKey(content.TutorialID), content, TutorialTTL); err != nil {
		f.log.Warn("Tutorial cache write failed", "tutorial_id", content.TutorialID, "error", err)
	}
	return nil
}

// GetTutorialContent reads through the KV cache to the blob store.
func (f *Facade) GetTutorialContent(ctx context.Context, tutorialID string) (*learning.TutorialContent, error) {
	var content learning.TutorialContent
	if found, err := f.getJSON(ctx, TutorialKey(tutorialID), &content); err == nil && found {
		return &content, nil
	} else if err != nil {
		f.log.Warn("Tutorial cache read failed", "tutorial_id", tutorialID, "error", err)
	}
	found, err := f.getBlobJSON(ctx, TutorialContentPath(tutorialID), &content)
	if err != nil || !found {
		return nil, err
	}
	if err := f.setJSON(ctx, TutorialKey(tutorialID), &content, TutorialTTL); err != nil {
		f.log.Warn("Tutorial cache write failed", "tutorial_id", tutorialID, "error", err)
	}
	return &content, nil
}

func (f *Facade) PutArtifact(ctx context.Context, tutorialID, stepID, filename string, data []byte) error {
	return f.blob.Put(ctx, ArtifactPath(tutorialID, stepID, filename), data, "")
}

// GetArtifact returns nil data for a missing artifact.
func (f *Facade) GetArtifact(ctx context.Context, tutorialID, stepID, filename string) ([]byte, error) {
	raw, err := f.blob.Get(ctx, ArtifactPath(tutorialID, stepID, filename))
	if perrors.Is(err, perrors.ErrNotFound) {
		return nil, nil
	}
	return raw, err
}

func (f *Facade) ListArtifacts(ctx context.Context, tutorialID string) ([]string, error) {
	return f.blob.List(ctx, TutorialPrefix(tutorialID)+"artifacts/")
}

func (f *Facade) PutRepoSnapshot(ctx context.Context, branch string, snap *learning.Snapshot) error {
	return f.putJSON(ctx, RepoSnapshotPath(snap.RepoID, branch, snap.SHA), snap)
}

func (f *Facade) GetRepoSnapshot(ctx context.Context, repoID, branch, sha string) (*learning.Snapshot, error) {
	var snap learning.Snapshot
	found, err := f.getBlobJSON(ctx, RepoSnapshotPath(repoID, branch, sha), &snap)
	if err != nil || !found {
		return nil, err
	}
	return &snap, nil
}

// PutWorkspaceSnapshot overwrites sessions/{workspaceID}/workspace/{name}.json.
func (f *Facade) PutWorkspaceSnapshot(ctx context.Context, name string, snap *learning.Snapshot) error {
	return f.putJSON(ctx, WorkspacePath(snap.WorkspaceID, name), snap)
}

func (f *Facade) GetWorkspaceSnapshot(ctx context.Context, workspaceID, name string) (*learning.Snapshot, error) {
	var snap learning.Snapshot
	found, err := f.getBlobJSON(ctx, WorkspacePath(workspaceID, name), &snap)
	if err != nil || !found {
		return nil, err
	}
	return &snap, nil
}
