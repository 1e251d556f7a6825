package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/vector"
)

const (
	KindCommit   = "commit"
	KindCode     = "code"
	KindTutorial = "tutorial"

	maxEmbedChars     = 4000
	maxIndexedFiles   = 10
	defaultSimilarTop = 5
)

var ErrEmbedderDisabled = fmt.Errorf("embedding: %w", vector.ErrDisabled)

// UpsertVectors writes vectors in batches of vector.MaxBatch.
func (f *Facade) UpsertVectors(ctx context.Context, vs []vector.Vector) error {
	for _, batch := range vector.Batches(vs, vector.MaxBatch) {
		if err := f.vec.Upsert(ctx, VectorNamespace, batch); err != nil {
			return err
		}
	}
	return nil
}

func (f *Facade) QuerySimilar(ctx context.Context, q []float32, topK int, filter vector.Filter) ([]vector.Match, error) {
	if topK <= 0 {
		topK = defaultSimilarTop
	}
	return f.vec.Query(ctx, VectorNamespace, q, topK, filter)
}

// GetVector returns nil when id is not indexed.
func (f *Facade) GetVector(ctx context.Context, id string) (*vector.Vector, error) {
	vs, err := f.vec.Fetch(ctx, VectorNamespace, []string{id})
	if err != nil {
		return nil, err
	}
	for i := range vs {
		if vs[i].ID == id {
			return &vs[i], nil
		}
	}
	return nil, nil
}

// FindSimilarCommitsToCommit returns the commits nearest to id, never id
// itself. An unindexed commit yields no matches.
func (f *Facade) FindSimilarCommitsToCommit(ctx context.Context, id codebase.CommitID, topK int) ([]vector.Match, error) {
	return f.similarTo(ctx, CommitVectorID(id), KindCommit, topK)
}

// FindRelatedCodePatterns returns the code vectors nearest to the indexed
// file at repoID/path, excluding that file.
func (f *Facade) FindRelatedCodePatterns(ctx context.Context, repoID, path string, topK int) ([]vector.Match, error) {
	return f.similarTo(ctx, CodeVectorID(repoID, path), KindCode, topK)
}

func (f *Facade) similarTo(ctx context.Context, selfID, kind string, topK int) ([]vector.Match, error) {
	if topK <= 0 {
		topK = defaultSimilarTop
	}
	self, err := f.GetVector(ctx, selfID)
	if err != nil {
		return nil, err
	}
	if self == nil {
		return []vector.Match{}, nil
	}
	matches, err := f.QuerySimilar(ctx, self.Values, topK+1, vector.Filter{"type": kind})
	if err != nil {
		return nil, err
	}
	return excludeID(matches, selfID, topK), nil
}

func excludeID(matches []vector.Match, id string, topK int) []vector.Match {
	out := make([]vector.Match, 0, len(matches))
	for _, m := range matches {
		if m.ID == id {
			continue
		}
		out = append(out, m)
		if len(out) == topK {
			break
		}
	}
	return out
}

// SearchText embeds text and queries the index, optionally restricted to one
// kind and one repository.
func (f *Facade) SearchText(ctx context.Context, text, kind, repoID string, topK int) ([]vector.Match, error) {
	if f.embedder == nil {
		return nil, ErrEmbedderDisabled
	}
	vecs, err := f.embedder.Embed(ctx, []string{clip(text)})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	filter := vector.Filter{}
	if kind != "" {
		filter["type"] = kind
	}
	if repoID != "" {
		filter["repo_id"] = repoID
	}
	return f.QuerySimilar(ctx, vecs[0], topK, filter)
}

// IndexCommit embeds the commit summary and up to maxIndexedFiles patches.
// It is a no-op without an embedder.
func (f *Facade) IndexCommit(ctx context.Context, c *codebase.Commit, files []codebase.FileChange) error {
	if f.embedder == nil {
		return nil
	}
	id := codebase.CommitID{RepoID: c.RepoID, SHA: c.SHA}

	texts := []string{commitText(c, files)}
	vs := []vector.Vector{{
		ID: CommitVectorID(id),
		Metadata: map[string]any{
			"type":      KindCommit,
			"repo_id":   c.RepoID,
			"commit_id": c.ID,
			"category":  string(c.Category),
		},
	}}
	for _, fc := range files {
		if len(vs)-1 >= maxIndexedFiles {
			break
		}
		if fc.Status == codebase.FileRemoved || strings.TrimSpace(fc.Patch) == "" {
			continue
		}
		texts = append(texts, fc.Filename+"\n"+fc.Patch)
		vs = append(vs, vector.Vector{
			ID: CodeVectorID(c.RepoID, fc.Filename),
			Metadata: map[string]any{
				"type":      KindCode,
				"repo_id":   c.RepoID,
				"commit_id": c.ID,
				"path":      fc.Filename,
			},
		})
	}
	return f.embedAndUpsert(ctx, texts, vs)
}

// IndexTutorial embeds the tutorial title, description and step titles.
func (f *Facade) IndexTutorial(ctx context.Context, t *learning.Tutorial, content *learning.TutorialContent) error {
	if f.embedder == nil {
		return nil
	}
	var b strings.Builder
	b.WriteString(t.Title)
	b.WriteString("\n")
	b.WriteString(t.Description)
	for _, s := range content.Steps {
		b.WriteString("\n- ")
		b.WriteString(s.Title)
	}
	return f.embedAndUpsert(ctx, []string{b.String()}, []vector.Vector{{
		ID: TutorialVectorID(t.ID),
		Metadata: map[string]any{
			"type":        KindTutorial,
			"repo_id":     t.RepoID,
			"commit_id":   t.CommitID,
			"tutorial_id": t.ID,
		},
	}})
}

func (f *Facade) embedAndUpsert(ctx context.Context, texts []string, vs []vector.Vector) error {
	for i := range texts {
		texts[i] = clip(texts[i])
	}
	embeddings, err := f.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(embeddings) != len(vs) {
		return fmt.Errorf("embed: want %d vectors got %d", len(vs), len(embeddings))
	}
	for i := range vs {
		vs[i].Values = embeddings[i]
	}
	return f.UpsertVectors(ctx, vs)
}

func commitText(c *codebase.Commit, files []codebase.FileChange) string {
	var b strings.Builder
	b.WriteString(c.Message)
	b.WriteString("\n\nFiles:")
	for _, fc := range files {
		b.WriteString("\n")
		b.WriteString(string(fc.Status))
		b.WriteString(" ")
		b.WriteString(fc.Filename)
	}
	return b.String()
}

func clip(s string) string {
	if len(s) <= maxEmbedChars {
		return s
	}
	return strings.ToValidUTF8(s[:maxEmbedChars], "")
}
