package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/modules/classifier"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/github"
)

// processAll runs processCommit for every candidate. Results keep candidate
// order; failed commits are reported as "<sha>: <message>".
func (p *Pipeline) processAll(ctx context.Context, ref github.RepoRef, candidates []github.CommitRecord) ([]CommitSummary, []string) {
	slots := make([]*CommitSummary, len(candidates))
	var (
		mu   sync.Mutex
		errs []string
	)
	record := func(sha string, err error) {
		mu.Lock()
		errs = append(errs, fmt.Sprintf("%s: %s", sha, err.Error()))
		mu.Unlock()
	}

	if p.concurrency <= 1 {
		for i, c := range candidates {
			if err := ctx.Err(); err != nil {
				record(c.SHA, err)
				continue
			}
			s, err := p.processCommit(ctx, ref, c.SHA)
			if err != nil {
				record(c.SHA, err)
				continue
			}
			slots[i] = s
		}
	} else {
		var g errgroup.Group
		g.SetLimit(p.concurrency)
		for i, c := range candidates {
			g.Go(func() error {
				s, err := p.processCommit(ctx, ref, c.SHA)
				if err != nil {
					record(c.SHA, err)
					return nil
				}
				slots[i] = s
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make([]CommitSummary, 0, len(candidates))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, errs
}

// processCommit fetches, classifies and persists one commit. The commit row
// is written before the diff blob; vector indexing is best-effort.
func (p *Pipeline) processCommit(ctx context.Context, ref github.RepoRef, sha string) (*CommitSummary, error) {
	ctx, span := tracer.Start(ctx, "ingestion.processCommit")
	defer span.End()
	span.SetAttributes(attribute.String("repo.id", ref.ID()), attribute.String("commit.sha", sha))

	detail, err := p.source.GetCommit(ctx, ref.Owner, ref.Name, sha)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetch commit: %w", err)
	}
	id, err := codebase.NewCommitID(ref.ID(), detail.SHA)
	if err != nil {
		return nil, err
	}

	analysis := classifier.Classify(detail.Message, detail.Files)
	span.SetAttributes(
		attribute.Bool("commit.learning_worthy", analysis.IsLearningWorthy),
		attribute.String("commit.category", string(analysis.Category)),
	)

	row := &codebase.Commit{
		ID:               id.String(),
		RepoID:           id.RepoID,
		SHA:              id.SHA,
		Message:          detail.Message,
		Author:           detail.Author,
		AuthoredAt:       detail.AuthoredAt,
		IsLearningWorthy: analysis.IsLearningWorthy,
		Category:         string(analysis.Category),
		Reason:           analysis.Reason,
		LinesChanged:     analysis.LinesChanged,
		FilesChanged:     len(detail.Files),
		FileTypes:        fileTypesJSON(analysis.FileTypes),
		CreatedAt:        p.now(),
	}
	if err := p.store.CreateCommit(ctx, row); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("persist commit: %w", err)
	}

	if analysis.IsLearningWorthy && len(detail.Files) > 0 {
		diff := &codebase.CommitDiff{
			CommitID: id.String(),
			RepoID:   id.RepoID,
			SHA:      id.SHA,
			Files:    detail.Files,
			StoredAt: p.now(),
		}
		if err := p.store.PutDiff(ctx, diff); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("persist diff: %w", err)
		}
		if err := p.store.IndexCommit(ctx, row, detail.Files); err != nil {
			p.log.Warn("Vector indexing failed", "commit_id", id.String(), "error", err)
		}
	}

	return &CommitSummary{
		ID:         id.String(),
		SHA:        id.SHA,
		Message:    detail.Message,
		Author:     detail.Author,
		AuthoredAt: detail.AuthoredAt,
		Analysis:   analysis,
	}, nil
}

func fileTypesJSON(types []string) datatypes.JSON {
	if len(types) == 0 {
		return nil
	}
	raw, err := json.Marshal(types)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
