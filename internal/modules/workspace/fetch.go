package workspace

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/github"
)

// Source is the part of github.Client needed to read a tree.
type Source interface {
	GetTree(ctx context.Context, owner, name, ref string) ([]github.TreeEntry, error)
	GetFileContent(ctx context.Context, owner, name, path, ref string) (string, error)
}

// FileResult is the outcome of fetching one file. Exactly one of Content and
// Err is meaningful.
type FileResult struct {
	Path    string
	Size    int64
	Content string
	Err     error
}

// Text returns the content, or a placeholder comment when the fetch failed.
func (r FileResult) Text() string {
	if r.Err != nil {
		return Placeholder(r.Path, r.Err)
	}
	return r.Content
}

func Placeholder(path string, err error) string {
	return fmt.Sprintf("// Content for %s could not be loaded: %v", path, err)
}

// FetchFiles fetches every entry at ref. Failures never abort the batch;
// they are carried on the matching FileResult. Results keep entry order.
func FetchFiles(ctx context.Context, src Source, owner, name, ref string, entries []github.TreeEntry, concurrency int) []FileResult {
	out := make([]FileResult, len(entries))
	if concurrency < 1 {
		concurrency = 1
	}
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, e := range entries {
		g.Go(func() error {
			res := FileResult{Path: e.Path, Size: e.Size}
			if err := ctx.Err(); err != nil {
				res.Err = err
			} else {
				res.Content, res.Err = src.GetFileContent(ctx, owner, name, e.Path, ref)
			}
			out[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return out
}
