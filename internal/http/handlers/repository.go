package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/repos"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/http/response"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/modules/ingestion"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/observability"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/apierr"
)

type Ingestor interface {
	Ingest(ctx context.Context, url string, opts ingestion.IngestOptions) (*ingestion.IngestionResult, error)
	Refresh(ctx context.Context, repoID string, opts ingestion.IngestOptions) (*ingestion.RefreshResult, error)
}

type RepositoryStore interface {
	GetRepository(ctx context.Context, id string) (*codebase.Repository, error)
	ListRepositories(ctx context.Context, limit, offset int) ([]*codebase.Repository, error)
	GetAnalysisStatus(ctx context.Context, repoID string) (*codebase.AnalysisStatus, error)
	CountCommits(ctx context.Context, repoID string) (int64, error)
	ListCommits(ctx context.Context, repoID string, filter repos.CommitFilter) ([]*codebase.Commit, error)
	GetCommit(ctx context.Context, id codebase.CommitID) (*codebase.Commit, error)
	GetDiff(ctx context.Context, id codebase.CommitID) (*codebase.CommitDiff, error)
}

type RepositoryHandler struct {
	ingest  Ingestor
	store   RepositoryStore
	metrics *observability.Metrics
}

func NewRepositoryHandler(ingest Ingestor, store RepositoryStore, metrics *observability.Metrics) *RepositoryHandler {
	return &RepositoryHandler{ingest: ingest, store: store, metrics: metrics}
}

type ingestRequest struct {
	URL         string `json:"url" binding:"required"`
	Branch      string `json:"branch"`
	CommitLimit int    `json:"commit_limit"`
}

// POST /api/repositories
func (h *RepositoryHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	start := time.Now()
	res, err := h.ingest.Ingest(c.Request.Context(), req.URL, ingestion.IngestOptions{Branch: req.Branch, CommitLimit: req.CommitLimit})
	if err != nil {
		h.metrics.ObserveIngest("ingest", false, 0, 0, time.Since(start))
		response.RespondErr(c, err)
		return
	}
	h.metrics.ObserveIngest("ingest", true, len(res.Commits), len(res.Errors), time.Since(start))
	response.RespondCreated(c, res)
}

// GET /api/repositories
func (h *RepositoryHandler) List(c *gin.Context) {
	limit, offset := paging(c)
	out, err := h.store.ListRepositories(c.Request.Context(), limit, offset)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"repositories": out})
}

// GET /api/repositories/:owner/:name
func (h *RepositoryHandler) Get(c *gin.Context) {
	repo, ok := h.loadRepo(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	status, err := h.store.GetAnalysisStatus(ctx, repo.ID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	count, err := h.store.CountCommits(ctx, repo.ID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"repository": repo, "status": status, "commit_count": count})
}

// GET /api/repositories/:owner/:name/status
func (h *RepositoryHandler) Status(c *gin.Context) {
	repoID := codebase.RepoID(c.Param("owner"), c.Param("name"))
	status, err := h.store.GetAnalysisStatus(c.Request.Context(), repoID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if status == nil {
		response.RespondError(c, http.StatusNotFound, "status_not_found", errNoStatus)
		return
	}
	response.RespondOK(c, gin.H{"status": status})
}

// POST /api/repositories/:owner/:name/refresh
func (h *RepositoryHandler) Refresh(c *gin.Context) {
	var req struct {
		Branch      string `json:"branch"`
		CommitLimit int    `json:"commit_limit"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	repoID := codebase.RepoID(c.Param("owner"), c.Param("name"))
	start := time.Now()
	res, err := h.ingest.Refresh(c.Request.Context(), repoID, ingestion.IngestOptions{Branch: req.Branch, CommitLimit: req.CommitLimit})
	if err != nil {
		h.metrics.ObserveIngest("refresh", false, 0, 0, time.Since(start))
		response.RespondErr(c, err)
		return
	}
	h.metrics.ObserveIngest("refresh", true, len(res.NewCommits), len(res.Errors), time.Since(start))
	response.RespondOK(c, res)
}

// GET /api/repositories/:owner/:name/commits
func (h *RepositoryHandler) ListCommits(c *gin.Context) {
	repo, ok := h.loadRepo(c)
	if !ok {
		return
	}
	limit, offset := paging(c)
	worthy, _ := strconv.ParseBool(c.Query("learning"))
	commits, err := h.store.ListCommits(c.Request.Context(), repo.ID, repos.CommitFilter{
		WorthyOnly: worthy,
		Category:   c.Query("category"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"commits": commits})
}

// GET /api/repositories/:owner/:name/commits/:sha
func (h *RepositoryHandler) GetCommit(c *gin.Context) {
	id, ok := commitIDParam(c)
	if !ok {
		return
	}
	commit, err := h.store.GetCommit(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if commit == nil {
		response.RespondErr(c, apierr.NotFound("commit_not_found", errCommitMissing(id)))
		return
	}
	response.RespondOK(c, gin.H{"commit": commit})
}

// GET /api/repositories/:owner/:name/commits/:sha/diff
func (h *RepositoryHandler) GetDiff(c *gin.Context) {
	id, ok := commitIDParam(c)
	if !ok {
		return
	}
	diff, err := h.store.GetDiff(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if diff == nil {
		response.RespondErr(c, apierr.NotFound("diff_not_found", errCommitMissing(id)))
		return
	}
	response.RespondOK(c, gin.H{"diff": diff})
}

func (h *RepositoryHandler) loadRepo(c *gin.Context) (*codebase.Repository, bool) {
	repoID := codebase.RepoID(c.Param("owner"), c.Param("name"))
	repo, err := h.store.GetRepository(c.Request.Context(), repoID)
	if err != nil {
		response.RespondErr(c, err)
		return nil, false
	}
	if repo == nil {
		response.RespondErr(c, apierr.NotFound("repository_not_found", errRepoMissing(repoID)))
		return nil, false
	}
	return repo, true
}
