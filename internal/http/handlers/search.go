package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/http/response"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/vector"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage"
)

type SimilarityStore interface {
	CanEmbed() bool
	FindSimilarCommitsToCommit(ctx context.Context, id codebase.CommitID, topK int) ([]vector.Match, error)
	FindRelatedCodePatterns(ctx context.Context, repoID, path string, topK int) ([]vector.Match, error)
	SearchText(ctx context.Context, text, kind, repoID string, topK int) ([]vector.Match, error)
}

type SearchHandler struct {
	store SimilarityStore
}

func NewSearchHandler(store SimilarityStore) *SearchHandler {
	return &SearchHandler{store: store}
}

var (
	errQueryRequired = errors.New("query parameter q is required")
	errPathRequired  = errors.New("query parameter path is required")
	errBadKind       = errors.New("kind must be one of commit, code, tutorial")
)

// GET /api/repositories/:owner/:name/commits/:sha/similar
func (h *SearchHandler) SimilarCommits(c *gin.Context) {
	id, ok := commitIDParam(c)
	if !ok {
		return
	}
	matches, err := h.store.FindSimilarCommitsToCommit(c.Request.Context(), id, topK(c))
	h.respond(c, matches, err)
}

// GET /api/repositories/:owner/:name/code/similar?path=
func (h *SearchHandler) RelatedCode(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errPathRequired)
		return
	}
	repoID := codebase.RepoID(c.Param("owner"), c.Param("name"))
	matches, err := h.store.FindRelatedCodePatterns(c.Request.Context(), repoID, path, topK(c))
	h.respond(c, matches, err)
}

// GET /api/search?q=&kind=&repo_id=
func (h *SearchHandler) Search(c *gin.Context) {
	if !h.store.CanEmbed() {
		response.RespondError(c, http.StatusServiceUnavailable, "search_disabled", storage.ErrEmbedderDisabled)
		return
	}
	q := c.Query("q")
	if q == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errQueryRequired)
		return
	}
	kind := c.Query("kind")
	switch kind {
	case "", storage.KindCommit, storage.KindCode, storage.KindTutorial:
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errBadKind)
		return
	}
	matches, err := h.store.SearchText(c.Request.Context(), q, kind, c.Query("repo_id"), topK(c))
	h.respond(c, matches, err)
}

func (h *SearchHandler) respond(c *gin.Context, matches []vector.Match, err error) {
	if errors.Is(err, vector.ErrDisabled) {
		response.RespondError(c, http.StatusServiceUnavailable, "search_disabled", err)
		return
	}
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if matches == nil {
		matches = []vector.Match{}
	}
	response.RespondOK(c, gin.H{"matches": matches})
}
