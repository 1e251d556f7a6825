package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/http/response"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/modules/tutorial"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/observability"
)

type TutorialService interface {
	Generate(ctx context.Context, commitID string) (*tutorial.GenerateResult, error)
	Get(ctx context.Context, tutorialID string) (*tutorial.GenerateResult, error)
	ListForCommit(ctx context.Context, commitID string) ([]*learning.Tutorial, error)
}

type TutorialHandler struct {
	tutorials TutorialService
	metrics   *observability.Metrics
}

func NewTutorialHandler(tutorials TutorialService, metrics *observability.Metrics) *TutorialHandler {
	return &TutorialHandler{tutorials: tutorials, metrics: metrics}
}

// POST /api/repositories/:owner/:name/commits/:sha/tutorials
func (h *TutorialHandler) Generate(c *gin.Context) {
	id, ok := commitIDParam(c)
	if !ok {
		return
	}
	start := time.Now()
	res, err := h.tutorials.Generate(c.Request.Context(), id.String())
	if err != nil {
		h.metrics.ObserveTutorial("", false, time.Since(start))
		response.RespondErr(c, err)
		return
	}
	h.metrics.ObserveTutorial(string(res.Tutorial.Source), true, time.Since(start))
	response.RespondCreated(c, res)
}

// GET /api/repositories/:owner/:name/commits/:sha/tutorials
func (h *TutorialHandler) ListForCommit(c *gin.Context) {
	id, ok := commitIDParam(c)
	if !ok {
		return
	}
	out, err := h.tutorials.ListForCommit(c.Request.Context(), id.String())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tutorials": out})
}

// GET /api/tutorials/:tutorial_id
func (h *TutorialHandler) Get(c *gin.Context) {
	res, err := h.tutorials.Get(c.Request.Context(), c.Param("tutorial_id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
