package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/http/response"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/modules/tutorial"
)

type SessionService interface {
	Start(ctx context.Context, tutorialID string) (*learning.LearnerSession, error)
	View(ctx context.Context, sessionID string) (*tutorial.SessionView, error)
	State(ctx context.Context, sessionID string) (*learning.QuickState, error)
	NextStep(ctx context.Context, sessionID string) (*learning.LearnerSession, error)
	PreviousStep(ctx context.Context, sessionID string) (*learning.LearnerSession, error)
	Complete(ctx context.Context, sessionID string) (*learning.LearnerSession, error)
}

type WorkspaceService interface {
	Materialize(ctx context.Context, owner, repo, sha, workspaceID string) ([]*learning.FileNode, error)
	MaterializeForSession(ctx context.Context, sessionID, stepID string) (*learning.Snapshot, error)
}

type MemoryStore interface {
	AppendMemory(ctx context.Context, sessionID string, entry learning.MemoryEntry) error
	GetMemory(ctx context.Context, sessionID string) ([]learning.MemoryEntry, error)
}

type SessionHandler struct {
	sessions  SessionService
	workspace WorkspaceService
	memory    MemoryStore
}

func NewSessionHandler(sessions SessionService, workspace WorkspaceService, memory MemoryStore) *SessionHandler {
	return &SessionHandler{sessions: sessions, workspace: workspace, memory: memory}
}

// POST /api/tutorials/:tutorial_id/sessions
func (h *SessionHandler) Start(c *gin.Context) {
	sess, err := h.sessions.Start(c.Request.Context(), c.Param("tutorial_id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"session": sess})
}

// GET /api/sessions/:session_id
func (h *SessionHandler) Get(c *gin.Context) {
	view, err := h.sessions.View(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/sessions/:session_id/state
func (h *SessionHandler) State(c *gin.Context) {
	st, err := h.sessions.State(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"state": st})
}

// POST /api/sessions/:session_id/next
func (h *SessionHandler) Next(c *gin.Context) {
	h.move(c, h.sessions.NextStep)
}

// POST /api/sessions/:session_id/previous
func (h *SessionHandler) Previous(c *gin.Context) {
	h.move(c, h.sessions.PreviousStep)
}

// POST /api/sessions/:session_id/complete
func (h *SessionHandler) Complete(c *gin.Context) {
	h.move(c, h.sessions.Complete)
}

func (h *SessionHandler) move(c *gin.Context, fn func(context.Context, string) (*learning.LearnerSession, error)) {
	sess, err := fn(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": sess})
}

// POST /api/sessions/:session_id/workspace
func (h *SessionHandler) Workspace(c *gin.Context) {
	var req struct {
		StepID string `json:"step_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	snap, err := h.workspace.MaterializeForSession(c.Request.Context(), c.Param("session_id"), req.StepID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"snapshot": snap})
}

type materializeRequest struct {
	Owner       string `json:"owner" binding:"required"`
	Repo        string `json:"repo" binding:"required"`
	SHA         string `json:"sha" binding:"required"`
	WorkspaceID string `json:"workspace_id" binding:"required"`
}

// POST /api/workspaces
func (h *SessionHandler) Materialize(c *gin.Context) {
	var req materializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	files, err := h.workspace.Materialize(c.Request.Context(), req.Owner, req.Repo, req.SHA, req.WorkspaceID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"workspace_id": req.WorkspaceID, "files": files})
}

// GET /api/sessions/:session_id/memory
func (h *SessionHandler) Memory(c *gin.Context) {
	entries, err := h.memory.GetMemory(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": entries})
}

var memoryRoles = map[string]bool{"user": true, "assistant": true, "system": true}

// POST /api/sessions/:session_id/memory
func (h *SessionHandler) AppendMemory(c *gin.Context) {
	var req struct {
		Role    string `json:"role" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !memoryRoles[role] {
		response.RespondError(c, http.StatusBadRequest, "invalid_role", errInvalidRole(req.Role))
		return
	}
	ctx := c.Request.Context()
	sessionID := c.Param("session_id")
	if _, err := h.sessions.State(ctx, sessionID); err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := h.memory.AppendMemory(ctx, sessionID, learning.MemoryEntry{Role: role, Content: req.Content}); err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
