package analyses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"repo-analyzer-client/internal/analyzer"
	"repo-analyzer-client/internal/shared/server/middleware"
	"repo-analyzer-client/internal/shared/server/respond"
)

// AnalyzeRequest is the body accepted by the JSON and form endpoints.
type AnalyzeRequest struct {
	RepoURL string `json:"repo_url" form:"repo_url" binding:"required,github_repo"`
	Focus   string `json:"focus" form:"focus" binding:"omitempty,focus"`
}

// Envelope mirrors the backend's analyze response.
type Envelope struct {
	Success bool             `json:"success"`
	Data    *analyzer.Result `json:"data"`
	Message string           `json:"message,omitempty"`
}

// Handler exposes the analysis flow as a JSON API.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRouter) {
	rg.POST("/analyze", h.analyze)
	rg.GET("/analysis", h.current)
}

func (h *Handler) analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		details := FieldErrors(err)
		respond.Error(c, http.StatusBadRequest, "validation_error", BindingMessage(details), details)
		return
	}
	c.Set("repoUrl", req.RepoURL)
	c.Set("focus", req.Focus)

	sess, err := h.Svc.Analyze(c.Request.Context(), middleware.SessionIDFromContext(c), req.RepoURL, req.Focus)
	switch {
	case err == nil:
		c.Set("outcome", "completed")
		respond.OK(c, Envelope{Success: true, Data: sess.Result, Message: "Analysis completed"})
	case errors.Is(err, ErrEmptyRepoURL), errors.Is(err, ErrInvalidRepoURL), errors.Is(err, ErrInvalidFocus):
		respond.Error(c, http.StatusBadRequest, "validation_error", UserMessage(err), nil)
	case errors.Is(err, ErrBusy):
		c.Set("outcome", "rejected")
		respond.Error(c, http.StatusConflict, "analysis_in_progress", MsgBusy, nil)
	case errors.Is(err, ErrAnalysisFailed):
		c.Set("outcome", "failed")
		respond.JSON(c, http.StatusBadGateway, Envelope{Success: false, Message: UserMessage(err)})
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", MsgAnalysisFailed, nil)
	}
}

func (h *Handler) current(c *gin.Context) {
	sess, err := h.Svc.Current(c.Request.Context(), middleware.SessionIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load session", nil)
		return
	}
	if !sess.HasResult() {
		respond.Error(c, http.StatusNotFound, "not_found", "no analysis in this session", nil)
		return
	}
	respond.OK(c, gin.H{
		"repoUrl":   sess.RepoURL,
		"focus":     sess.Focus,
		"activeTab": sess.ActiveTab,
		"result":    sess.Result,
		"lastError": sess.LastError,
	})
}
