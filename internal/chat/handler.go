package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"repo-analyzer-client/internal/analyzer"
	"repo-analyzer-client/internal/shared/server/middleware"
	"repo-analyzer-client/internal/shared/server/respond"
)

type askRequest struct {
	Question string `json:"question" form:"question" binding:"required"`
}

type askResponse struct {
	Answer   string                 `json:"answer"`
	Messages []analyzer.ChatMessage `json:"messages"`
}

// Handler exposes the chat as a JSON API.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRouter) {
	rg.POST("/chat", h.ask)
	rg.GET("/chat", h.transcript)
}

func (h *Handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "question is required", nil)
		return
	}
	ex, err := h.Svc.Ask(c.Request.Context(), middleware.SessionIDFromContext(c), req.Question)
	switch {
	case err == nil:
		respond.OK(c, askResponse{Answer: ex.Answer.Content, Messages: ex.Messages})
	case errors.Is(err, ErrEmptyQuestion):
		respond.Error(c, http.StatusBadRequest, "validation_error", "question is required", nil)
	case errors.Is(err, ErrNoAnalysis):
		respond.Error(c, http.StatusConflict, "no_analysis", "Analyze a repository before asking questions", nil)
	case errors.Is(err, ErrAnalysisChanged):
		respond.Error(c, http.StatusConflict, "analysis_changed", "The analysis changed while waiting for the answer. Please ask again.", nil)
	case errors.Is(err, ErrBackend):
		c.Set("outcome", "failed")
		respond.JSON(c, http.StatusBadGateway, askResponse{Answer: ex.Answer.Content, Messages: ex.Messages})
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", ErrorReply, nil)
	}
}

func (h *Handler) transcript(c *gin.Context) {
	messages, err := h.Svc.Transcript(c.Request.Context(), middleware.SessionIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load transcript", nil)
		return
	}
	respond.OK(c, gin.H{"messages": messages})
}
