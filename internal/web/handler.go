package web

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"repo-analyzer-client/internal/analyses"
	"repo-analyzer-client/internal/analyzer"
	"repo-analyzer-client/internal/chat"
	"repo-analyzer-client/internal/exports"
	"repo-analyzer-client/internal/sessions"
	"repo-analyzer-client/internal/shared/server/middleware"
	"repo-analyzer-client/internal/shared/telemetry"
)

// Handler serves the browser UI. Pages are rendered server side from the
// session's view state; every form posts back and redirects.
type Handler struct {
	Analyses *analyses.Service
	Chat     *chat.Service
	Exports  *exports.Service
}

type page struct {
	Title     string
	Error     string
	RepoURL   string
	Focus     string
	Focuses   []string
	HasResult bool
	Result    *analyzer.Result
	Tab       string
	Tabs      []string
	Messages  []analyzer.ChatMessage
	Formats   []string
	Exports   []exports.Export
}

// RegisterRoutes attaches the UI routes.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.index)
	r.POST("/analyze", h.analyze)
	r.GET("/results", h.results)
	r.POST("/chat", h.ask)
	r.POST("/export/:format", h.export)
	r.POST("/reset", h.reset)
}

func (h *Handler) index(c *gin.Context) {
	sess, err := h.Analyses.Current(c.Request.Context(), middleware.SessionIDFromContext(c))
	if err != nil {
		h.internalError(c, err)
		return
	}
	h.renderIndex(c, http.StatusOK, sess, sess.RepoURL, sess.Focus, sess.LastError)
}

func (h *Handler) analyze(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := middleware.SessionIDFromContext(c)

	var req analyses.AnalyzeRequest
	if err := c.ShouldBind(&req); err != nil {
		sess, loadErr := h.Analyses.Current(ctx, sessionID)
		if loadErr != nil {
			h.internalError(c, loadErr)
			return
		}
		msg := analyses.BindingMessage(analyses.FieldErrors(err))
		h.renderIndex(c, http.StatusBadRequest, sess, req.RepoURL, req.Focus, msg)
		return
	}
	c.Set("repoUrl", req.RepoURL)
	c.Set("focus", req.Focus)

	sess, err := h.Analyses.Analyze(ctx, sessionID, req.RepoURL, req.Focus)
	switch {
	case err == nil:
		c.Set("outcome", "completed")
		c.Redirect(http.StatusSeeOther, "/results")
		return
	case errors.Is(err, analyses.ErrBusy):
		c.Set("outcome", "rejected")
		sess, _ = h.Analyses.Current(ctx, sessionID)
		h.renderIndex(c, http.StatusConflict, sess, req.RepoURL, req.Focus, analyses.MsgBusy)
	case errors.Is(err, analyses.ErrAnalysisFailed):
		c.Set("outcome", "failed")
		h.renderIndex(c, http.StatusBadGateway, sess, req.RepoURL, req.Focus, analyses.UserMessage(err))
	case errors.Is(err, analyses.ErrInvalidRepoURL), errors.Is(err, analyses.ErrEmptyRepoURL), errors.Is(err, analyses.ErrInvalidFocus):
		sess, _ = h.Analyses.Current(ctx, sessionID)
		h.renderIndex(c, http.StatusBadRequest, sess, req.RepoURL, req.Focus, analyses.UserMessage(err))
	default:
		h.internalError(c, err)
	}
}

func (h *Handler) results(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := middleware.SessionIDFromContext(c)

	var (
		sess sessions.Session
		err  error
	)
	if tab, ok := c.GetQuery("tab"); ok {
		c.Set("tab", tab)
		sess, err = h.Analyses.SelectTab(ctx, sessionID, tab)
	} else {
		sess, err = h.Analyses.Current(ctx, sessionID)
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !sess.HasResult() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	h.renderResults(c, http.StatusOK, sess, "")
}

func (h *Handler) ask(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	_, err := h.Chat.Ask(c.Request.Context(), sessionID, c.PostForm("question"))
	switch {
	case err == nil, errors.Is(err, chat.ErrEmptyQuestion), errors.Is(err, chat.ErrAnalysisChanged):
	case errors.Is(err, chat.ErrNoAnalysis):
		c.Redirect(http.StatusSeeOther, "/")
		return
	case errors.Is(err, chat.ErrBackend):
		// The error reply is already in the transcript.
		c.Set("outcome", "failed")
	default:
		h.internalError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/results#chat")
}

func (h *Handler) export(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := middleware.SessionIDFromContext(c)

	format, err := exports.ParseFormat(c.Param("format"))
	if err != nil {
		c.String(http.StatusBadRequest, "unsupported export format")
		return
	}
	c.Set("exportFormat", format)

	export, err := h.Exports.Export(ctx, sessionID, format)
	if err == nil {
		c.Set("exportId", export.ID)
		c.Redirect(http.StatusSeeOther, exports.DownloadPath(export.ID))
		return
	}
	if errors.Is(err, exports.ErrNoAnalysis) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.Set("outcome", "failed")
	sess, loadErr := h.Analyses.Current(ctx, sessionID)
	if loadErr != nil {
		h.internalError(c, loadErr)
		return
	}
	status := http.StatusBadGateway
	if !errors.Is(err, exports.ErrExportFailed) {
		status = http.StatusInternalServerError
		c.Error(err)
	}
	h.renderResults(c, status, sess, exports.FailureMessage(format))
}

func (h *Handler) reset(c *gin.Context) {
	if err := h.Analyses.Reset(c.Request.Context(), middleware.SessionIDFromContext(c)); err != nil {
		h.internalError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) renderIndex(c *gin.Context, status int, sess sessions.Session, repoURL, focus, msg string) {
	if focus == "" {
		focus = analyzer.FocusAll
	}
	c.HTML(status, "index.html", page{
		Error:     msg,
		RepoURL:   repoURL,
		Focus:     focus,
		Focuses:   analyzer.Focuses,
		HasResult: sess.HasResult(),
	})
}

func (h *Handler) renderResults(c *gin.Context, status int, sess sessions.Session, msg string) {
	list, err := h.Exports.List(c.Request.Context(), sess.ID)
	if err != nil {
		telemetry.Warn("web.list_exports_failed", map[string]any{
			"session_id": sess.ID,
			"error":      err,
		})
	}
	if msg == "" {
		msg = sess.LastError
	}
	c.HTML(status, "results.html", page{
		Title:    sess.Result.FullName(),
		Error:    msg,
		RepoURL:  sess.RepoURL,
		Focus:    sess.Focus,
		Result:   sess.Result,
		Tab:      sessions.NormalizeTab(sess.ActiveTab),
		Tabs:     sessions.Tabs,
		Messages: sess.Messages,
		Formats:  exports.Formats,
		Exports:  list,
	})
}

// RateLimited renders the page the form was posted from with a wait message,
// so browsers see the UI instead of a JSON error body.
func (h *Handler) RateLimited(c *gin.Context, wait time.Duration) {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	msg := fmt.Sprintf("Too many requests. Please wait %d seconds and try again.", secs)

	sess, err := h.Analyses.Current(c.Request.Context(), middleware.SessionIDFromContext(c))
	if err != nil {
		h.internalError(c, err)
		return
	}
	if c.FullPath() != "/analyze" && sess.HasResult() {
		h.renderResults(c, http.StatusTooManyRequests, sess, msg)
		return
	}
	h.renderIndex(c, http.StatusTooManyRequests, sess, c.PostForm("repo_url"), c.PostForm("focus"), msg)
}

func (h *Handler) internalError(c *gin.Context, err error) {
	c.Error(err)
	c.HTML(http.StatusInternalServerError, "index.html", page{
		Error:   "Something went wrong. Please try again.",
		Focus:   analyzer.FocusAll,
		Focuses: analyzer.Focuses,
	})
}
