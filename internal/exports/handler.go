package exports

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"repo-analyzer-client/internal/shared/server/middleware"
	"repo-analyzer-client/internal/shared/server/respond"
	"repo-analyzer-client/internal/shared/storage/object"
	"repo-analyzer-client/internal/shared/telemetry"
)

// Handler exposes exports over HTTP.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the JSON API routes.
func (h *Handler) RegisterRoutes(rg gin.IRouter) {
	rg.POST("/export/:format", h.exportNow)
	rg.GET("/exports", h.list)
}

// RegisterDownload attaches the download route used by the web UI.
func (h *Handler) RegisterDownload(r gin.IRouter) {
	r.GET("/exports/:id/download", h.Download)
}

// DownloadPath is the URL of an export's download route.
func DownloadPath(id string) string {
	return "/exports/" + id + "/download"
}

// exportNow renders, archives and streams the export in one request.
func (h *Handler) exportNow(c *gin.Context) {
	format, err := ParseFormat(c.Param("format"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "unsupported_format", "format must be txt, docx or pdf", nil)
		return
	}
	c.Set("exportFormat", format)
	sessionID := middleware.SessionIDFromContext(c)

	export, err := h.Svc.Export(c.Request.Context(), sessionID, format)
	if err != nil {
		h.writeError(c, format, err)
		return
	}
	c.Set("exportId", export.ID)
	h.stream(c, sessionID, export.ID)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context(), middleware.SessionIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list exports", nil)
		return
	}
	respond.OK(c, gin.H{"exports": list})
}

// Download streams an archived export owned by the caller's session.
func (h *Handler) Download(c *gin.Context) {
	c.Set("exportId", c.Param("id"))
	h.stream(c, middleware.SessionIDFromContext(c), c.Param("id"))
}

func (h *Handler) stream(c *gin.Context, sessionID, id string) {
	export, rc, err := h.Svc.Open(c.Request.Context(), sessionID, id)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "export not found", nil)
		return
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "export belongs to another session", nil)
		return
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open export", nil)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", object.AttachmentDisposition(export.FileName))
	c.Header("X-Content-Type-Options", "nosniff")
	if export.SizeBytes > 0 {
		c.Header("Content-Length", fmt.Sprint(export.SizeBytes))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		telemetry.Warn("export.stream_failed", map[string]any{
			"export_id": id,
			"error":     err,
		})
	}
}

func (h *Handler) writeError(c *gin.Context, format string, err error) {
	switch {
	case errors.Is(err, ErrNoAnalysis):
		respond.Error(c, http.StatusConflict, "no_analysis", "Analyze a repository before exporting", nil)
	case errors.Is(err, ErrExportFailed):
		c.Set("outcome", "failed")
		respond.Error(c, http.StatusBadGateway, "export_failed", FailureMessage(format), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", FailureMessage(format), nil)
	}
}
