package server

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"repo-analyzer-client/internal/analyses"
	"repo-analyzer-client/internal/chat"
	"repo-analyzer-client/internal/exports"
	"repo-analyzer-client/internal/services/health"
	"repo-analyzer-client/internal/shared/auth"
	"repo-analyzer-client/internal/shared/config"
	"repo-analyzer-client/internal/shared/metrics"
	"repo-analyzer-client/internal/shared/server/middleware"
	"repo-analyzer-client/internal/web"
)

// Rate limit groups.
const (
	GroupAnalyze = "ANALYZE"
	GroupChat    = "CHAT"
	GroupExport  = "EXPORT"
)

// RouterDeps are the handlers and settings the router is assembled from.
type RouterDeps struct {
	Config          config.Config
	Signer          *auth.Signer
	Templates       *template.Template
	Web             *web.Handler
	AnalysisHandler *analyses.Handler
	ChatHandler     *chat.Handler
	ExportHandler   *exports.Handler
	Health          *health.Service
	Limiter         *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if deps.Templates != nil {
		r.SetHTMLTemplate(deps.Templates)
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Session(deps.Signer, deps.Config.SecureCookies()),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				GroupAnalyze: middleware.PerMinute(deps.Config.AnalyzeRatePerMin),
				GroupChat:    middleware.PerMinute(deps.Config.ChatRatePerMin),
				GroupExport:  middleware.PerMinute(deps.Config.ExportRatePerMin),
			},
			GroupFor: rateLimitGroup,
			Limiter:  deps.Limiter,
			Reject:   pageRejecter(deps.Web),
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	if deps.Health != nil {
		deps.Health.RegisterRoutes(r, api)
	} else {
		r.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.RegisterRoutes(api)
	}
	if deps.ExportHandler != nil {
		deps.ExportHandler.RegisterRoutes(api)
		deps.ExportHandler.RegisterDownload(r)
	}
	if deps.Web != nil {
		deps.Web.RegisterRoutes(r)
	}

	return r
}

// rateLimitGroup maps the matched route to its rate limit group. Reads are
// not limited.
func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	switch c.FullPath() {
	case "/analyze", "/api/analyze":
		return GroupAnalyze
	case "/chat", "/api/chat":
		return GroupChat
	case "/export/:format", "/api/export/:format":
		return GroupExport
	default:
		return ""
	}
}

// pageRejecter renders rate-limited browser form posts as pages. API
// requests keep the JSON error body.
func pageRejecter(h *web.Handler) func(*gin.Context, time.Duration) bool {
	return func(c *gin.Context, wait time.Duration) bool {
		if h == nil || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			return false
		}
		h.RateLimited(c, wait)
		return true
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
