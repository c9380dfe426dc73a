package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repo-analyzer-client/internal/shared/server/respond"
)

// RegisterRoutes attaches the liveness and detailed health routes.
func (s *Service) RegisterRoutes(r gin.IRouter, api gin.IRouter) {
	r.GET("/healthz", func(c *gin.Context) {
		respond.OK(c, s.Status())
	})
	api.GET("/health", func(c *gin.Context) {
		report := s.Check(c.Request.Context())
		status := http.StatusOK
		if report.Status != StatusOK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
}
