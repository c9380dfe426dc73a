package exports

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repo-analyzer-client/internal/analyzer"
)

func newTestRouter(t *testing.T, svc *Service, sessionID string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("sessionId", sessionID)
		c.Next()
	})
	h := NewHandler(svc)
	h.RegisterRoutes(r.Group("/api"))
	h.RegisterDownload(r)
	return r
}

func TestExportNowStreamsAttachment(t *testing.T) {
	svc := newTestService(t, &fakeRenderer{}, true)
	r := newTestRouter(t, svc, "s-1")

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/export/txt", nil))

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "attachment; filename=gin-gonic-gin-analysis.txt", resp.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", resp.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, BuildTextSummary(sampleResult()), resp.Body.String())
}

func TestExportNowErrors(t *testing.T) {
	tests := []struct {
		name       string
		withResult bool
		path       string
		wantStatus int
		wantMsg    string
	}{
		{name: "unsupported", withResult: true, path: "/api/export/rtf", wantStatus: http.StatusBadRequest},
		{name: "no analysis", withResult: false, path: "/api/export/txt", wantStatus: http.StatusConflict},
		{name: "backend failure", withResult: true, path: "/api/export/pdf", wantStatus: http.StatusBadGateway, wantMsg: "Failed to export PDF"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, &fakeRenderer{pdf: analyzer.Blob{Data: []byte("not a pdf")}}, tt.withResult)
			r := newTestRouter(t, svc, "s-1")
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, tt.path, nil))
			require.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantMsg != "" {
				var body struct {
					Error struct {
						Message string `json:"message"`
					} `json:"error"`
				}
				require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
				assert.Equal(t, tt.wantMsg, body.Error.Message)
			}
		})
	}
}

func TestDownloadOwnership(t *testing.T) {
	svc := newTestService(t, &fakeRenderer{}, true)
	export, err := svc.Export(context.Background(), "s-1", "txt")
	require.NoError(t, err)

	owner := httptest.NewRecorder()
	newTestRouter(t, svc, "s-1").ServeHTTP(owner, httptest.NewRequest(http.MethodGet, DownloadPath(export.ID), nil))
	assert.Equal(t, http.StatusOK, owner.Code)

	other := httptest.NewRecorder()
	newTestRouter(t, svc, "s-2").ServeHTTP(other, httptest.NewRequest(http.MethodGet, DownloadPath(export.ID), nil))
	assert.Equal(t, http.StatusForbidden, other.Code)

	missing := httptest.NewRecorder()
	newTestRouter(t, svc, "s-1").ServeHTTP(missing, httptest.NewRequest(http.MethodGet, DownloadPath("nope"), nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestListExports(t *testing.T) {
	svc := newTestService(t, &fakeRenderer{}, true)
	_, err := svc.Export(context.Background(), "s-1", "txt")
	require.NoError(t, err)

	resp := httptest.NewRecorder()
	newTestRouter(t, svc, "s-1").ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/exports", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Exports []Export `json:"exports"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Exports, 1)
	assert.Empty(t, body.Exports[0].StorageKey, "storage key is not exposed")
}
