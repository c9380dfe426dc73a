package analyses

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"repo-analyzer-client/internal/analyzer"
)

func newTestRouter(t *testing.T, a Analyzer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := RegisterBindingValidators(); err != nil {
		t.Fatalf("RegisterBindingValidators: %v", err)
	}
	svc, _ := newTestService(a)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("sessionId", "session-1")
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api"))
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestAnalyzeHandlerSuccessEnvelope(t *testing.T) {
	r := newTestRouter(t, &fakeAnalyzer{result: analyzer.Result{RepoName: "gin", RepoOwner: "gin-gonic"}})

	resp := postJSON(r, "/api/analyze", `{"repo_url": "https://github.com/gin-gonic/gin", "focus": "all"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var env Envelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.Data == nil || env.Data.RepoName != "gin" {
		t.Fatalf("unexpected envelope %+v", env)
	}

	get := httptest.NewRecorder()
	r.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/analysis", nil))
	if get.Code != http.StatusOK {
		t.Fatalf("expected stored analysis, got %d", get.Code)
	}
}

func TestAnalyzeHandlerValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "bad url", body: `{"repo_url": "https://example.com/a/b"}`, wantMsg: MsgInvalidRepoURL},
		{name: "missing url", body: `{}`, wantMsg: MsgInvalidRepoURL},
		{name: "bad focus", body: `{"repo_url": "https://github.com/a/b", "focus": "poems"}`, wantMsg: MsgInvalidFocus},
		{name: "malformed json", body: `{`, wantMsg: MsgInvalidRepoURL},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAnalyzer{}
			r := newTestRouter(t, fake)
			resp := postJSON(r, "/api/analyze", tt.body)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
			var payload struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if payload.Error.Code != "validation_error" || payload.Error.Message != tt.wantMsg {
				t.Fatalf("unexpected error %+v", payload.Error)
			}
			if len(fake.calls) != 0 {
				t.Fatalf("backend should not be called")
			}
		})
	}
}

func TestAnalyzeHandlerBackendFailure(t *testing.T) {
	r := newTestRouter(t, &fakeAnalyzer{err: &analyzer.APIError{Status: 404, Message: "Repository not found"}})

	resp := postJSON(r, "/api/analyze", `{"repo_url": "https://github.com/a/b"}`)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	var env Envelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Message != "Repository not found" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestCurrentWithoutAnalysis(t *testing.T) {
	r := newTestRouter(t, &fakeAnalyzer{})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/analysis", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
