package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"repo-analyzer-client/internal/sessions"
)

func newRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("sessionId", "s-1")
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api"))
	return r
}

func TestChatHandlerRoundTrip(t *testing.T) {
	r := newRouter(t, &Service{Backend: echoAsker(), Sessions: seeded(t)})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question": "What is it?"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload askResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Answer != "re: What is it?" || len(payload.Messages) != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}

	get := httptest.NewRecorder()
	r.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	if get.Code != http.StatusOK || !strings.Contains(get.Body.String(), "re: What is it?") {
		t.Fatalf("unexpected transcript %d %s", get.Code, get.Body.String())
	}
}

func TestChatHandlerErrors(t *testing.T) {
	tests := []struct {
		name     string
		svc      func(t *testing.T) *Service
		body     string
		wantCode int
	}{
		{
			name:     "missing question",
			svc:      func(t *testing.T) *Service { return &Service{Backend: echoAsker(), Sessions: seeded(t)} },
			body:     `{}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "no analysis",
			svc:      func(t *testing.T) *Service { return &Service{Backend: echoAsker(), Sessions: sessions.NewMemoryRepo()} },
			body:     `{"question": "hi"}`,
			wantCode: http.StatusConflict,
		},
		{
			name: "backend failure",
			svc: func(t *testing.T) *Service {
				return &Service{Backend: &fakeAsker{answer: func(string) (string, error) { return "", errors.New("down") }}, Sessions: seeded(t)}
			},
			body:     `{"question": "hi"}`,
			wantCode: http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(t, tt.svc(t))
			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)
			if resp.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, resp.Code, resp.Body.String())
			}
			if tt.wantCode == http.StatusBadGateway && !strings.Contains(resp.Body.String(), ErrorReply) {
				t.Fatalf("expected error reply in body: %s", resp.Body.String())
			}
		})
	}
}
