package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const sampleResult = `{
  "repo_name": "gin",
  "repo_owner": "gin-gonic",
  "explanation": {
    "overview": "HTTP web framework",
    "key_features": ["routing", "middleware"],
    "tech_stack": ["Go"],
    "architecture": "radix tree router",
    "challenges_solved": ["performance"],
    "impact": "widely used"
  },
  "resume_bullets": [{"point": "Built a router"}],
  "viva_questions": [{"question": "Why radix?", "answer": "Speed", "difficulty": "easy"}],
  "interview_qa": [{"question": "How is context pooled?", "answer": "sync.Pool", "category": "technical"}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestAnalyzeRepoSuccess(t *testing.T) {
	var got analyzeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != analyzePath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success": true, "data": `+sampleResult+`, "message": "ok"}`)
	})

	result, err := client.AnalyzeRepo(context.Background(), "https://github.com/gin-gonic/gin", "resume")
	if err != nil {
		t.Fatalf("AnalyzeRepo: %v", err)
	}
	if got.RepoURL != "https://github.com/gin-gonic/gin" || got.Focus != "resume" {
		t.Fatalf("unexpected request body %+v", got)
	}
	if result.FullName() != "gin-gonic/gin" {
		t.Fatalf("FullName = %q", result.FullName())
	}
	if len(result.InterviewQA) != 1 || result.InterviewQA[0].Category != "technical" {
		t.Fatalf("unexpected interview qa %+v", result.InterviewQA)
	}
}

func TestAnalyzeRepoErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		wantErr error
	}{
		{name: "fastapi detail string", status: 400, body: `{"detail": "Invalid GitHub URL"}`, wantMsg: "Invalid GitHub URL"},
		{name: "fastapi detail list", status: 422, body: `{"detail": [{"msg": "field required"}, {"msg": "bad focus"}]}`, wantMsg: "field required; bad focus"},
		{name: "message envelope", status: 500, body: `{"success": false, "message": "Repository not found"}`, wantMsg: "Repository not found"},
		{name: "unsuccessful 200", status: 200, body: `{"success": false, "error": "rate limited"}`, wantMsg: "rate limited"},
		{name: "html body", status: 502, body: `<html>bad gateway</html>`, wantMsg: ""},
		{name: "missing data", status: 200, body: `{"success": true, "data": null}`, wantErr: ErrNoData},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := client.AnalyzeRepo(context.Background(), "https://github.com/a/b", "all")
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.Message != tt.wantMsg {
				t.Fatalf("message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
			if got := UserMessage(err, "Analysis failed"); tt.wantMsg == "" && got != "Analysis failed" {
				t.Fatalf("UserMessage fallback = %q", got)
			}
		})
	}
}

func TestChatSendsContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != chatPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Question != "What does it do?" || req.Context.RepoName != "gin" {
			t.Errorf("unexpected chat request %+v", req)
		}
		_, _ = io.WriteString(w, `{"answer": "It routes requests."}`)
	})

	answer, err := client.Chat(context.Background(), "  What does it do?  ", Result{RepoName: "gin"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer != "It routes requests." {
		t.Fatalf("answer = %q", answer)
	}
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend should not be called")
	})
	if _, err := client.Chat(context.Background(), "   ", Result{}); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("error = %v", err)
	}
}

func TestExportUsesDispositionFilename(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", ContentTypePDF)
		w.Header().Set("Content-Disposition", `attachment; filename="gin-report.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.4"))
	})
	blob, err := client.ExportPDF(context.Background(), Result{RepoName: "gin", RepoOwner: "gin-gonic"})
	if err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	if blob.FileName != "gin-report.pdf" || blob.ContentType != ContentTypePDF {
		t.Fatalf("unexpected blob %+v", blob)
	}
}

func TestExportDefaultsFilename(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != exportDOCXPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("PK\x03\x04"))
	})
	blob, err := client.ExportDOCX(context.Background(), Result{RepoName: "gin", RepoOwner: "gin-gonic"})
	if err != nil {
		t.Fatalf("ExportDOCX: %v", err)
	}
	if blob.FileName != "gin-gonic-gin-analysis.docx" {
		t.Fatalf("filename = %q", blob.FileName)
	}
	if blob.ContentType != ContentTypeDOCX {
		t.Fatalf("content type = %q", blob.ContentType)
	}
}

func TestExportEmptyBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if _, err := client.ExportPDF(context.Background(), Result{}); !errors.Is(err, ErrEmptyExport) {
		t.Fatalf("error = %v", err)
	}
}

func TestBearerTokenSent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("authorization = %q", got)
		}
		_, _ = io.WriteString(w, `{"status": "healthy", "components": {"github": "ok"}}`)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, Token: "secret-token"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	status, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if status.Status != "healthy" || status.Components["github"] != "ok" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "  "}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFileStem(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{name: "full", result: Result{RepoOwner: "octo", RepoName: "cat"}, want: "octo-cat-analysis"},
		{name: "missing owner", result: Result{RepoName: "cat"}, want: "repo-cat-analysis"},
		{name: "empty", result: Result{}, want: "repo-project-analysis"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.FileStem(); got != tt.want {
				t.Fatalf("FileStem() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyzeRepoToleratesShapeDrift(t *testing.T) {
	const drifted = `{
  "repo_name": "gin",
  "repo_owner": "gin-gonic",
  "explanation": {
    "overview": "HTTP web framework",
    "key_features": "routing",
    "tech_stack": "Go",
    "architecture": ["router", "middleware chain"],
    "challenges_solved": null,
    "impact": 10
  },
  "resume_bullets": ["Built a router", {"point": "Pooled contexts"}],
  "viva_questions": [{"question": "Why radix?", "answer": "Speed", "difficulty": 2}],
  "interview_qa": {"question": "How is context pooled?", "answer": "sync.Pool", "category": "technical"}
}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success": true, "data": `+drifted+`}`)
	})

	result, err := client.AnalyzeRepo(context.Background(), "https://github.com/gin-gonic/gin", "all")
	if err != nil {
		t.Fatalf("AnalyzeRepo: %v", err)
	}
	want := Result{
		RepoName:  "gin",
		RepoOwner: "gin-gonic",
		Explanation: Explanation{
			Overview:     "HTTP web framework",
			KeyFeatures:  []string{"routing"},
			TechStack:    []string{"Go"},
			Architecture: "router, middleware chain",
			Impact:       "10",
		},
		ResumeBullets: []ResumeBullet{{Point: "Built a router"}, {Point: "Pooled contexts"}},
		VivaQuestions: []VivaQuestion{{Question: "Why radix?", Answer: "Speed", Difficulty: "2"}},
		InterviewQA:   []InterviewQA{{Question: "How is context pooled?", Answer: "sync.Pool", Category: "technical"}},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestResultDecodeKeepsEmptyLists(t *testing.T) {
	var result Result
	if err := json.Unmarshal([]byte(`{"resume_bullets": [], "explanation": "Just an overview"}`), &result); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if result.ResumeBullets == nil || len(result.ResumeBullets) != 0 {
		t.Fatalf("expected empty non-nil bullets, got %#v", result.ResumeBullets)
	}
	if result.Explanation.Overview != "Just an overview" {
		t.Fatalf("expected string explanation to become the overview, got %+v", result.Explanation)
	}
	if err := json.Unmarshal([]byte(`"not an object"`), &result); err == nil {
		t.Fatalf("expected error for a non-object result")
	}
}
