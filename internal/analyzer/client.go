package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"repo-analyzer-client/internal/shared/telemetry"
)

const (
	analyzePath    = "/api/analyze-repo"
	chatPath       = "/api/chat"
	exportDOCXPath = "/api/export-docx"
	exportPDFPath  = "/api/export-pdf"
	healthPath     = "/health"

	defaultTimeout = 120 * time.Second
	maxErrorBody   = 64 << 10

	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypePDF  = "application/pdf"
)

// Config controls how the client reaches the analysis backend.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the remote repository-analysis service. Each call issues
// exactly one request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a backend client. A non-empty token is sent as a
// bearer credential on every request.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("analyzer base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{}
	if token := strings.TrimSpace(cfg.Token); token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(context.Background(), src)
	}
	httpClient.Timeout = timeout

	return &Client{baseURL: base, httpClient: httpClient}, nil
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type analyzeRequest struct {
	RepoURL string `json:"repo_url"`
	Focus   string `json:"focus"`
}

type analyzeResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type chatRequest struct {
	Question string `json:"question"`
	Context  Result `json:"context"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// AnalyzeRepo submits a repository for analysis and waits for the result.
func (c *Client) AnalyzeRepo(ctx context.Context, repoURL, focus string) (Result, error) {
	body, status, _, err := c.post(ctx, analyzePath, analyzeRequest{RepoURL: repoURL, Focus: focus})
	if err != nil {
		return Result{}, err
	}
	if status < 200 || status >= 300 {
		return Result{}, &APIError{Status: status, Message: errorMessage(body)}
	}

	var envelope analyzeResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Result{}, fmt.Errorf("decode analyze response: %w", err)
	}
	if !envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = envelope.Error
		}
		return Result{}, &APIError{Status: status, Message: msg}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return Result{}, ErrNoData
	}

	for _, warning := range CheckResult(envelope.Data) {
		telemetry.Warn("analyzer.result_shape", map[string]any{
			"repo_url": repoURL,
			"warning":  warning,
		})
	}

	var result Result
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		return Result{}, fmt.Errorf("decode analysis result: %w", err)
	}
	return result, nil
}

// Chat asks a follow-up question using result as the conversation context.
func (c *Client) Chat(ctx context.Context, question string, result Result) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	body, status, _, err := c.post(ctx, chatPath, chatRequest{Question: question, Context: result})
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", &APIError{Status: status, Message: errorMessage(body)}
	}
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if strings.TrimSpace(parsed.Answer) == "" {
		return "", ErrEmptyAnswer
	}
	return parsed.Answer, nil
}

// ExportDOCX asks the backend to render result as a Word document.
func (c *Client) ExportDOCX(ctx context.Context, result Result) (Blob, error) {
	return c.export(ctx, exportDOCXPath, result, ContentTypeDOCX, ".docx")
}

// ExportPDF asks the backend to render result as a PDF.
func (c *Client) ExportPDF(ctx context.Context, result Result) (Blob, error) {
	return c.export(ctx, exportPDFPath, result, ContentTypePDF, ".pdf")
}

func (c *Client) export(ctx context.Context, path string, result Result, contentType, ext string) (Blob, error) {
	body, status, header, err := c.post(ctx, path, result)
	if err != nil {
		return Blob{}, err
	}
	if status < 200 || status >= 300 {
		return Blob{}, &APIError{Status: status, Message: errorMessage(body)}
	}
	if len(body) == 0 {
		return Blob{}, ErrEmptyExport
	}
	if ct := strings.TrimSpace(header.Get("Content-Type")); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil && mediaType != "application/octet-stream" {
			contentType = mediaType
		}
	}
	name := fileNameFromDisposition(header.Get("Content-Disposition"))
	if name == "" {
		name = result.FileStem() + ext
	}
	return Blob{Data: body, ContentType: contentType, FileName: name}, nil
}

// Health reports the backend status.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	req.Header.Set("Accept", "application/json")
	body, status, _, err := c.do(req)
	if err != nil {
		return HealthStatus{}, err
	}
	if status < 200 || status >= 300 {
		return HealthStatus{}, &APIError{Status: status, Message: errorMessage(body)}
	}
	var parsed HealthStatus
	if err := json.Unmarshal(body, &parsed); err != nil {
		return HealthStatus{}, fmt.Errorf("decode health response: %w", err)
	}
	return parsed, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, int, http.Header, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, int, http.Header, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.Error("analyzer.request_failed", map[string]any{
			"path":  req.URL.Path,
			"error": err,
		})
		return nil, 0, nil, fmt.Errorf("analyzer request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, resp.Header, fmt.Errorf("read analyzer response: %w", err)
	}
	telemetry.Info("analyzer.request", map[string]any{
		"path":       req.URL.Path,
		"status":     resp.StatusCode,
		"durationMs": time.Since(start).Milliseconds(),
		"bytes":      len(body),
	})
	return body, resp.StatusCode, resp.Header, nil
}

// errorMessage pulls a human readable message out of an error body. FastAPI
// sends {"detail": "..."} or {"detail": [{"msg": "..."}]}; other handlers
// send {"message": "...", "error": "..."}.
func errorMessage(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var parsed struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if msg := detailMessage(parsed.Detail); msg != "" {
		return msg
	}
	if strings.TrimSpace(parsed.Message) != "" {
		return strings.TrimSpace(parsed.Message)
	}
	return strings.TrimSpace(parsed.Error)
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if m := strings.TrimSpace(item.Msg); m != "" {
				parts = append(parts, m)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

func fileNameFromDisposition(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(value)
	if err != nil {
		return ""
	}
	name := strings.TrimSpace(params["filename"])
	if name == "" || strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}

// IsAPIError reports whether err came from a backend response rather than
// the transport.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
