package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"repo-analyzer-client/internal/analyzer"
	"repo-analyzer-client/internal/extract"
	"repo-analyzer-client/internal/sessions"
	"repo-analyzer-client/internal/shared/metrics"
	"repo-analyzer-client/internal/shared/storage/object"
	"repo-analyzer-client/internal/shared/telemetry"
	"repo-analyzer-client/internal/shared/util"
)

// Renderer produces binary documents from an analysis result.
type Renderer interface {
	ExportDOCX(ctx context.Context, result analyzer.Result) (analyzer.Blob, error)
	ExportPDF(ctx context.Context, result analyzer.Result) (analyzer.Blob, error)
}

// Service renders exports for a session and archives them in the object store.
type Service struct {
	Renderer Renderer
	Sessions sessions.Repo
	Repo     Repo
	Store    object.ObjectStore
	Now      func() time.Time
}

// Render builds the document for format. Text is built locally; DOCX and PDF
// come from the backend and are checked to be readable before they are
// returned.
func Render(ctx context.Context, renderer Renderer, format string, result analyzer.Result) (analyzer.Blob, error) {
	var (
		blob     analyzer.Blob
		err      error
		wantMime string
	)
	switch format {
	case FormatText:
		blob = analyzer.Blob{
			Data:        []byte(BuildTextSummary(result)),
			ContentType: contentTypeText,
			FileName:    DefaultFileName(result, FormatText),
		}
		wantMime = extract.MimeText
	case FormatDOCX:
		blob, err = renderer.ExportDOCX(ctx, result)
		wantMime = extract.MimeDOCX
	case FormatPDF:
		blob, err = renderer.ExportPDF(ctx, result)
		wantMime = extract.MimePDF
	default:
		return analyzer.Blob{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return analyzer.Blob{}, err
	}
	if err := extract.Verify(wantMime, blob.Data); err != nil {
		return analyzer.Blob{}, fmt.Errorf("verify %s: %w", format, err)
	}
	blob.FileName = safeFileName(blob.FileName, result, format)
	return blob, nil
}

// Export renders the session's current analysis in format and archives it.
// Backend and verification failures wrap ErrExportFailed.
func (s *Service) Export(ctx context.Context, sessionID, format string) (Export, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return Export{}, err
	}
	sess, err := sessions.Load(ctx, s.Sessions, sessionID)
	if err != nil {
		return Export{}, err
	}
	if !sess.HasResult() {
		return Export{}, ErrNoAnalysis
	}

	blob, err := Render(ctx, s.Renderer, format, *sess.Result)
	if err != nil {
		metrics.IncExport(format, "failed")
		telemetry.Warn("export.failed", map[string]any{
			"session_id": sessionID,
			"format":     format,
			"error":      err,
		})
		return Export{}, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	key, size, err := s.Store.Save(ctx, sessionID, blob.FileName, blob.ContentType, bytes.NewReader(blob.Data))
	if err != nil {
		metrics.IncExport(format, "failed")
		return Export{}, fmt.Errorf("store export: %w", err)
	}
	export := Export{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Format:      format,
		FileName:    blob.FileName,
		ContentType: blob.ContentType,
		StorageKey:  key,
		SizeBytes:   size,
		CreatedAt:   s.now(),
	}
	if err := s.Repo.Create(ctx, export); err != nil {
		_ = s.Store.Delete(ctx, key)
		metrics.IncExport(format, "failed")
		return Export{}, fmt.Errorf("record export: %w", err)
	}
	metrics.IncExport(format, "ok")
	telemetry.Info("export.created", map[string]any{
		"session_id": sessionID,
		"export_id":  export.ID,
		"format":     format,
		"size_bytes": size,
	})
	return export, nil
}

// Open returns the export record and its content. The caller closes the reader.
func (s *Service) Open(ctx context.Context, sessionID, id string) (Export, io.ReadCloser, error) {
	export, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Export{}, nil, err
	}
	if export.SessionID != sessionID {
		return Export{}, nil, ErrForbidden
	}
	rc, err := s.Store.Open(ctx, export.StorageKey)
	if errors.Is(err, object.ErrNotFound) {
		return Export{}, nil, ErrNotFound
	}
	if err != nil {
		return Export{}, nil, fmt.Errorf("open export: %w", err)
	}
	return export, rc, nil
}

// List returns the session's exports, newest first.
func (s *Service) List(ctx context.Context, sessionID string) ([]Export, error) {
	return s.Repo.ListBySession(ctx, sessionID)
}

// PurgeSessions deletes every export owned by the given sessions.
func (s *Service) PurgeSessions(ctx context.Context, sessionIDs []string) error {
	var errs []error
	for _, id := range sessionIDs {
		list, err := s.Repo.ListBySession(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, export := range list {
			if err := s.Store.Delete(ctx, export.StorageKey); err != nil {
				errs = append(errs, fmt.Errorf("delete %s: %w", export.ID, err))
			}
		}
		if err := s.Repo.DeleteBySession(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// safeFileName keeps a backend-provided name when it is usable and falls back
// to the default name otherwise.
func safeFileName(name string, result analyzer.Result, format string) string {
	name = strings.ReplaceAll(name, `"`, "")
	clean, err := util.SanitizeFileName(name)
	if err != nil {
		return DefaultFileName(result, format)
	}
	return clean
}
