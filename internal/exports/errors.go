package exports

import "errors"

var (
	ErrNotFound          = errors.New("export not found")
	ErrForbidden         = errors.New("export belongs to another session")
	ErrNoAnalysis        = errors.New("no analysis to export")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrExportFailed      = errors.New("export failed")
)
