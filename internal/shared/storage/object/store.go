package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"

	"github.com/google/uuid"

	"repo-analyzer-client/internal/shared/util"
)

// ErrNotFound is returned by Open when the key has no object.
var ErrNotFound = errors.New("object not found")

// ObjectStore saves and retrieves export blobs. Objects are namespaced by
// owner, which is the browser session that produced them.
type ObjectStore interface {
	Save(ctx context.Context, owner string, fileName string, contentType string, r io.Reader) (storageKey string, sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// NewKey builds "<hashed owner>/<uuid>_<name>" for a new object and returns
// it with the sanitized file name.
func NewKey(owner, fileName string) (key, name string, err error) {
	name, err = util.SanitizeFileName(fileName)
	if err != nil {
		return "", "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(util.HashOwner(owner), uuid.NewString()+"_"+name), name, nil
}

// CountingReader counts bytes read through it.
type CountingReader struct {
	R io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)
	return n, err
}

// AttachmentDisposition formats a Content-Disposition header for a download.
// Non-ASCII names are encoded as filename* per RFC 2231.
func AttachmentDisposition(fileName string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": fileName}); v != "" {
		return v
	}
	return "attachment"
}
