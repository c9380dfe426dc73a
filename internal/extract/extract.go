package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

var (
	ErrUnsupported = errors.New("unsupported mime type")
	ErrCorrupt     = errors.New("corrupt document")
)

// format knows how to check and read one document type.
type format struct {
	verify func([]byte) error
	text   func([]byte) (string, error)
}

var formats = map[string]format{
	MimePDF:  {verify: verifyPDF, text: pdfText},
	MimeDOCX: {verify: verifyDOCX, text: docxText},
	MimeText: {verify: verifyText, text: func(b []byte) (string, error) { return string(b), nil }},
}

// Verify checks that data is a readable document of the given type. Export
// blobs are verified before they are archived or written to disk.
func Verify(mimeType string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty body", ErrCorrupt)
	}
	kind := detect(mimeType, "", data)
	f, ok := formats[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupported, mimeType)
	}
	if err := f.verify(data); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

// TextFromBytes extracts plain text from an in-memory document. fileName is
// only used to resolve generic content types.
func TextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	kind := detect(mimeType, fileName, data)
	f, ok := formats[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
	return f.text(data)
}

func verifyPDF(data []byte) error {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	if r.NumPage() == 0 {
		return errors.New("pdf has no pages")
	}
	return nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func verifyDOCX(data []byte) error {
	_, err := documentXML(data)
	return err
}

func docxText(data []byte) (string, error) {
	raw, err := documentXML(data)
	if err != nil {
		return "", err
	}
	return paragraphs(raw), nil
}

func verifyText(data []byte) error {
	if !utf8.Valid(data) {
		return errors.New("text is not utf-8")
	}
	return nil
}

// documentFile finds word/document.xml in a DOCX zip, or returns nil.
func documentFile(data []byte) *zip.File {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return f
		}
	}
	return nil
}

func documentXML(data []byte) ([]byte, error) {
	f := documentFile(data)
	if f == nil {
		return nil, errors.New("word/document.xml not found")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// paragraphs flattens WordprocessingML to text, one line per paragraph or
// break. Malformed XML is returned as is.
func paragraphs(raw []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return string(raw)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// detect resolves the document type. Specific content types win; generic
// ones (zip, octet-stream, none) are resolved by magic bytes, then by the
// file extension.
func detect(mimeType, fileName string, data []byte) string {
	kind, _, _ := strings.Cut(mimeType, ";")
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind != "" && kind != "application/zip" && kind != "application/octet-stream" {
		return kind
	}
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return MimePDF
	case documentFile(data) != nil:
		return MimeDOCX
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	case ".txt", ".md":
		return MimeText
	}
	return kind
}
