package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ocrweb/internal/domain"
	"ocrweb/internal/infra"
	"ocrweb/internal/storage"
	"ocrweb/pkg/zip"
)

// Export file names offered for download.
const (
	MarkdownFilename = "ocr-result.md"
	DocxFilename     = "ocr-result.docx"
	BundleFilename   = "ocr-result.zip"

	MarkdownContentType = "text/markdown; charset=utf-8"
	DocxContentType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	BundleContentType   = "application/zip"
)

// DocxConverter converts markdown to a Word document on the backend.
type DocxConverter interface {
	ConvertDocx(ctx context.Context, id domain.Identity, markdown string) ([]byte, error)
}

// File is an export ready to be downloaded or written.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Exporter produces downloadable files from the active document.
type Exporter struct {
	converter DocxConverter
	files     *storage.FileStore
	logger    *infra.Logger
}

// NewExporter builds an Exporter. files may be nil when saving to disk is not
// needed.
func NewExporter(converter DocxConverter, files *storage.FileStore, logger *infra.Logger) *Exporter {
	return &Exporter{converter: converter, files: files, logger: infra.OrDiscard(logger)}
}

// Markdown returns the document as a markdown file.
func (e *Exporter) Markdown(doc *domain.Document) (File, error) {
	if doc == nil || strings.TrimSpace(doc.Markdown) == "" {
		return File{}, domain.ErrNoResult
	}
	return File{Name: MarkdownFilename, ContentType: MarkdownContentType, Data: []byte(doc.Markdown)}, nil
}

// Docx converts the document to Word through the backend.
func (e *Exporter) Docx(ctx context.Context, id domain.Identity, doc *domain.Document) (File, error) {
	if doc == nil || strings.TrimSpace(doc.Markdown) == "" {
		return File{}, domain.ErrNoResult
	}
	data, err := e.converter.ConvertDocx(ctx, id, doc.Markdown)
	if err != nil {
		return File{}, err
	}
	return File{Name: DocxFilename, ContentType: DocxContentType, Data: data}, nil
}

// Bundle packs the Markdown and Word exports into one zip archive.
func (e *Exporter) Bundle(ctx context.Context, id domain.Identity, doc *domain.Document) (File, error) {
	md, err := e.Markdown(doc)
	if err != nil {
		return File{}, err
	}
	docx, err := e.Docx(ctx, id, doc)
	if err != nil {
		return File{}, err
	}
	now := time.Now()
	data, err := zip.Archive([]zip.Entry{
		{Name: md.Name, Data: md.Data, Modified: now},
		{Name: docx.Name, Data: docx.Data, Modified: now},
	})
	if err != nil {
		return File{}, err
	}
	return File{Name: BundleFilename, ContentType: BundleContentType, Data: data}, nil
}

// Save writes f into the export directory and returns its path.
func (e *Exporter) Save(ctx context.Context, f File) (string, error) {
	if e.files == nil {
		return "", fmt.Errorf("render: no export directory configured")
	}
	key, err := e.files.Write(ctx, f.Name, f.Data)
	if err != nil {
		return "", err
	}
	path, err := e.files.Path(key)
	if err != nil {
		return "", err
	}
	e.logger.Info().Str("path", path).Int("bytes", len(f.Data)).Msg("render: export saved")
	return path, nil
}
