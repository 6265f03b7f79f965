// Package ocr submits documents for recognition and holds the active result.
package ocr

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"ocrweb/internal/domain"
	"ocrweb/internal/infra"
	"ocrweb/internal/metrics"
	"ocrweb/internal/quota"
)

// Processor runs OCR on the backend.
type Processor interface {
	ProcessOCR(ctx context.Context, id domain.Identity, upload domain.Upload) (*domain.OCRResult, error)
}

// QuotaStore is the subset of quota.Store used by the submitter.
type QuotaStore interface {
	Snapshot() quota.State
	Refresh(ctx context.Context) error
	SetError(msg string)
	ClearError()
}

var allowedTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
	"image/webp":      {},
}

var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Submitter gates, sends and records OCR submissions.
type Submitter struct {
	processor Processor
	quota     QuotaStore
	identity  quota.IdentitySource
	logger    *infra.Logger
	metrics   *metrics.Metrics

	mu      sync.RWMutex
	current *domain.Document
}

func NewSubmitter(processor Processor, store QuotaStore, identity quota.IdentitySource, logger *infra.Logger, m *metrics.Metrics) *Submitter {
	return &Submitter{
		processor: processor,
		quota:     store,
		identity:  identity,
		logger:    infra.OrDiscard(logger),
		metrics:   m,
	}
}

// Submit validates upload, checks the local quota and sends it for OCR.
// A blocked quota returns domain.ErrQuotaBlocked without any backend call.
func (s *Submitter) Submit(ctx context.Context, upload domain.Upload) (*domain.OCRResult, error) {
	normalized, err := Validate(upload)
	if err != nil {
		s.metrics.OCRSubmission("rejected")
		return nil, err
	}

	id, err := s.identity.Current(ctx)
	if err != nil {
		s.metrics.OCRSubmission("error")
		return nil, fmt.Errorf("ocr: resolve identity: %w", err)
	}
	if err := quota.Check(s.quota.Snapshot(), id); err != nil {
		s.metrics.OCRSubmission("blocked")
		s.logger.Info().Str("device_id", string(id.DeviceID)).Msg("ocr: submission blocked by quota")
		return nil, err
	}

	s.quota.ClearError()
	result, err := s.processor.ProcessOCR(ctx, id, normalized)
	if err != nil {
		s.metrics.OCRSubmission("error")
		s.quota.SetError(domain.UserMessage(err))
		s.logger.Warn().Err(err).Str("file", normalized.Filename).Msg("ocr: processing failed")
		return nil, err
	}
	if !result.Success || result.Markdown == "" {
		s.metrics.OCRSubmission("error")
		err := processingError(result)
		s.quota.SetError(domain.UserMessage(err))
		return result, err
	}

	s.mu.Lock()
	s.current = &domain.Document{SourceName: normalized.Filename, Markdown: result.Markdown}
	s.mu.Unlock()
	s.metrics.OCRSubmission("success")
	s.logger.Info().
		Str("file", normalized.Filename).
		Int("markdown_bytes", len(result.Markdown)).
		Int("tokens_remaining", result.TokensRemaining).
		Msg("ocr: document processed")

	if err := s.quota.Refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("ocr: quota refresh after success failed")
	}
	return result, nil
}

// Current returns the active document, or nil.
func (s *Submitter) Current() *domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	doc := *s.current
	return &doc
}

// Reset clears the active document and any shared error.
func (s *Submitter) Reset() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	s.quota.ClearError()
}

// Validate checks that upload is a non-empty document of an accepted type and
// fills in its content type when missing.
func Validate(upload domain.Upload) (domain.Upload, error) {
	if len(upload.Data) == 0 {
		return upload, domain.ErrEmptyFile
	}
	contentType := normalizeContentType(upload.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = detectContentType(upload)
	}
	if _, ok := allowedTypes[contentType]; !ok {
		return upload, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, contentType)
	}
	if contentType == "image/jpg" {
		contentType = "image/jpeg"
	}
	upload.ContentType = contentType
	if strings.TrimSpace(upload.Filename) == "" {
		upload.Filename = "document"
	}
	return upload, nil
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

func detectContentType(upload domain.Upload) string {
	sniffed := normalizeContentType(http.DetectContentType(upload.Data))
	if _, ok := allowedTypes[sniffed]; ok {
		return sniffed
	}
	if ct, ok := extensionTypes[strings.ToLower(filepath.Ext(upload.Filename))]; ok {
		return ct
	}
	return sniffed
}

func processingError(result *domain.OCRResult) error {
	msg := strings.TrimSpace(result.Error)
	if msg == "" {
		return domain.ErrProcessingFailed
	}
	return &ProcessingError{Message: msg}
}

// ProcessingError is a backend-reported OCR failure.
type ProcessingError struct {
	Message string
}

func (e *ProcessingError) Error() string {
	return "ocr: " + e.Message
}

func (e *ProcessingError) UserMessage() string { return e.Message }

func (e *ProcessingError) Is(target error) bool {
	return target == domain.ErrProcessingFailed
}
