package ocr

import (
	"context"
	"errors"
	"testing"

	"ocrweb/internal/domain"
	"ocrweb/internal/providers/backend"
	"ocrweb/internal/quota"
)

type fakeProcessor struct {
	result *domain.OCRResult
	err    error
	calls  int
	last   domain.Upload
}

func (f *fakeProcessor) ProcessOCR(_ context.Context, _ domain.Identity, upload domain.Upload) (*domain.OCRResult, error) {
	f.calls++
	f.last = upload
	return f.result, f.err
}

type fakeQuota struct {
	state     quota.State
	refreshes int
	errMsg    string
}

func (f *fakeQuota) Snapshot() quota.State { return f.state }

func (f *fakeQuota) Refresh(context.Context) error {
	f.refreshes++
	return nil
}

func (f *fakeQuota) SetError(msg string) { f.errMsg = msg }
func (f *fakeQuota) ClearError()         { f.errMsg = "" }

type staticIdentity domain.Identity

func (s staticIdentity) Current(context.Context) (domain.Identity, error) {
	return domain.Identity(s), nil
}

var pdfUpload = domain.Upload{Filename: "scan.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 body")}

func TestSubmitBlockedByQuotaMakesNoBackendCall(t *testing.T) {
	proc := &fakeProcessor{result: &domain.OCRResult{Success: true, Markdown: "# x"}}
	q := &fakeQuota{state: quota.State{Status: &domain.TokenStatus{TotalAvailable: 0}}}
	sub := NewSubmitter(proc, q, staticIdentity{DeviceID: "dev"}, nil, nil)

	_, err := sub.Submit(context.Background(), pdfUpload)
	if !errors.Is(err, domain.ErrQuotaBlocked) {
		t.Fatalf("err = %v, want ErrQuotaBlocked", err)
	}
	if proc.calls != 0 {
		t.Fatalf("backend called %d times while blocked", proc.calls)
	}
	if sub.Current() != nil {
		t.Fatalf("blocked submission must not set a document")
	}
}

func TestSubmitInternalKeyBypassesGate(t *testing.T) {
	proc := &fakeProcessor{result: &domain.OCRResult{Success: true, Markdown: "# x"}}
	q := &fakeQuota{state: quota.State{Status: &domain.TokenStatus{TotalAvailable: 0}}}
	sub := NewSubmitter(proc, q, staticIdentity{DeviceID: "dev", InternalKey: "k"}, nil, nil)

	if _, err := sub.Submit(context.Background(), pdfUpload); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if proc.calls != 1 {
		t.Fatalf("backend calls = %d, want 1", proc.calls)
	}
}

func TestSubmitSuccessStoresDocumentAndRefreshes(t *testing.T) {
	proc := &fakeProcessor{result: &domain.OCRResult{Success: true, Markdown: "# Title", TokensRemaining: 2}}
	q := &fakeQuota{state: quota.State{Status: &domain.TokenStatus{TotalAvailable: 3}}, errMsg: "old"}
	sub := NewSubmitter(proc, q, staticIdentity{DeviceID: "dev"}, nil, nil)

	if _, err := sub.Submit(context.Background(), pdfUpload); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	doc := sub.Current()
	if doc == nil || doc.Markdown != "# Title" || doc.SourceName != "scan.pdf" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if q.refreshes != 1 {
		t.Fatalf("refreshes = %d, want 1", q.refreshes)
	}
	if q.errMsg != "" {
		t.Fatalf("error not cleared: %q", q.errMsg)
	}

	sub.Reset()
	if sub.Current() != nil {
		t.Fatalf("Reset did not clear the document")
	}
}

func TestSubmitUnsuccessfulResultSurfacesBackendError(t *testing.T) {
	proc := &fakeProcessor{result: &domain.OCRResult{Success: false, Error: "Could not read page"}}
	q := &fakeQuota{}
	sub := NewSubmitter(proc, q, staticIdentity{DeviceID: "dev"}, nil, nil)

	_, err := sub.Submit(context.Background(), pdfUpload)
	if !errors.Is(err, domain.ErrProcessingFailed) {
		t.Fatalf("err = %v, want ErrProcessingFailed", err)
	}
	if q.errMsg != "Could not read page" {
		t.Fatalf("shared error = %q", q.errMsg)
	}
	if q.refreshes != 0 || sub.Current() != nil {
		t.Fatalf("failed submission must not refresh or store a document")
	}
}

func TestSubmitBackendErrorIsNormalized(t *testing.T) {
	proc := &fakeProcessor{err: &backend.APIError{StatusCode: 402, Message: "Insufficient tokens"}}
	q := &fakeQuota{}
	sub := NewSubmitter(proc, q, staticIdentity{DeviceID: "dev"}, nil, nil)

	if _, err := sub.Submit(context.Background(), pdfUpload); err == nil {
		t.Fatalf("expected error")
	}
	if q.errMsg != "Insufficient tokens" {
		t.Fatalf("shared error = %q, want backend message", q.errMsg)
	}
}

func TestValidate(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	tests := []struct {
		name    string
		upload  domain.Upload
		want    string
		wantErr error
	}{
		{name: "pdf", upload: pdfUpload, want: "application/pdf"},
		{name: "jpg alias", upload: domain.Upload{Filename: "a.jpg", ContentType: "image/jpg", Data: []byte{1}}, want: "image/jpeg"},
		{name: "sniffed png", upload: domain.Upload{Filename: "a", Data: png}, want: "image/png"},
		{name: "extension fallback", upload: domain.Upload{Filename: "a.webp", ContentType: "application/octet-stream", Data: []byte("RIFFxxxx")}, want: "image/webp"},
		{name: "charset param", upload: domain.Upload{Filename: "a.pdf", ContentType: "application/pdf; charset=binary", Data: []byte{1}}, want: "application/pdf"},
		{name: "text rejected", upload: domain.Upload{Filename: "a.txt", ContentType: "text/plain", Data: []byte("hi")}, wantErr: domain.ErrUnsupportedFile},
		{name: "empty", upload: domain.Upload{Filename: "a.pdf", ContentType: "application/pdf"}, wantErr: domain.ErrEmptyFile},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Validate(tc.upload)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate error: %v", err)
			}
			if got.ContentType != tc.want {
				t.Fatalf("ContentType = %q, want %q", got.ContentType, tc.want)
			}
		})
	}
}
