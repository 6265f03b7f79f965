package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"ocrweb/internal/domain"
)

// TokenStatus fetches the balance scoped to id.
func (c *Client) TokenStatus(ctx context.Context, id domain.Identity) (*domain.TokenStatus, error) {
	var status domain.TokenStatus
	if err := c.getJSON(ctx, "/ocr/tokens", "token status", id, &status); err != nil {
		return nil, err
	}
	if status.Mode == "" {
		status.Mode = id.Mode()
	}
	return &status, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// ProcessOCR uploads a document as multipart field "file".
func (c *Client) ProcessOCR(ctx context.Context, id domain.Identity, upload domain.Upload) (*domain.OCRResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	filename := upload.Filename
	if filename == "" {
		filename = "document"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", upload.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("backend: build upload: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, fmt.Errorf("backend: build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("backend: build upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/ocr/process", &body, id)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	raw, _, err := c.do(req, "process ocr")
	if err != nil {
		return nil, err
	}
	var result domain.OCRResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("backend: decode process ocr: %w", err)
	}
	return &result, nil
}

// ConvertDocx asks the backend to render markdown as a Word document.
func (c *Client) ConvertDocx(ctx context.Context, id domain.Identity, markdown string) ([]byte, error) {
	raw, _, err := c.postJSON(ctx, "/ocr/convert-docx", "convert docx", id, map[string]string{"markdown": markdown})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("backend: convert docx: empty document")
	}
	return raw, nil
}
