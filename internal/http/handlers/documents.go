package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"ocrweb/internal/domain"
	"ocrweb/internal/render"
)

// Index shows the upload form, or the active result when there is one. The
// token balance is re-read on every visit.
func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	if err := a.Quota.Refresh(r.Context()); err != nil {
		a.log(r).Warn().Err(err).Msg("refresh quota failed")
	}
	data := a.newPage(r, "index")
	if doc := a.Documents.Current(); doc != nil {
		view, err := documentPreview(doc, r.URL.Query().Get("view") == "source")
		if err != nil {
			a.log(r).Error().Err(err).Msg("render preview failed")
			view.ShowSource = true
		}
		data.Document = view
	}
	a.render(w, r, http.StatusOK, data)
}

func documentPreview(doc *domain.Document, showSource bool) (*documentView, error) {
	view := &documentView{
		SourceName: doc.SourceName,
		Source:     doc.Markdown,
		Outline:    render.Outline(doc.Markdown),
		ShowSource: showSource,
	}
	if showSource {
		return view, nil
	}
	html, err := render.HTML(doc.Markdown)
	if err != nil {
		return view, err
	}
	view.HTML = html
	return view, nil
}

// Upload submits the posted file for OCR. A blocked quota sends the user to
// the pricing page without contacting the backend.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	upload, err := readUpload(r)
	if err != nil {
		a.log(r).Info().Err(err).Msg("invalid upload")
		data := a.newPage(r, "index")
		data.Error = uploadMessage(data, err)
		a.render(w, r, http.StatusBadRequest, data)
		return
	}

	_, err = a.Documents.Submit(r.Context(), upload)
	switch {
	case err == nil:
		redirect(w, r, "/")
	case errors.Is(err, domain.ErrQuotaBlocked):
		redirect(w, r, "/pricing?reason=blocked")
	case errors.Is(err, domain.ErrUnsupportedFile), errors.Is(err, domain.ErrEmptyFile):
		data := a.newPage(r, "index")
		data.Error = uploadMessage(data, err)
		a.render(w, r, http.StatusUnsupportedMediaType, data)
	default:
		data := a.newPage(r, "index")
		data.Error = domain.UserMessage(err)
		a.render(w, r, http.StatusBadGateway, data)
	}
}

func readUpload(r *http.Request) (domain.Upload, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return domain.Upload{}, domain.ErrEmptyFile
		}
		return domain.Upload{}, fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("read upload: %w", err)
	}
	return domain.Upload{
		Filename:    header.Filename,
		ContentType: partContentType(header),
		Data:        data,
	}, nil
}

func partContentType(h *multipart.FileHeader) string {
	if h == nil {
		return ""
	}
	return h.Header.Get("Content-Type")
}

func uploadMessage(data *pageData, err error) string {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return data.t("File is too large (max %s MB)", strconv.FormatInt(tooLarge.Limit>>20, 10))
	case errors.Is(err, domain.ErrUnsupportedFile):
		return data.t("Unsupported file type")
	case errors.Is(err, domain.ErrEmptyFile):
		return data.t("The file is empty")
	default:
		return data.t("An error occurred")
	}
}

// Reset drops the active result.
func (a *App) Reset(w http.ResponseWriter, r *http.Request) {
	a.Documents.Reset()
	redirect(w, r, "/")
}

func (a *App) ExportMarkdown(w http.ResponseWriter, r *http.Request) {
	f, err := a.Exports.Markdown(a.Documents.Current())
	if err != nil {
		a.exportFailed(w, r, err)
		return
	}
	writeFile(w, f)
}

func (a *App) ExportDocx(w http.ResponseWriter, r *http.Request) {
	a.exportConverted(w, r, a.Exports.Docx)
}

// ExportBundle downloads Markdown and Word together as a zip.
func (a *App) ExportBundle(w http.ResponseWriter, r *http.Request) {
	a.exportConverted(w, r, a.Exports.Bundle)
}

func (a *App) exportConverted(w http.ResponseWriter, r *http.Request, build func(context.Context, domain.Identity, *domain.Document) (render.File, error)) {
	doc := a.Documents.Current()
	if doc == nil {
		a.exportFailed(w, r, domain.ErrNoResult)
		return
	}
	id, err := a.Identity.Current(r.Context())
	if err != nil {
		a.exportFailed(w, r, err)
		return
	}
	f, err := build(r.Context(), id, doc)
	if err != nil {
		a.exportFailed(w, r, err)
		return
	}
	writeFile(w, f)
}

func (a *App) exportFailed(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, domain.ErrNoResult) {
		status = http.StatusNotFound
	}
	a.log(r).Warn().Err(err).Msg("export failed")
	data := a.newPage(r, "index")
	data.Error = domain.UserMessage(err)
	a.render(w, r, status, data)
}

func writeFile(w http.ResponseWriter, f render.File) {
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}
