package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"ocrweb/internal/checkout"
	"ocrweb/internal/domain"
	"ocrweb/internal/i18n"
	"ocrweb/internal/middleware"
	"ocrweb/internal/quota"
	"ocrweb/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"index", "pricing", "payment", "login"}

type pageSet map[string]*template.Template

var funcs = template.FuncMap{
	"T": func(locale, key string, args ...any) string {
		return i18n.T(locale, key, args...)
	},
	"indent": func(level int) int {
		return (level - 1) * 16
	},
}

func parsePages() (pageSet, error) {
	pages := make(pageSet, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("handlers: parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

type documentView struct {
	SourceName string
	HTML       template.HTML
	Source     string
	Outline    []render.Heading
	ShowSource bool
}

type pageData struct {
	Locale   string
	Page     string
	User     *domain.UserAccount
	Mode     domain.IdentityMode
	Quota    quota.State
	Error    string
	Notice   string
	Document *documentView
	Products []domain.Product
	Blocked  bool
	Outcome  *checkout.Outcome
	Phone    string
	CodeSent bool
}

func (a *App) newPage(r *http.Request, page string) *pageData {
	data := &pageData{
		Locale: middleware.LocaleFromContext(r.Context()),
		Page:   page,
		Quota:  a.Quota.Snapshot(),
		Mode:   domain.IdentityModeDevice,
	}
	if u := a.Identity.User(); u != nil {
		data.User = u
		data.Mode = domain.IdentityModeUser
	}
	return data
}

// t translates key for the request locale.
func (d *pageData) t(key string, args ...any) string {
	return i18n.T(d.Locale, key, args...)
}

func (a *App) render(w http.ResponseWriter, r *http.Request, status int, data *pageData) {
	t, ok := a.pages[data.Page]
	if !ok {
		a.log(r).Error().Str("page", data.Page).Msg("unknown page template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	// Fresh snapshot so the header reflects refreshes made by the handler.
	data.Quota = a.Quota.Snapshot()
	if data.Error == "" {
		data.Error = data.Quota.Err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		a.log(r).Error().Err(err).Str("page", data.Page).Msg("render template failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
