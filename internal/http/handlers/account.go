package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ocrweb/internal/domain"
	"ocrweb/internal/i18n"
	"ocrweb/internal/middleware"
	"ocrweb/internal/providers/auth"
)

func (a *App) LoginPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, a.newPage(r, "login"))
}

// SendCode asks the identity provider to text a verification code.
func (a *App) SendCode(w http.ResponseWriter, r *http.Request) {
	data := a.newPage(r, "login")
	data.Phone = strings.TrimSpace(r.PostFormValue("phone"))
	if err := auth.ValidatePhone(data.Phone); err != nil {
		data.Error = data.t("Please enter a valid phone number")
		a.render(w, r, http.StatusBadRequest, data)
		return
	}
	if err := a.Auth.SendCode(r.Context(), data.Phone); err != nil {
		a.log(r).Warn().Err(err).Msg("send code failed")
		data.Error = domain.UserMessage(err)
		a.render(w, r, http.StatusBadGateway, data)
		return
	}
	data.CodeSent = true
	data.Notice = data.t("Code sent.")
	a.render(w, r, http.StatusOK, data)
}

// Login exchanges phone and code for an account session, then re-reads the
// balance under the new identity.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	data := a.newPage(r, "login")
	data.Phone = strings.TrimSpace(r.PostFormValue("phone"))
	data.CodeSent = true
	code := strings.TrimSpace(r.PostFormValue("code"))
	if code == "" {
		data.Error = data.t("Please enter the verification code")
		a.render(w, r, http.StatusBadRequest, data)
		return
	}
	result, err := a.Auth.Login(r.Context(), data.Phone, code)
	if err != nil {
		status := http.StatusBadGateway
		var authErr *auth.Error
		if errors.As(err, &authErr) || errors.Is(err, domain.ErrInvalidPhone) {
			status = http.StatusUnauthorized
		}
		data.Error = domain.UserMessage(err)
		a.render(w, r, status, data)
		return
	}
	if err := a.Identity.Login(r.Context(), result.AccessToken, result.User); err != nil {
		a.log(r).Error().Err(err).Msg("persist session failed")
		data.Error = domain.UserMessage(err)
		a.render(w, r, http.StatusInternalServerError, data)
		return
	}
	if err := a.Quota.Refresh(r.Context()); err != nil {
		a.log(r).Warn().Err(err).Msg("refresh quota after login failed")
	}
	redirect(w, r, "/")
}

func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.Identity.Logout(r.Context()); err != nil {
		a.log(r).Error().Err(err).Msg("logout failed")
	}
	if err := a.Quota.Refresh(r.Context()); err != nil {
		a.log(r).Warn().Err(err).Msg("refresh quota after logout failed")
	}
	redirect(w, r, "/")
}

// SetLocale remembers an explicit language choice in a cookie.
func (a *App) SetLocale(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.LocaleCookie,
		Value:    i18n.Normalize(chi.URLParam(r, "locale")),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   a.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	redirect(w, r, "/")
}
