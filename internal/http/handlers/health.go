package handlers

import (
	"net/http"

	"ocrweb/internal/domain"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

type quotaResponse struct {
	Mode        domain.IdentityMode `json:"mode"`
	TokenStatus *domain.TokenStatus `json:"token_status"`
	Loading     bool                `json:"loading"`
	Error       string              `json:"error,omitempty"`
}

// QuotaStatus returns the cached token balance as JSON without refreshing it.
func (a *App) QuotaStatus(w http.ResponseWriter, r *http.Request) {
	id, err := a.Identity.Current(r.Context())
	if err != nil {
		a.log(r).Error().Err(err).Msg("resolve identity failed")
		a.error(w, http.StatusInternalServerError, "internal", domain.UserMessage(err))
		return
	}
	st := a.Quota.Snapshot()
	a.json(w, http.StatusOK, quotaResponse{
		Mode:        id.Mode(),
		TokenStatus: st.Status,
		Loading:     st.Loading,
		Error:       st.Err,
	})
}
