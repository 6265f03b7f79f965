package quota

import "ocrweb/internal/domain"

// Check decides whether a token-consuming action may start. It is advisory:
// the backend still enforces the balance. An unknown balance does not block,
// and the internal key bypasses the check for test accounts.
func Check(state State, id domain.Identity) error {
	if id.HasInternalKey() {
		return nil
	}
	if state.Status != nil && state.Status.Blocked() {
		return domain.ErrQuotaBlocked
	}
	return nil
}
