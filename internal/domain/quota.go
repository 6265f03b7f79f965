package domain

// TokenStatus is a point-in-time view of the server-owned token balance.
// TotalAvailable is taken from the server as is.
type TokenStatus struct {
	DeviceID       string       `json:"device_id"`
	Mode           IdentityMode `json:"mode,omitempty"`
	FreeRemaining  int          `json:"free_uses_remaining"`
	PaidTokens     int          `json:"paid_tokens"`
	TotalAvailable int          `json:"total_available"`
}

// Blocked reports whether the balance forbids consuming a token.
func (s TokenStatus) Blocked() bool {
	return s.TotalAvailable <= 0
}
