package domain

// DeviceID is the opaque, persisted identifier of this device.
type DeviceID string

// IdentityMode tells which identity scopes the quota.
type IdentityMode string

const (
	IdentityModeDevice IdentityMode = "device"
	IdentityModeUser   IdentityMode = "user"
)

// UserAccount is the authenticated, phone-based account returned by the identity provider.
type UserAccount struct {
	ID             string `json:"id"`
	Phone          string `json:"phone"`
	OrganizationID string `json:"organization_id,omitempty"`
	IsInternal     bool   `json:"is_internal,omitempty"`
}

// Identity is everything the backend needs to scope a call.
type Identity struct {
	DeviceID    DeviceID
	Token       string
	User        *UserAccount
	InternalKey string
}

// Mode reports user when an authenticated account is present.
func (i Identity) Mode() IdentityMode {
	if i.User != nil && i.Token != "" {
		return IdentityModeUser
	}
	return IdentityModeDevice
}

// HasInternalKey reports whether the quota bypass key is set locally.
func (i Identity) HasInternalKey() bool {
	return i.InternalKey != ""
}

// UserID returns the account id, or "" for device-only identities.
func (i Identity) UserID() string {
	if i.User == nil {
		return ""
	}
	return i.User.ID
}
