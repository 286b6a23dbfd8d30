package model

// CreateProfileRequest is the payload for creating a family profile.
type CreateProfileRequest struct {
	Name                     string  `json:"name"`
	Avatar                   string  `json:"avatar,omitempty"`
	PIN                      *string `json:"pin,omitempty"`
	CanMakePurchases         bool    `json:"canMakePurchases"`
	CanUseCustomContentTypes bool    `json:"canUseCustomContentTypes"`
}

// UpdateProfileRequest is a partial update; nil fields are left unchanged
// by the server. An empty-string PIN clears the PIN.
type UpdateProfileRequest struct {
	Name                     *string `json:"name,omitempty"`
	Avatar                   *string `json:"avatar,omitempty"`
	PIN                      *string `json:"pin,omitempty"`
	CanMakePurchases         *bool   `json:"canMakePurchases,omitempty"`
	CanUseCustomContentTypes *bool   `json:"canUseCustomContentTypes,omitempty"`
}

// TouchesCapabilities reports whether the update changes capability flags,
// which only the default (admin) profile may do.
func (r UpdateProfileRequest) TouchesCapabilities() bool {
	return r.CanMakePurchases != nil || r.CanUseCustomContentTypes != nil
}

// SelectProfileRequest activates a profile. PIN is required only when the
// target profile has one set.
type SelectProfileRequest struct {
	ProfileID string  `json:"profileId"`
	PIN       *string `json:"pin,omitempty"`
}

// ForgotPINRequest triggers out-of-band PIN recovery for a profile.
type ForgotPINRequest struct {
	ProfileID string `json:"profileId"`
}
