package model

import "time"

// FamilyProfile mirrors the profile object returned by the SketchWink API.
// The PIN itself is never part of the payload; only HasPIN is reported.
type FamilyProfile struct {
	ID                       string                `json:"id"`
	Name                     string                `json:"name"`
	Avatar                   string                `json:"avatar,omitempty"`
	IsDefault                bool                  `json:"isDefault"`
	CanMakePurchases         bool                  `json:"canMakePurchases"`
	CanUseCustomContentTypes bool                  `json:"canUseCustomContentTypes"`
	HasPIN                   bool                  `json:"hasPin"`
	Character                *CharacterDescription `json:"character,omitempty"`
	CreatedAt                time.Time             `json:"createdAt"`
	UpdatedAt                time.Time             `json:"updatedAt"`
}

// DisplayAvatar returns the profile's avatar, falling back to a generic
// person icon when none is set.
func (p FamilyProfile) DisplayAvatar() string {
	if p.Avatar == "" {
		return "👤"
	}
	return p.Avatar
}

// AccountPermissions holds the account-level limits returned by the API.
type AccountPermissions struct {
	MaxFamilyProfiles      int    `json:"maxFamilyProfiles"`
	MaxGenerationsPerDay   int    `json:"maxGenerationsPerDay"`
	AccountType            string `json:"accountType"`
	PlanName               string `json:"planName"`
	CustomContentTypes     bool   `json:"customContentTypes"`
	CommercialUseAllowed   bool   `json:"commercialUseAllowed"`
	PrioritySupportEnabled bool   `json:"prioritySupportEnabled"`
}
