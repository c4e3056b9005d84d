package models

import "time"

// StoredVkToken is the local cache record for VK credentials. It is kept
// under a single cache key; its presence alone marks a cache hit.
type StoredVkToken struct {
	AccessToken          string        `json:"accessToken,omitempty"`
	AccessTokenExpiresAt *time.Time    `json:"accessTokenExpiresAt,omitempty"`
	RefreshToken         string        `json:"refreshToken,omitempty"`
	DeviceID             string        `json:"deviceId,omitempty"`
	UserID               string        `json:"userId,omitempty"`
	Scope                string        `json:"scope,omitempty"`
	Communities          []VKCommunity `json:"communities,omitempty"`
	LastSyncedAt         *time.Time    `json:"lastSyncedAt,omitempty"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// VKTokenGrant is what a successful VK token refresh yields.
type VKTokenGrant struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	DeviceID     string    `json:"device_id,omitempty"`
}
