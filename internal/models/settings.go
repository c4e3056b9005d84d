package models

import (
	"strconv"
	"time"
)

// TelegramChannel is one Telegram destination.
type TelegramChannel struct {
	ChatID     string `json:"chatId"`
	IsSelected bool   `json:"isSelected"`
	Label      string `json:"label,omitempty"`
}

// DisplayName is the label when set, else the chat id.
func (c TelegramChannel) DisplayName() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ChatID
}

// TelegramSettings configures the bot and its channels.
type TelegramSettings struct {
	BotToken  string            `json:"botToken"`
	ParseMode string            `json:"parseMode,omitempty"`
	Channels  []TelegramChannel `json:"channels"`
}

func (TelegramSettings) Kind() PlatformKind { return PlatformTelegram }
func (TelegramSettings) platformSettings()  {}

// Clone returns a deep copy.
func (s TelegramSettings) Clone() TelegramSettings {
	s.Channels = append([]TelegramChannel(nil), s.Channels...)
	return s
}

// VKCommunity is one VK community (group) destination with its own
// community-scoped access token.
type VKCommunity struct {
	GroupID              int64      `json:"groupId"`
	OwnerID              string     `json:"ownerId"`
	Name                 string     `json:"name,omitempty"`
	ScreenName           string     `json:"screenName,omitempty"`
	PhotoURL             string     `json:"photoUrl,omitempty"`
	AccessToken          string     `json:"accessToken,omitempty"`
	AccessTokenExpiresAt *time.Time `json:"accessTokenExpiresAt,omitempty"`
	Scope                string     `json:"scope,omitempty"`
	Permissions          []string   `json:"permissions,omitempty"`
	ObtainedAt           *time.Time `json:"obtainedAt,omitempty"`
	IsSelected           bool       `json:"isSelected"`
}

// DerivedOwnerID is OwnerID when set, else "-{GroupID}".
func (c VKCommunity) DerivedOwnerID() string {
	if c.OwnerID != "" {
		return c.OwnerID
	}
	return DefaultOwnerID(c.GroupID)
}

// DisplayName is the configured name, else "Group {GroupID}".
func (c VKCommunity) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return "Group " + strconv.FormatInt(c.GroupID, 10)
}

// DefaultOwnerID is the community owner id for groupID.
func DefaultOwnerID(groupID int64) string {
	return "-" + strconv.FormatInt(groupID, 10)
}

// Clone returns a deep copy.
func (c VKCommunity) Clone() VKCommunity {
	c.Permissions = append([]string(nil), c.Permissions...)
	c.AccessTokenExpiresAt = cloneTime(c.AccessTokenExpiresAt)
	c.ObtainedAt = cloneTime(c.ObtainedAt)
	return c
}

// VKSettings holds the user-level VK credentials and the community list.
type VKSettings struct {
	AccessToken          string        `json:"accessToken,omitempty"`
	AccessTokenExpiresAt *time.Time    `json:"accessTokenExpiresAt,omitempty"`
	RefreshToken         string        `json:"refreshToken,omitempty"`
	DeviceID             string        `json:"deviceId,omitempty"`
	Scope                string        `json:"scope,omitempty"`
	UserID               string        `json:"userId,omitempty"`
	LastSyncedAt         *time.Time    `json:"lastSyncedAt,omitempty"`
	Communities          []VKCommunity `json:"communities"`
}

func (VKSettings) Kind() PlatformKind { return PlatformVK }
func (VKSettings) platformSettings()  {}

// Clone returns a deep copy.
func (s VKSettings) Clone() VKSettings {
	s.AccessTokenExpiresAt = cloneTime(s.AccessTokenExpiresAt)
	s.LastSyncedAt = cloneTime(s.LastSyncedAt)
	if s.Communities != nil {
		cs := make([]VKCommunity, len(s.Communities))
		for i, c := range s.Communities {
			cs[i] = c.Clone()
		}
		s.Communities = cs
	}
	return s
}

// IsEmpty reports whether there is neither a token nor a community.
func (s VKSettings) IsEmpty() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && len(s.Communities) == 0
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
