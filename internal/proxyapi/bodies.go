package proxyapi

import (
	"time"
)

type RegisterRequest struct {
	Login    string `json:"login"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type SaltResponse struct {
	Salt []byte `json:"salt"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Verifier []byte `json:"verifier"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ConfigBlob is the encrypted AppConfig; the server never sees plaintext.
type ConfigBlob struct {
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// Telegram multipart field names.
const (
	FieldChatID    = "chat_id"
	FieldCaption   = "caption"
	FieldParseMode = "parse_mode"
	FieldBotToken  = "bot_token"
	FieldPhoto     = "photo"
	FieldMedia     = "media"
)

type SendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
	BotToken  string `json:"bot_token,omitempty"`
}

// MediaItem is one element of the sendMediaGroup "media" field. Media
// references a multipart part as "attach://photoN".
type MediaItem struct {
	Type      string `json:"type"`
	Media     string `json:"media"`
	Caption   string `json:"caption,omitempty"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type SendResponse struct {
	MessageID  int   `json:"message_id"`
	MessageIDs []int `json:"message_ids,omitempty"`
}

// VK multipart field names.
const (
	FieldAccessToken = "access_token"
	FieldOwnerID     = "owner_id"
)

type VKUploadResponse struct {
	Attachment string `json:"attachment"`
}

type VKPostRequest struct {
	AccessToken string   `json:"access_token"`
	OwnerID     string   `json:"owner_id"`
	Message     string   `json:"message"`
	Attachments []string `json:"attachments,omitempty"`
}

type VKPostResponse struct {
	PostID int64 `json:"post_id"`
}

type VKRefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	DeviceID     string `json:"device_id"`
}
