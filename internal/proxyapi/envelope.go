// Package proxyapi is the wire contract between the crossposter client and
// the backend proxy: routes, the response envelope and request/response
// bodies.
package proxyapi

import "encoding/json"

const (
	RouteRegister = "/auth/register"
	RouteSalt     = "/auth/salt"
	RouteLogin    = "/auth/login"
	RouteConfig   = "/config"

	RouteTelegramSendMessage    = "/telegram/sendMessage"
	RouteTelegramSendPhoto      = "/telegram/sendPhoto"
	RouteTelegramSendMediaGroup = "/telegram/sendMediaGroup"

	RouteVKUploadPhoto  = "/vk/uploadPhoto"
	RouteVKPost         = "/vk/post"
	RouteVKRefreshToken = "/vk/refreshToken"
)

// Error codes carried in Envelope.Error.Code.
const (
	CodeBadRequest     = "bad_request"
	CodeUnauthorized   = "unauthorized"
	CodeConflict       = "conflict"
	CodeNotFound       = "not_found"
	CodeUpstream       = "upstream_error"
	CodeInternal       = "internal_error"
	CodeNotConfigured  = "not_configured"
	CodeUploadTooLarge = "upload_too_large"
)

// Envelope wraps every proxy response.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// OK wraps data in a successful envelope.
func OK(data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Success: true, Data: raw}, nil
}

// Fail builds an unsuccessful envelope.
func Fail(code, message string) Envelope {
	return Envelope{Error: &Error{Code: code, Message: message}}
}
