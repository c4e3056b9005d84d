// Package common defines shared constants and sentinel errors used across
// the crossposter client, the publishing core and the proxy server. Callers
// should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")

	// ErrNotAuthenticated is returned by proxy calls attempted without a session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Credential lifecycle errors.
	ErrNoRefreshCredentials = errors.New("no refresh credentials")

	// Configuration errors.
	ErrSettingsMismatch  = errors.New("settings do not match platform")
	ErrUnknownPlatform   = errors.New("unknown platform")
	ErrMalformedConfig   = errors.New("malformed config")
	ErrNoMasterKey       = errors.New("no master key in session")
	ErrLoginAlreadyTaken = errors.New("login already exists")
	ErrNotConfigured     = errors.New("not configured on this server")
)
