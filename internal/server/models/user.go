// Package models holds the proxy server's persisted records.
package models

import "time"

// User is an account. The server never sees the password: it stores the
// client's salt and a verifier of the derived master key.
type User struct {
	ID        string
	UserName  string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}
