package models

import "time"

// ConfigBlob is a user's publishing config sealed on the client. The server
// stores it opaquely.
type ConfigBlob struct {
	UserID     string
	Nonce      []byte
	Ciphertext []byte
	UpdatedAt  time.Time
}
