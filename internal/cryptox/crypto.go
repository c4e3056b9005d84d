// Package cryptox derives the user's master key from a password and seals
// values with AES-GCM under it. The proxy only ever stores sealed blobs and
// the verifier, never the key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const nonceSize = 12

var ErrDecrypt = errors.New("cannot decrypt: wrong key or corrupted data")

// MakeVerifier is what the server stores to check a login without learning
// the master key.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveMasterKey derives a 32-byte key with Argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// Sealed is one AES-GCM encrypted JSON document.
type Sealed struct {
	Nonce      []byte
	Ciphertext []byte
}

// Seal marshals v to JSON and encrypts it with key (16, 24 or 32 bytes).
// aad is authenticated but not encrypted; Open must be given the same aad.
func Seal(v any, key, aad []byte) (Sealed, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return Sealed{}, fmt.Errorf("marshal: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return Sealed{}, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return Sealed{}, err
	}

	return Sealed{Nonce: nonce, Ciphertext: gcm.Seal(nil, nonce, plaintext, aad)}, nil
}

// OpenRaw decrypts s and returns the plaintext JSON.
func OpenRaw(s Sealed, key, aad []byte) ([]byte, error) {
	if len(s.Nonce) != nonceSize {
		return nil, fmt.Errorf("%w: bad nonce length %d", ErrDecrypt, len(s.Nonce))
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, s.Nonce, s.Ciphertext, aad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// Open decrypts s and unmarshals the JSON into v.
func Open(s Sealed, key, aad []byte, v any) error {
	plaintext, err := OpenRaw(s, key, aad)
	if err != nil {
		return err
	}
	return json.Unmarshal(plaintext, v)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
