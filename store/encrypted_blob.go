package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"

	"github.com/arguslm/arguslm/apperr"
	"github.com/arguslm/arguslm/provider"
)

// EncryptedBlob is a GORM column type holding an AES-256-GCM
// authenticated-encrypted payload. §3/§6 require ProviderAccount
// credentials to be "authenticated-encrypted at rest, never logged" —
// no library in the example pack offers an AEAD-at-rest convenience
// wrapper (the pack's crypto usage is all TLS, via
// internal/tlsutil), so this is the one justified stdlib-only ambient
// concern in the store package: crypto/cipher's GCM mode is the
// standard, unit-testable way to do this in Go, and reaching for a
// third-party AEAD package here would only wrap the same stdlib call.
//
// Encode/Decode never touch a database/sql.DB directly — the key is
// threaded in explicitly by the caller (config Encryption.Key, decoded
// in cmd/arguslm/deps.go) so
// this type stays free of any global state.
type EncryptedBlob []byte

// EncryptCredentials seals creds under key (exactly 32 bytes, AES-256)
// into an EncryptedBlob ready for storage. creds is provider.Credentials
// rather than a store-local type — the same concrete struct the
// invoker uses at call time, so there is exactly one shape for "what a
// target needs to authenticate" across the whole module. The nonce is
// random per call and prepended to the ciphertext, following the
// standard crypto/cipher.AEAD.Seal(nonce, nonce, ...) convention.
func EncryptCredentials(key []byte, creds provider.Credentials) (EncryptedBlob, error) {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return nil, apperr.New(apperr.CodeInternal, "marshal credentials").WithCause(err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, apperr.New(apperr.CodeInternal, "generate nonce").WithCause(err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return EncryptedBlob(sealed), nil
}

// DecryptCredentials opens blob under key, returning the plaintext
// Credentials. A tampered or wrong-key blob fails authentication and
// returns a Storage-class error rather than silently returning garbage;
// a key that is not 32 bytes returns a Config-class error.
func DecryptCredentials(key []byte, blob EncryptedBlob) (provider.Credentials, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return provider.Credentials{}, err
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return provider.Credentials{}, apperr.New(apperr.CodeStorage, "encrypted blob shorter than nonce")
	}
	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return provider.Credentials{}, apperr.New(apperr.CodeStorage, "decrypt credentials: authentication failed").WithCause(err)
	}

	var creds provider.Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return provider.Credentials{}, apperr.New(apperr.CodeStorage, "unmarshal decrypted credentials").WithCause(err)
	}
	return creds, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, apperr.New(apperr.CodeConfig, fmt.Sprintf("encryption key must be 32 bytes, got %d", len(key)))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperr.New(apperr.CodeInternal, "construct AES cipher").WithCause(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperr.New(apperr.CodeInternal, "construct GCM mode").WithCause(err)
	}
	return gcm, nil
}

// Value implements driver.Valuer so GORM can write an EncryptedBlob
// directly into a bytea column.
func (b EncryptedBlob) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	return []byte(b), nil
}

// Scan implements sql.Scanner.
func (b *EncryptedBlob) Scan(value any) error {
	if value == nil {
		*b = nil
		return nil
	}
	raw, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("store: EncryptedBlob.Scan: unsupported type %T", value)
	}
	*b = append(EncryptedBlob(nil), raw...)
	return nil
}
