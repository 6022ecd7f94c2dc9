// Package vault encrypts provider credentials at rest with AES-GCM. The key
// is created lazily on first use and persisted through a KeyStore, so two
// racing first-time callers converge on the same key.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"
)

const seedSize = 32

// ErrDecryption is returned when ciphertext is malformed or was produced
// with a different key (for example after the vault was cleared). Callers
// should treat it as "re-enter the credential", not as a transient failure.
var ErrDecryption = errors.New("vault: decryption failed")

// KeyStore persists the vault's key seed. Load returns an empty string when
// no seed has been stored yet. Store must be idempotent under races: when a
// seed already exists it must keep the existing one and report success, so
// the losing writer re-reads the winner's seed.
type KeyStore interface {
	Load() (string, error)
	Store(seed string) error
	Clear() error
}

// Vault provides authenticated symmetric encryption of credential strings.
type Vault struct {
	store KeyStore

	mu   sync.Mutex
	aead cipher.AEAD
}

// New creates a vault backed by the given key store. No key is created until
// the first Encrypt or Decrypt call.
func New(store KeyStore) *Vault {
	return &Vault{store: store}
}

// Encrypt encrypts a plaintext credential and returns base64 ciphertext with
// the random nonce prepended.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	aead, err := v.cipher()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Malformed input and key mismatches both surface
// as ErrDecryption.
func (v *Vault) Decrypt(ciphertextBase64 string) (string, error) {
	aead, err := v.cipher()
	if err != nil {
		return "", err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextBase64)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64", ErrDecryption)
	}

	nonceSize := aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryption
	}

	return string(plaintext), nil
}

// Rotate discards the current key and creates a fresh one. Ciphertexts
// produced before the rotation can no longer be decrypted.
func (v *Vault) Rotate() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear key store: %w", err)
	}
	v.aead = nil
	_, err := v.cipherLocked()
	return err
}

// Clear removes the persisted key. The next Encrypt or Decrypt creates a
// new one.
func (v *Vault) Clear() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.aead = nil
	return v.store.Clear()
}

func (v *Vault) cipher() (cipher.AEAD, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cipherLocked()
}

// cipherLocked loads or creates the key seed and builds the AEAD. Creation
// is check-then-create: a racing creator may lose and must use the stored
// winner's seed.
func (v *Vault) cipherLocked() (cipher.AEAD, error) {
	if v.aead != nil {
		return v.aead, nil
	}

	seed, err := v.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load key seed: %w", err)
	}

	if seed == "" {
		raw := make([]byte, seedSize)
		if _, err := io.ReadFull(rand.Reader, raw); err != nil {
			return nil, fmt.Errorf("failed to generate key seed: %w", err)
		}
		if err := v.store.Store(base64.StdEncoding.EncodeToString(raw)); err != nil {
			return nil, fmt.Errorf("failed to persist key seed: %w", err)
		}
		// Re-read: if another process won the race its seed is the one
		// that counts.
		seed, err = v.store.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to reload key seed: %w", err)
		}
	}

	key, err := deriveKey(seed)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	v.aead = aead
	return aead, nil
}

// deriveKey expands the stored seed into the AES-256 key via HKDF so the
// persisted value is never used as key material directly.
func deriveKey(seedBase64 string) ([]byte, error) {
	seed, err := base64.StdEncoding.DecodeString(seedBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid key seed: %w", err)
	}

	key := make([]byte, 32)
	r := hkdf.New(sha256.New, seed, nil, []byte("starscope-credential-vault"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}
