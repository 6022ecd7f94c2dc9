package vault

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	v := New(NewMemoryKeyStore())

	for _, plaintext := range []string{
		"sk-1234567890",
		"",
		"ключ-アクセス-🔑",
		"multi\nline\tcredential",
	} {
		ciphertext, err := v.Encrypt(plaintext)
		require.NoError(t, err)

		decrypted, err := v.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestNonceIsFresh(t *testing.T) {
	v := New(NewMemoryKeyStore())

	a, err := v.Encrypt("same input")
	require.NoError(t, err)
	b, err := v.Encrypt("same input")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptErrors(t *testing.T) {
	v := New(NewMemoryKeyStore())

	_, err := v.Decrypt("not base64 !!!")
	assert.ErrorIs(t, err, ErrDecryption)

	_, err = v.Decrypt("c2hvcnQ=") // valid base64, shorter than a nonce
	assert.ErrorIs(t, err, ErrDecryption)

	// Tampered ciphertext fails authentication.
	ciphertext, err := v.Encrypt("secret")
	require.NoError(t, err)
	tampered := []byte(ciphertext)
	tampered[len(tampered)-5] ^= 'x'
	_, err = v.Decrypt(string(tampered))
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestClearInvalidatesOldCiphertext(t *testing.T) {
	store := NewMemoryKeyStore()
	v := New(store)

	ciphertext, err := v.Encrypt("secret")
	require.NoError(t, err)

	require.NoError(t, v.Clear())

	_, err = v.Decrypt(ciphertext)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestRotate(t *testing.T) {
	v := New(NewMemoryKeyStore())

	old, err := v.Encrypt("secret")
	require.NoError(t, err)

	require.NoError(t, v.Rotate())

	_, err = v.Decrypt(old)
	assert.ErrorIs(t, err, ErrDecryption)

	// The rotated vault still works for new material.
	fresh, err := v.Encrypt("secret")
	require.NoError(t, err)
	got, err := v.Decrypt(fresh)
	require.NoError(t, err)
	assert.Equal(t, "secret", got)
}

func TestFileKeyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "vault.seed")

	v1 := New(NewFileKeyStore(path))
	ciphertext, err := v1.Encrypt("persisted")
	require.NoError(t, err)

	// A second vault over the same file shares the key.
	v2 := New(NewFileKeyStore(path))
	got, err := v2.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got)
}

func TestConcurrentFirstUseConverges(t *testing.T) {
	store := NewFileKeyStore(filepath.Join(t.TempDir(), "vault.seed"))

	const n = 8
	ciphertexts := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := New(store)
			ct, err := v.Encrypt("racer")
			assert.NoError(t, err)
			ciphertexts[i] = ct
		}(i)
	}
	wg.Wait()

	// Every ciphertext decrypts with a fresh vault over the same store,
	// so all racers ended up on one key.
	v := New(store)
	for _, ct := range ciphertexts {
		got, err := v.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, "racer", got)
	}
}
