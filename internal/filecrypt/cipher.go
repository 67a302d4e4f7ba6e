package filecrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	merrors "github.com/sable-health/medlock/internal/errors"
)

// Format contract for encrypted file payloads.
const (
	// KeySize is the required symmetric key length (AES-256).
	KeySize = 32

	// IVSize is the GCM initialization vector length.
	IVSize = 12

	// TagSize is the GCM authentication tag length, appended to the ciphertext.
	TagSize = 16

	// Algorithm tags payloads with the cipher that produced them.
	Algorithm = "AES-256-GCM"
)

// Payload is an encrypted file body. The ciphertext includes the GCM
// authentication tag, so any bit flip or wrong key fails at decrypt time
// instead of yielding garbage plaintext.
type Payload struct {
	Ciphertext []byte
	IV         []byte
	Algorithm  string
}

// NewSymmetricKey generates a new random 32-byte data-encryption key.
func NewSymmetricKey() ([]byte, error) {
	key := make([]byte, KeySize) // AES-256
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt performs AES-256-GCM authenticated encryption of plaintext with a
// fresh random IV. The IV is never reused: it is drawn from crypto/rand for
// every call.
//
// Returns ErrInvalidKey if key is not exactly 32 bytes.
func Encrypt(plaintext, key []byte) (*Payload, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", merrors.ErrInvalidKey, KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", merrors.ErrInvalidKey, err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("generating IV: %w", err)
	}

	ciphertext := aesgcm.Seal(nil, iv, plaintext, nil)

	return &Payload{
		Ciphertext: ciphertext,
		IV:         iv,
		Algorithm:  Algorithm,
	}, nil
}

// Decrypt performs AES-256-GCM authenticated decryption.
//
// Returns ErrInvalidKey or ErrMalformedInput before touching the cipher when
// the key, IV, or ciphertext violates the format contract. Returns
// ErrAuthenticationFailed when the tag check fails: wrong key, corrupted
// ciphertext, or tampering. Callers must discriminate that failure from
// storage and transport errors; see the report package.
func Decrypt(payload *Payload, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", merrors.ErrInvalidKey, KeySize, len(key))
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: nil payload", merrors.ErrMalformedInput)
	}
	if len(payload.IV) != IVSize {
		return nil, fmt.Errorf("%w: IV must be %d bytes, got %d", merrors.ErrMalformedInput, IVSize, len(payload.IV))
	}
	if len(payload.Ciphertext) < TagSize {
		return nil, fmt.Errorf("%w: ciphertext shorter than the %d-byte tag", merrors.ErrMalformedInput, TagSize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", merrors.ErrInvalidKey, err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	plaintext, err := aesgcm.Open(nil, payload.IV, payload.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", merrors.ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}
