package filecrypt

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	merrors "github.com/sable-health/medlock/internal/errors"
)

// newTestKey generates a valid random key.
func newTestKey(t *testing.T) []byte {
	t.Helper()
	key, err := NewSymmetricKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	return key
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := newTestKey(t)
	plaintext := []byte("patient report: all clear")

	payload, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	got, err := Decrypt(payload, key)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Round trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestEncrypt_FormatContract(t *testing.T) {
	key := newTestKey(t)
	plaintext := make([]byte, 71)
	if _, err := rand.Read(plaintext); err != nil {
		t.Fatalf("Failed to generate plaintext: %v", err)
	}

	payload, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if len(payload.IV) != IVSize {
		t.Errorf("Expected %d-byte IV, got %d", IVSize, len(payload.IV))
	}
	if len(payload.Ciphertext) != len(plaintext)+TagSize {
		t.Errorf("Expected ciphertext length %d, got %d", len(plaintext)+TagSize, len(payload.Ciphertext))
	}
	if payload.Algorithm != Algorithm {
		t.Errorf("Expected algorithm %q, got %q", Algorithm, payload.Algorithm)
	}

	// A 71-byte file must come back as exactly those 71 bytes.
	got, err := Decrypt(payload, key)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("71-byte round trip mismatch")
	}
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	key := newTestKey(t)
	plaintext := []byte("same plaintext")

	first, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("First encrypt failed: %v", err)
	}
	second, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Second encrypt failed: %v", err)
	}

	if bytes.Equal(first.IV, second.IV) {
		t.Errorf("IV reused across encryptions")
	}
	if bytes.Equal(first.Ciphertext, second.Ciphertext) {
		t.Errorf("Identical ciphertext for two encryptions of the same plaintext")
	}
}

func TestDecrypt_BitFlipInCiphertext(t *testing.T) {
	key := newTestKey(t)
	payload, err := Encrypt([]byte("do not tamper"), key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	for _, i := range []int{0, len(payload.Ciphertext) / 2, len(payload.Ciphertext) - 1} {
		corrupted := &Payload{
			Ciphertext: append([]byte(nil), payload.Ciphertext...),
			IV:         payload.IV,
			Algorithm:  payload.Algorithm,
		}
		corrupted.Ciphertext[i] ^= 0x01

		if _, err := Decrypt(corrupted, key); !errors.Is(err, merrors.ErrAuthenticationFailed) {
			t.Errorf("Bit flip at %d: expected ErrAuthenticationFailed, got %v", i, err)
		}
	}
}

func TestDecrypt_BitFlipInIV(t *testing.T) {
	key := newTestKey(t)
	payload, err := Encrypt([]byte("do not tamper"), key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	corrupted := &Payload{
		Ciphertext: payload.Ciphertext,
		IV:         append([]byte(nil), payload.IV...),
		Algorithm:  payload.Algorithm,
	}
	corrupted.IV[0] ^= 0x80

	if _, err := Decrypt(corrupted, key); !errors.Is(err, merrors.ErrAuthenticationFailed) {
		t.Errorf("Expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	payload, err := Encrypt([]byte("secret"), newTestKey(t))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := Decrypt(payload, newTestKey(t)); !errors.Is(err, merrors.ErrAuthenticationFailed) {
		t.Errorf("Expected ErrAuthenticationFailed with wrong key, got %v", err)
	}
}

func TestEncrypt_InvalidKeyLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		if _, err := Encrypt([]byte("x"), make([]byte, n)); !errors.Is(err, merrors.ErrInvalidKey) {
			t.Errorf("Key length %d: expected ErrInvalidKey, got %v", n, err)
		}
	}
}

func TestDecrypt_MalformedInput(t *testing.T) {
	key := newTestKey(t)
	payload, err := Encrypt([]byte("hello"), key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	cases := []struct {
		name    string
		payload *Payload
	}{
		{"nil payload", nil},
		{"short IV", &Payload{Ciphertext: payload.Ciphertext, IV: payload.IV[:8]}},
		{"long IV", &Payload{Ciphertext: payload.Ciphertext, IV: make([]byte, 16)}},
		{"ciphertext shorter than tag", &Payload{Ciphertext: make([]byte, TagSize-1), IV: payload.IV}},
	}

	for _, tc := range cases {
		if _, err := Decrypt(tc.payload, key); !errors.Is(err, merrors.ErrMalformedInput) {
			t.Errorf("%s: expected ErrMalformedInput, got %v", tc.name, err)
		}
	}
}

func TestDecrypt_WrongKeyLength(t *testing.T) {
	payload, err := Encrypt([]byte("hello"), newTestKey(t))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := Decrypt(payload, make([]byte, 16)); !errors.Is(err, merrors.ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}
}

func TestEncrypt_EmptyPlaintext(t *testing.T) {
	key := newTestKey(t)

	payload, err := Encrypt(nil, key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if len(payload.Ciphertext) != TagSize {
		t.Errorf("Expected tag-only ciphertext of %d bytes, got %d", TagSize, len(payload.Ciphertext))
	}

	got, err := Decrypt(payload, key)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty plaintext, got %d bytes", len(got))
	}
}
