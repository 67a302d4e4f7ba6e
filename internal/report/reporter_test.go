package report

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/filecrypt"
)

func TestClassify_Kinds(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{merrors.ErrAuthenticationFailed, KindAuthenticationFailed},
		{fmt.Errorf("wrapped: %w", merrors.ErrAuthenticationFailed), KindAuthenticationFailed},
		{merrors.ErrNoCachedKey, KindMissingKey},
		{merrors.ErrInvalidKey, KindInvalidKey},
		{merrors.ErrMalformedInput, KindMalformedInput},
		{errors.New("disk on fire"), KindTransport},
	}

	for _, tc := range cases {
		failure := Classify(tc.err)
		if failure == nil {
			t.Fatalf("Classify(%v) returned nil", tc.err)
		}
		if failure.Kind != tc.kind {
			t.Errorf("Classify(%v): expected kind %s, got %s", tc.err, tc.kind, failure.Kind)
		}
		if failure.Title == "" || failure.Message == "" {
			t.Errorf("Classify(%v): failure is missing title or message", tc.err)
		}
		if !errors.Is(failure, tc.err) {
			t.Errorf("Classify(%v): original error not reachable through Unwrap", tc.err)
		}
	}
}

func TestClassify_NilIsNil(t *testing.T) {
	if failure := Classify(nil); failure != nil {
		t.Errorf("Expected nil for nil error, got %v", failure)
	}
}

func TestDecrypt_Success(t *testing.T) {
	key, err := filecrypt.NewSymmetricKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	payload, err := filecrypt.Encrypt([]byte("lab results"), key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	plaintext, failure := Decrypt(payload, key)
	if failure != nil {
		t.Fatalf("Decrypt failed: %v", failure)
	}
	if !bytes.Equal(plaintext, []byte("lab results")) {
		t.Errorf("Plaintext mismatch")
	}
}

func TestDecrypt_ClassifiesTamper(t *testing.T) {
	key, err := filecrypt.NewSymmetricKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	payload, err := filecrypt.Encrypt([]byte("lab results"), key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	payload.Ciphertext[0] ^= 0x01

	_, failure := Decrypt(payload, key)
	if failure == nil {
		t.Fatalf("Expected a failure for tampered ciphertext")
	}
	if failure.Kind != KindAuthenticationFailed {
		t.Errorf("Expected authentication_failed, got %s", failure.Kind)
	}
}

func TestDecrypt_ClassifiesBadKey(t *testing.T) {
	key, err := filecrypt.NewSymmetricKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	payload, err := filecrypt.Encrypt([]byte("lab results"), key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	_, failure := Decrypt(payload, make([]byte, 16))
	if failure == nil {
		t.Fatalf("Expected a failure for a short key")
	}
	if failure.Kind != KindInvalidKey {
		t.Errorf("Expected invalid_key, got %s", failure.Kind)
	}
}
