package report

import (
	"errors"

	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/filecrypt"
)

// Kind is a stable machine-readable failure category for the UI layer.
type Kind string

const (
	// KindAuthenticationFailed: the GCM tag check failed. Wrong key, stale
	// key after rotation, or tampered ciphertext. The one failure users must
	// see as distinct from everything else.
	KindAuthenticationFailed Kind = "authentication_failed"

	// KindMissingKey: no key cached for the user on this device.
	KindMissingKey Kind = "missing_key"

	// KindInvalidKey: key material violates the format contract. A defect,
	// not a user condition.
	KindInvalidKey Kind = "invalid_key"

	// KindMalformedInput: the payload violates the format contract before
	// any cryptography ran.
	KindMalformedInput Kind = "malformed_input"

	// KindTransport: anything else. Storage or I/O trouble, not crypto.
	KindTransport Kind = "transport"
)

// Failure is the user-facing result of a failed decryption, handed to the
// notification layer as {title, message, kind}.
type Failure struct {
	Kind    Kind
	Title   string
	Message string

	// Err is the underlying error, preserved for logging.
	Err error
}

// Error implements error so a Failure can travel an error path unchanged.
func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Classify maps a decrypt-path error to a Failure. Returns nil for nil.
// This is pure classification; no cryptography, no side effects.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, merrors.ErrAuthenticationFailed):
		return &Failure{
			Kind:    KindAuthenticationFailed,
			Title:   "File could not be decrypted",
			Message: "The file failed its integrity check. Your key may be out of date (ask for a new exchange code) or the file may be corrupted.",
			Err:     err,
		}
	case errors.Is(err, merrors.ErrNoCachedKey):
		return &Failure{
			Kind:    KindMissingKey,
			Title:   "No key on this device",
			Message: "There is no relationship key cached on this device. Scan your exchange code to connect.",
			Err:     err,
		}
	case errors.Is(err, merrors.ErrInvalidKey):
		return &Failure{
			Kind:    KindInvalidKey,
			Title:   "Key is unusable",
			Message: "The stored key material is invalid. This should not happen; please report it.",
			Err:     err,
		}
	case errors.Is(err, merrors.ErrMalformedInput):
		return &Failure{
			Kind:    KindMalformedInput,
			Title:   "File is not a valid encrypted payload",
			Message: "The file does not match the expected encrypted format and was not modified.",
			Err:     err,
		}
	default:
		return &Failure{
			Kind:    KindTransport,
			Title:   "Could not read file",
			Message: "A storage or network problem interrupted decryption. The file and your key are untouched; try again.",
			Err:     err,
		}
	}
}

// Decrypt wraps filecrypt.Decrypt for callers that want a classified result
// instead of a raw error: plaintext on success, a Failure otherwise.
func Decrypt(payload *filecrypt.Payload, key []byte) ([]byte, *Failure) {
	plaintext, err := filecrypt.Decrypt(payload, key)
	if err != nil {
		return nil, Classify(err)
	}
	return plaintext, nil
}
