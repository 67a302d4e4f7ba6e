package errors

import "errors"

// Store errors indicate invariant or authorization failures in the key record store.
var (
	// ErrDuplicateActiveKey indicates a concurrent create or rotate raced the
	// check-and-supersede for the same clinician/patient pair. The caller should retry.
	ErrDuplicateActiveKey = errors.New("an active key already exists for this clinician/patient pair")

	// ErrNotAuthorized indicates the requesting user is not a party on the key record.
	ErrNotAuthorized = errors.New("user is not a party on this key record")

	// ErrKeyNotFound indicates the key record could not be located.
	ErrKeyNotFound = errors.New("key record not found")
)

// Exchange errors indicate failures while decoding a scanned exchange code.
var (
	// ErrMalformedPayload indicates the scanned text is not a valid exchange payload.
	ErrMalformedPayload = errors.New("exchange payload is malformed")

	// ErrIdentityMismatch indicates the payload was issued for a different person.
	ErrIdentityMismatch = errors.New("exchange payload was issued for a different identity")

	// ErrPayloadExpired indicates the exchange payload's expiry has passed.
	ErrPayloadExpired = errors.New("exchange payload has expired")
)

// Cipher errors indicate failures during file encryption or decryption.
var (
	// ErrInvalidKey indicates the symmetric key is not exactly 32 bytes.
	ErrInvalidKey = errors.New("invalid symmetric key material")

	// ErrMalformedInput indicates the IV or ciphertext violates the format contract.
	ErrMalformedInput = errors.New("malformed cipher input")

	// ErrAuthenticationFailed indicates the GCM tag check failed: wrong key,
	// corrupted ciphertext, or tampering. Never conflated with transport errors.
	ErrAuthenticationFailed = errors.New("authenticated decryption failed")
)

// Cache errors indicate device-local key availability problems. Recovery
// outcomes (ghost, in-flight) are states on the recovery agent, not errors.
var (
	// ErrNoCachedKey indicates no key is cached for the user on this device.
	ErrNoCachedKey = errors.New("no cached key for user on this device")
)

// File errors indicate issues with file discovery or input parsing.
var (
	// ErrNoFilesFound indicates no files matched the provided arguments.
	ErrNoFilesFound = errors.New("no matching files found")

	// ErrInvalidDateFormat indicates a date filter could not be parsed.
	ErrInvalidDateFormat = errors.New("invalid date format")
)

// Identity errors indicate issues with the configured local identity.
var (
	// ErrIdentityNotConfigured indicates no user identity is configured on this device.
	ErrIdentityNotConfigured = errors.New("no user identity configured")
)
