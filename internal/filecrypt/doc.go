// Package filecrypt implements authenticated encryption of file payloads
// with the per-relationship data-encryption key.
//
// The format contract is fixed: 32-byte AES-256 keys, 12-byte random IVs,
// and ciphertext carrying a 16-byte GCM tag (ciphertext length = plaintext
// length + 16). Contract violations fail before any cryptographic work with
// ErrInvalidKey or ErrMalformedInput; tag-check failures surface as
// ErrAuthenticationFailed so callers can tell a wrong or stale key apart
// from transport errors.
package filecrypt
