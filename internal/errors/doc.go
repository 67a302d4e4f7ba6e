// Package errors provides typed error values for the medlock application.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. The decrypt
// path depends on this: callers must be able to tell an authentication
// failure (wrong key, tampered ciphertext) apart from a storage or transport
// error, and the reporter package classifies on these values.
//
// # Error Categories
//
//   - Store errors: invariant and authorization failures (ErrDuplicateActiveKey, ErrNotAuthorized)
//   - Exchange errors: scanned-code decode failures (ErrMalformedPayload, ErrIdentityMismatch)
//   - Cipher errors: encryption/decryption contract failures (ErrAuthenticationFailed)
//   - Cache errors: device-local key availability (ErrNoCachedKey)
//
// # Usage
//
// Return errors from internal packages:
//
//	if !record.IsParty(userID) {
//	    return nil, errors.ErrNotAuthorized
//	}
//
// Handle errors in the CLI layer:
//
//	plaintext, err := workflows.Decrypt(ctx, opts)
//	if errors.Is(err, merrors.ErrAuthenticationFailed) {
//	    // Show the classified failure, not a generic error
//	}
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("fetching key %s: %w", keyID, errors.ErrKeyNotFound)
package errors
